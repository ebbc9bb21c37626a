package tp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor(t *testing.T) {
	m := Method{In: []Type{Int, String, Double}, Out: Bool}

	assert.Equal(t, "(ILjava/lang/String;D)Z", m.Descriptor())
	assert.Equal(t, "()V", Method{}.Descriptor())
	assert.Equal(t, "Ljava/lang/Object;", Null.Descriptor())
	assert.Equal(t, "LPoint;", Nullable{Of: External{Name: "Point"}}.Descriptor())
	assert.Equal(t, 4, m.ArgSize())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Int, Int))
	assert.False(t, Equal(Int, Long))
	assert.True(t, Equal(Method{In: []Type{Int}}, Method{In: []Type{Int}, Out: Void}))
	assert.False(t, Equal(Method{In: []Type{Int}}, Method{In: []Type{Long}}))
	assert.True(t, Equal(Nullable{Of: String}, Nullable{Of: String}))
	assert.False(t, Equal(Nullable{Of: String}, String))
	assert.True(t, Equal(Null, Nullable{}))
}

func TestAssignCost(t *testing.T) {
	for _, tc := range []struct {
		to, from Type
		cost     int
		ok       bool
	}{
		{Int, Int, 0, true},
		{Long, Int, 1, true},
		{Double, Int, 3, true},
		{Int, Long, 0, false},
		{Int, Char, 1, true},
		{Char, Int, 0, false},
		{Bool, Int, 0, false},
		{Int, Bool, 0, false},
		{Object, Int, costBoxing, true},
		{Object, String, costUpcast, true},
		{String, Object, 0, false},
		{Nullable{Of: String}, Null, 0, true},
		{Nullable{Of: String}, String, costUpcast, true},
		{String, Null, 0, false},
		{Int, Void, 0, false},
		{Union{Types: []Type{Int, String}}, Int, costBoxing, true},
		{Union{Types: []Type{Long, String}}, Int, 1 + costBoxing, true},
		{Union{Types: []Type{Int, String}}, String, costUpcast, true},
		{Union{Types: []Type{Int, String}}, Double, 0, false},
		{Union{Types: []Type{Int, String, Bool}}, Union{Types: []Type{String, Int}}, costUpcast, true},
		{Union{Types: []Type{Int, String}}, Union{Types: []Type{Int, Bool}}, 0, false},
		{Object, Union{Types: []Type{Int, String}}, costUpcast, true},
		{String, Union{Types: []Type{Int, String}}, 0, false},
	} {
		cost, ok := AssignCost(tc.to, tc.from)
		assert.Equal(t, tc.ok, ok, "%v <- %v", tc.to, tc.from)

		if tc.ok {
			assert.Equal(t, tc.cost, cost, "%v <- %v", tc.to, tc.from)
		}
	}
}

func TestPromote(t *testing.T) {
	p, ok := Promote(Byte, Short)
	assert.True(t, ok)
	assert.Equal(t, Int, p)

	p, ok = Promote(Int, Double)
	assert.True(t, ok)
	assert.Equal(t, Double, p)

	_, ok = Promote(Int, String)
	assert.False(t, ok)
}

func TestParseMethodDescriptor(t *testing.T) {
	m, err := ParseMethodDescriptor("(Ljava/util/List;I)Ljava/lang/Object;")
	require.NoError(t, err)
	assert.Equal(t, Method{In: []Type{List, Int}, Out: Object}, m)

	m, err = ParseMethodDescriptor("()V")
	require.NoError(t, err)
	assert.Nil(t, m.Out)

	_, err = ParseMethodDescriptor("(I")
	assert.Error(t, err)

	_, err = ParseMethodDescriptor("(Q)V")
	assert.Error(t, err)

	x, err := ParseDescriptor("J")
	require.NoError(t, err)
	assert.Equal(t, Long, x)
}

func TestUnion(t *testing.T) {
	u := NewUnion(Int, NewUnion(String, Int), Bool)

	assert.Equal(t, Union{Types: []Type{Int, String, Bool}}, u)
	assert.Equal(t, "int | java/lang/String | bool", u.String())
	assert.Equal(t, Object.Descriptor(), u.Descriptor())
	assert.True(t, IsReference(u))

	assert.True(t, Equal(u, Union{Types: []Type{Bool, Int, String}}))
	assert.False(t, Equal(u, Union{Types: []Type{Bool, Int}}))
	assert.Equal(t, Int, NewUnion(Int, Int))

	m, _, ok := Union{Types: []Type{Long, Object}}.Select(Int)
	require.True(t, ok)
	assert.Equal(t, Long, m, "first declared wins a tie")

	m, _, ok = Union{Types: []Type{Double, Long}}.Select(Int)
	require.True(t, ok)
	assert.Equal(t, Long, m)
}
