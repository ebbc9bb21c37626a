package sym

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ix/compiler/tp"
)

func TestBuiltinsLookup(t *testing.T) {
	r := Builtins()

	f, ok := r.Lookup("print", []tp.Type{tp.Int})
	require.True(t, ok)
	assert.Equal(t, HostOutputVirtual, f.Kind)
	assert.Equal(t, "(I)V", f.Sig.Descriptor())
	assert.Equal(t, OutputOwner, f.Owner)

	f, ok = r.Lookup("println", []tp.Type{tp.Short})
	require.True(t, ok)
	assert.Equal(t, "(I)V", f.Sig.Descriptor(), "short widens to int")

	f, ok = r.Lookup("println", []tp.Type{tp.String})
	require.True(t, ok)
	assert.Equal(t, "(Ljava/lang/Object;)V", f.Sig.Descriptor())

	f, ok = r.Lookup("println", nil)
	require.True(t, ok)
	assert.Equal(t, "()V", f.Sig.Descriptor())

	_, ok = r.Lookup("println", []tp.Type{tp.Void})
	assert.False(t, ok)

	_, ok = r.Lookup("print", []tp.Type{tp.Int, tp.Int})
	assert.False(t, ok)
}

func TestLookupTies(t *testing.T) {
	r := NewRegistry()

	host := Func{Kind: Static, Name: "f", Owner: "host/Lib", Sig: tp.Method{In: []tp.Type{tp.Long}}}
	local := Func{Kind: Static, Name: "f", Owner: "mainixc", Sig: tp.Method{In: []tp.Type{tp.Double}}, Local: true}

	require.NoError(t, r.Add(host))
	require.NoError(t, r.Add(local))

	f, ok := r.Lookup("f", []tp.Type{tp.Int})
	require.True(t, ok)
	assert.Equal(t, host, f, "fewer conversions wins")

	r = NewRegistry()
	a := Func{Kind: Static, Name: "g", Owner: "host/Lib", Sig: tp.Method{In: []tp.Type{tp.Object}}}
	b := Func{Kind: Static, Name: "g", Owner: "mainixc", Sig: tp.Method{In: []tp.Type{tp.Nullable{Of: tp.String}}}, Local: true}

	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(b))

	f, ok = r.Lookup("g", []tp.Type{tp.String})
	require.True(t, ok)
	assert.Equal(t, b, f, "local wins on equal cost")
}

func TestRedefinition(t *testing.T) {
	r := NewRegistry()

	f := Func{Name: "f", Sig: tp.Method{In: []tp.Type{tp.Int}}}
	require.NoError(t, r.Add(f))
	require.NoError(t, r.Add(Func{Name: "f", Sig: tp.Method{In: []tp.Type{tp.Long}}}))
	assert.Error(t, r.Add(Func{Name: "f", Sig: tp.Method{In: []tp.Type{tp.Int}, Out: tp.Int}}))

	assert.Equal(t, 2, r.Len())
}

func TestContextScopes(t *testing.T) {
	c := NewContext("mainixc", nil)

	require.NoError(t, c.Declare(&Var{Name: "g", Kind: Global, Type: tp.Int, Owner: "mainixc"}))
	assert.True(t, c.Global())

	c.EnterFunc(true, tp.Void)

	require.NoError(t, c.Declare(&Var{Name: "a", Kind: Local, Type: tp.Long}))
	require.NoError(t, c.Declare(&Var{Name: "b", Kind: Local, Type: tp.Int}))
	assert.ErrorIs(t, c.Declare(&Var{Name: "b", Kind: Local, Type: tp.Int}), ErrRedefined)

	b, ok := c.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, 2, b.Slot, "long takes two slots")

	c.Push()
	require.NoError(t, c.Declare(&Var{Name: "g", Kind: Local, Type: tp.Double}))

	g, _ := c.Lookup("g")
	assert.Equal(t, Local, g.Kind, "shadowed")
	assert.Equal(t, 3, g.Slot)

	c.Pop()

	g, _ = c.Lookup("g")
	assert.Equal(t, Global, g.Kind)

	require.NoError(t, c.Declare(&Var{Name: "d", Kind: Local, Type: tp.Int}))
	d, _ := c.Lookup("d")
	assert.Equal(t, 3, d.Slot, "slots of closed scopes are reused")

	assert.Equal(t, 5, c.Frame.MaxLocals())

	c.LeaveFunc()

	_, ok = c.Lookup("a")
	assert.False(t, ok)
}

func TestInstanceFrame(t *testing.T) {
	c := NewContext("Point", nil)

	c.EnterFunc(false, tp.Int)
	require.NoError(t, c.Declare(&Var{Name: "x", Kind: Local, Type: tp.Int}))

	x, _ := c.Lookup("x")
	assert.Equal(t, 1, x.Slot, "slot 0 is this")
}

func TestWire(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(Func{Kind: Static, Name: "add", Owner: "mathixc", Sig: tp.Method{In: []tp.Type{tp.Int, tp.Int}, Out: tp.Int}, Local: true}))
	require.NoError(t, r.Add(Func{Kind: Static, Name: "hello", Owner: "mathixc", Sig: tp.Method{In: []tp.Type{tp.String}}}))

	data, err := r.Marshal()
	require.NoError(t, err)

	x, err := Unmarshal(data)
	require.NoError(t, err)

	all := x.All()
	require.Len(t, all, 2)
	assert.Equal(t, "mathixc.add(II)I", all[0].String())
	assert.False(t, all[0].Local)

	main := Builtins()
	require.NoError(t, main.Merge(x))

	f, ok := main.Lookup("add", []tp.Type{tp.Int, tp.Byte})
	require.True(t, ok)
	assert.Equal(t, "mathixc", f.Owner)

	assert.Error(t, main.Merge(x), "merging twice redefines")

	_, err = Unmarshal([]byte{0xff})
	assert.Error(t, err)
}

func TestLocalShadowsHost(t *testing.T) {
	r := NewRegistry()

	host := Func{Kind: Static, Name: "len", Owner: "ix/runtime/Prelude", Sig: tp.Method{In: []tp.Type{tp.String}, Out: tp.Int}}
	local := host
	local.Owner, local.Local = "mainixc", true

	require.NoError(t, r.Add(host))
	require.NoError(t, r.Add(local))
	assert.Error(t, r.Add(local))
	assert.Error(t, r.Add(host))

	f, ok := r.Lookup("len", []tp.Type{tp.String})
	require.True(t, ok)
	assert.Equal(t, "mainixc", f.Owner)
}
