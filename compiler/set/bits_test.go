package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBits(t *testing.T) {
	var s Bits[int]

	assert.False(t, s.IsSet(0))

	s.Set(1)
	s.Set(75)
	s.Set(200)

	assert.True(t, s.IsSet(1))
	assert.True(t, s.IsSet(75))
	assert.True(t, s.IsSet(200))
	assert.False(t, s.IsSet(74))
	assert.False(t, s.IsSet(201))
	assert.False(t, s.IsSet(-1))

	assert.Panics(t, func() { s.Set(-1) })
}
