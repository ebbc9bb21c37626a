package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyword(t *testing.T) {
	assert.Equal(t, Def, Keyword("def"))
	assert.Equal(t, Continue, Keyword("continue"))
	assert.Equal(t, Ident, Keyword("define"))
	assert.True(t, Var.IsKeyword())
	assert.False(t, Add.IsKeyword())
}

func TestOperators(t *testing.T) {
	ops := Operators()

	assert.Equal(t, Pow, ops["**"])
	assert.Equal(t, Range, ops[".."])
	assert.Equal(t, Question, ops["?"])
	assert.NotContains(t, ops, "def")
}

func TestStream(t *testing.T) {
	s := NewStream(
		Token{Kind: Ident, Text: "a", Line: 1, Col: 1},
		Token{Kind: Add, Text: "+", Line: 1, Col: 3},
	)
	s.Append(Token{Kind: EOF, Line: 1, Col: 4})

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "a", s.Peek().Text)
	assert.Equal(t, Add, s.PeekN(1).Kind)

	assert.Equal(t, Ident, s.Next().Kind)
	assert.Equal(t, Add, s.Next().Kind)
	assert.Equal(t, Add, s.Prev().Kind)
	assert.Equal(t, EOF, s.Next().Kind)
	assert.Equal(t, EOF, s.Next().Kind, "reading past the end keeps returning EOF")
	assert.Equal(t, EOF, s.At(100).Kind)

	s.Reset()
	assert.Equal(t, 0, s.Pos())
}
