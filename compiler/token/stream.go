package token

type (
	// Stream is an append-only token sequence.
	// Once lexing is done indices are stable and it's read-only.
	Stream struct {
		toks []Token
		pos  int
	}
)

func NewStream(toks ...Token) *Stream {
	return &Stream{toks: toks}
}

func (s *Stream) Append(t Token) {
	s.toks = append(s.toks, t)
}

func (s *Stream) Len() int { return len(s.toks) }

// At returns i-th token. Out of range index returns the last token,
// which is EOF for lexer produced streams.
func (s *Stream) At(i int) Token {
	if i < 0 || len(s.toks) == 0 {
		return Token{}
	}

	if i >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}

	return s.toks[i]
}

func (s *Stream) Pos() int { return s.pos }

func (s *Stream) Reset() { s.pos = 0 }

func (s *Stream) Peek() Token { return s.At(s.pos) }

// PeekN looks n tokens ahead of the current one.
func (s *Stream) PeekN(n int) Token { return s.At(s.pos + n) }

func (s *Stream) Next() Token {
	t := s.At(s.pos)

	if s.pos < len(s.toks) {
		s.pos++
	}

	return t
}

// Prev returns the last consumed token.
func (s *Stream) Prev() Token { return s.At(s.pos - 1) }

func (s *Stream) Tokens() []Token { return s.toks }
