package lex

import (
	"context"
	"unicode/utf8"

	"tlog.app/go/tlog"

	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/token"
)

type (
	Spaces uint64

	Lexer struct {
		b []byte
		i int

		line int
		col  int

		ops    map[string]token.Kind
		maxOp  int
		spaces Spaces
	}
)

var SpaceAll = NewSpaces(' ', '\t', '\r', '\n')

func NewSpaces(skip ...byte) (ss Spaces) {
	for _, q := range skip {
		if q >= 64 {
			panic("too high char code")
		}

		ss |= 1 << q
	}

	return
}

func (s Spaces) Is(c byte) bool {
	return c < 64 && s&(1<<c) != 0
}

func New(src []byte) *Lexer {
	l := &Lexer{
		b:      src,
		line:   1,
		col:    1,
		ops:    token.Operators(),
		spaces: SpaceAll,
	}

	for op := range l.ops {
		l.maxOp = max(l.maxOp, len(op))
	}

	return l
}

// Lex tokenizes the whole source. The stream ends with EOF.
func Lex(ctx context.Context, src []byte) (s *token.Stream, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "lex", "size", len(src))
	defer tr.Finish("err", &err)

	l := New(src)
	s = token.NewStream()

	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}

		if tr.If("tokens") {
			tr.Printw("token", "kind", t.Kind, "text", t.Text, "line", t.Line, "col", t.Col)
		}

		s.Append(t)

		if t.Kind == token.EOF {
			break
		}
	}

	tr.Printw("lexed", "tokens", s.Len())

	return s, nil
}

// Next returns the next token or EOF.
func (l *Lexer) Next() (t token.Token, err error) {
	err = l.skip()
	if err != nil {
		return t, err
	}

	if l.i == len(l.b) {
		return token.Token{Kind: token.EOF, Line: l.line, Col: l.col}, nil
	}

	st, line, col := l.i, l.line, l.col
	c := l.b[l.i]

	var k token.Kind

	switch {
	case isLetter(c):
		for l.i < len(l.b) && (isLetter(l.b[l.i]) || isDigit(l.b[l.i])) {
			l.i++
		}

		k = token.Keyword(string(l.b[st:l.i]))
	case isDigit(c):
		k = l.number()
	case c == '"' || c == '\'':
		k, err = l.quoted(c)
	default:
		k, err = l.operator()
	}

	if err != nil {
		return t, err
	}

	l.col += utf8.RuneCount(l.b[st:l.i])

	return token.Token{
		Kind: k,
		Text: string(l.b[st:l.i]),
		Line: line,
		Col:  col,
	}, nil
}

func (l *Lexer) skip() error {
	for l.i < len(l.b) {
		c := l.b[l.i]

		switch {
		case c == '\n':
			l.i++
			l.line++
			l.col = 1
		case l.spaces.Is(c):
			l.i++
			l.col++
		case c == '/' && l.at(1) == '/':
			for l.i < len(l.b) && l.b[l.i] != '\n' {
				l.advance()
			}
		case c == '/' && l.at(1) == '*':
			line, col := l.line, l.col

			l.i += 2
			l.col += 2

			for {
				if l.i >= len(l.b) {
					return diag.NewLexError(line, col, "/*", "Unterminated block comment.")
				}

				if l.b[l.i] == '*' && l.at(1) == '/' {
					l.i += 2
					l.col += 2
					break
				}

				l.advance()
			}
		default:
			return nil
		}
	}

	return nil
}

// advance moves one character keeping position counters.
func (l *Lexer) advance() {
	if l.b[l.i] == '\n' {
		l.line++
		l.col = 1
		l.i++

		return
	}

	_, size := utf8.DecodeRune(l.b[l.i:])

	l.i += size
	l.col++
}

func (l *Lexer) at(off int) byte {
	if l.i+off >= len(l.b) {
		return 0
	}

	return l.b[l.i+off]
}

func (l *Lexer) number() token.Kind {
	k := token.Int

	for l.i < len(l.b) && isDigit(l.b[l.i]) {
		l.i++
	}

	if l.at(0) == '.' && isDigit(l.at(1)) {
		k = token.Float
		l.i++

		for l.i < len(l.b) && isDigit(l.b[l.i]) {
			l.i++
		}
	}

	if c := l.at(0); c == 'e' || c == 'E' {
		j := 1
		if s := l.at(1); s == '+' || s == '-' {
			j++
		}

		if isDigit(l.at(j)) {
			k = token.Float
			l.i += j

			for l.i < len(l.b) && isDigit(l.b[l.i]) {
				l.i++
			}
		}
	}

	switch l.at(0) {
	case 'f', 'F', 'd', 'D':
		k = token.Float
		l.i++
	case 'l', 'L':
		if k == token.Int {
			l.i++
		}
	}

	return k
}

func (l *Lexer) quoted(q byte) (k token.Kind, err error) {
	st := l.i
	k = token.String
	if q == '\'' {
		k = token.Char
	}

	// position counters are updated by the caller for single line literals
	line, col := l.line, l.col
	lines := 0
	lastNL := -1

	for l.i++; ; l.i++ {
		if l.i >= len(l.b) {
			return k, diag.NewLexError(line, col, string(l.b[st:l.i]), "Unterminated %v literal.", k)
		}

		switch l.b[l.i] {
		case '\\':
			l.i++

			if l.at(0) == '\n' {
				lines++
				lastNL = l.i
			}
		case '\n':
			lines++
			lastNL = l.i
		case q:
			l.i++

			if lines != 0 {
				l.line += lines
				l.col = 1 - utf8.RuneCount(l.b[st:lastNL+1])
			}

			return k, nil
		}
	}
}

func (l *Lexer) operator() (k token.Kind, err error) {
	for n := min(l.maxOp, len(l.b)-l.i); n > 0; n-- {
		if k, ok := l.ops[string(l.b[l.i:l.i+n])]; ok {
			l.i += n
			return k, nil
		}
	}

	r, size := utf8.DecodeRune(l.b[l.i:])

	return 0, diag.NewLexError(l.line, l.col, string(l.b[l.i:l.i+size]), "Unexpected character %q.", r)
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
