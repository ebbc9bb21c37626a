package parse

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ix/compiler/ast"
	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/lex"
	"github.com/slowlang/ix/compiler/token"
)

type (
	Parser struct {
		s *token.Stream

		prefix map[token.Kind]PrefixParselet
		infix  map[token.Kind]InfixParselet
	}
)

func ParseFile(ctx context.Context, name string) (*ast.Program, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, data)
}

// Parse lexes and parses the source.
func Parse(ctx context.Context, text []byte) (x *ast.Program, err error) {
	s, err := lex.Lex(ctx, text)
	if err != nil {
		return nil, err
	}

	return New(s).Parse(ctx)
}

func New(s *token.Stream) *Parser {
	p := &Parser{
		s:      s,
		prefix: map[token.Kind]PrefixParselet{},
		infix:  map[token.Kind]InfixParselet{},
	}

	p.registerDefaults()

	return p
}

// Prefix registers a parselet for tokens starting an expression.
func (p *Parser) Prefix(k token.Kind, x PrefixParselet) { p.prefix[k] = x }

// Infix registers a parselet for tokens continuing an expression.
func (p *Parser) Infix(k token.Kind, x InfixParselet) { p.infix[k] = x }

// Parse parses the whole stream. The first syntax error aborts parsing.
func (p *Parser) Parse(ctx context.Context) (x *ast.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "tokens", p.s.Len())
	defer tr.Finish("err", &err)

	x = &ast.Program{Base: ast.Base{Tok: p.s.Peek()}}

	for p.s.Peek().Kind != token.EOF {
		s, err := p.Stmt()
		if err != nil {
			return nil, err
		}

		x.Stmts = append(x.Stmts, s)
	}

	if tr.If("ast") {
		tr.Printw("ast", "stmts", len(x.Stmts), "prog", x)
	}

	return x, nil
}

// Expr parses expression with all operators binding tighter than prec.
func (p *Parser) Expr(prec int) (x ast.Expr, err error) {
	tok := p.s.Next()

	pre, ok := p.prefix[tok.Kind]
	if !ok {
		return nil, diag.NewParseError(tok, "Could not parse.")
	}

	x, err = pre.Parse(p, tok)
	if err != nil {
		return nil, err
	}

	for prec < p.precedence() {
		tok = p.s.Next()

		x, err = p.infix[tok.Kind].Parse(p, x, tok)
		if err != nil {
			return nil, err
		}
	}

	return x, nil
}

func (p *Parser) precedence() int {
	if in, ok := p.infix[p.s.Peek().Kind]; ok {
		return in.Precedence()
	}

	return 0
}

// Expect consumes the token of kind k or fails with msg at the actual token.
func (p *Parser) Expect(k token.Kind, msg string) (token.Token, error) {
	tok := p.s.Peek()
	if tok.Kind != k {
		return tok, diag.NewParseError(tok, "%s", msg)
	}

	return p.s.Next(), nil
}

func (p *Parser) match(k token.Kind) bool {
	if p.s.Peek().Kind != k {
		return false
	}

	p.s.Next()

	return true
}

// TypeRef parses Name{.Name}[[]][?].
func (p *Parser) TypeRef() (t *ast.TypeRef, err error) {
	tok, err := p.Expect(token.Ident, "Expected type name.")
	if err != nil {
		return nil, err
	}

	t = &ast.TypeRef{Base: ast.Base{Tok: tok}, Name: tok.Text}

	for p.match(token.Dot) {
		part, err := p.Expect(token.Ident, "Expected type name after '.'.")
		if err != nil {
			return nil, err
		}

		t.Name += "." + part.Text
	}

	if p.match(token.LBrack) {
		_, err = p.Expect(token.RBrack, "Expected ']' in list type.")
		if err != nil {
			return nil, err
		}

		t.List = true
	}

	t.Nullable = p.match(token.Question)

	return t, nil
}

// UnionRef parses TypeRef{| TypeRef}.
func (p *Parser) UnionRef() (t *ast.TypeRef, err error) {
	t, err = p.TypeRef()
	if err != nil || p.s.Peek().Kind != token.Pipe {
		return t, err
	}

	u := &ast.TypeRef{Base: t.Base, Union: []*ast.TypeRef{t}}

	for p.match(token.Pipe) {
		t, err = p.TypeRef()
		if err != nil {
			return nil, err
		}

		u.Union = append(u.Union, t)
	}

	return u, nil
}
