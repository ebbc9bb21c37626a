package parse

import (
	"github.com/slowlang/ix/compiler/ast"
	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/token"
)

// Precedence levels, lowest first.
const (
	_ = iota
	Assignment
	Or
	And
	Xor
	Comparison
	Sum
	Product
	Exponent
	Prefix
	Postfix
	Primary
)

type (
	PrefixParselet interface {
		Parse(p *Parser, tok token.Token) (ast.Expr, error)
	}

	InfixParselet interface {
		Parse(p *Parser, left ast.Expr, tok token.Token) (ast.Expr, error)
		Precedence() int
	}

	literalParselet struct{}
	identParselet   struct{}
	groupParselet   struct{}
	listParselet    struct{}
	newParselet     struct{}

	prefixOperator struct {
		prec int
	}

	binaryOperator struct {
		prec  int
		right bool
	}

	postfixOperator struct {
		prec int
	}

	assignParselet   struct{}
	indexParselet    struct{}
	callParselet     struct{}
	propertyParselet struct{}
)

func (p *Parser) registerDefaults() {
	for _, k := range []token.Kind{token.Int, token.Float, token.Char, token.String, token.True, token.False, token.Null} {
		p.Prefix(k, literalParselet{})
	}

	p.Prefix(token.Ident, identParselet{})
	p.Prefix(token.LParen, groupParselet{})
	p.Prefix(token.LBrack, listParselet{})
	p.Prefix(token.New, newParselet{})

	for _, k := range []token.Kind{token.Add, token.Sub, token.Mod, token.Not} {
		p.Prefix(k, prefixOperator{prec: Prefix})
	}

	for _, k := range []token.Kind{token.Assign, token.AddAssign, token.SubAssign, token.MulAssign, token.DivAssign, token.ModAssign} {
		p.Infix(k, assignParselet{})
	}

	p.Infix(token.Dot, propertyParselet{})
	p.Infix(token.LBrack, indexParselet{})
	p.Infix(token.LParen, callParselet{})

	p.infixLeft(Sum, token.Add, token.Sub, token.Mod)
	p.infixLeft(Product, token.Mul, token.Div)
	p.Infix(token.Pow, binaryOperator{prec: Exponent, right: true})

	p.infixLeft(Comparison, token.Range, token.Eq, token.Ne, token.Lt, token.Gt, token.Le, token.Ge)
	p.infixLeft(And, token.And)
	p.infixLeft(Or, token.Or)
	p.infixLeft(Xor, token.Xor)

	p.Infix(token.Inc, postfixOperator{prec: Postfix})
	p.Infix(token.Dec, postfixOperator{prec: Postfix})
}

func (p *Parser) infixLeft(prec int, ks ...token.Kind) {
	for _, k := range ks {
		p.Infix(k, binaryOperator{prec: prec})
	}
}

func (literalParselet) Parse(p *Parser, tok token.Token) (ast.Expr, error) {
	return &ast.Literal{Base: ast.Base{Tok: tok}}, nil
}

func (identParselet) Parse(p *Parser, tok token.Token) (ast.Expr, error) {
	return &ast.Ident{Base: ast.Base{Tok: tok}, Name: tok.Text}, nil
}

func (groupParselet) Parse(p *Parser, tok token.Token) (x ast.Expr, err error) {
	x, err = p.Expr(0)
	if err != nil {
		return nil, err
	}

	_, err = p.Expect(token.RParen, "Expected ')' after expression.")
	if err != nil {
		return nil, err
	}

	return x, nil
}

func (listParselet) Parse(p *Parser, tok token.Token) (x ast.Expr, err error) {
	l := &ast.List{Base: ast.Base{Tok: tok}}

	l.Elems, err = p.exprList(token.RBrack, "Expected ']' after list elements.")
	if err != nil {
		return nil, err
	}

	return l, nil
}

func (newParselet) Parse(p *Parser, tok token.Token) (x ast.Expr, err error) {
	n := &ast.New{Base: ast.Base{Tok: tok}}

	n.Type, err = p.TypeRef()
	if err != nil {
		return nil, err
	}

	_, err = p.Expect(token.LParen, "Expected '(' after type in new expression.")
	if err != nil {
		return nil, err
	}

	n.Args, err = p.exprList(token.RParen, "Expected ')' after arguments.")
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (op prefixOperator) Parse(p *Parser, tok token.Token) (x ast.Expr, err error) {
	x, err = p.Expr(op.prec)
	if err != nil {
		return nil, err
	}

	return &ast.Unary{Base: ast.Base{Tok: tok}, Op: tok.Kind, X: x}, nil
}

func (op binaryOperator) Parse(p *Parser, left ast.Expr, tok token.Token) (x ast.Expr, err error) {
	prec := op.prec
	if op.right {
		prec--
	}

	right, err := p.Expr(prec)
	if err != nil {
		return nil, err
	}

	return &ast.Binary{Base: ast.Base{Tok: tok}, Op: tok.Kind, Left: left, Right: right}, nil
}

func (op binaryOperator) Precedence() int { return op.prec }

func (op postfixOperator) Parse(p *Parser, left ast.Expr, tok token.Token) (ast.Expr, error) {
	return &ast.Postfix{Base: ast.Base{Tok: tok}, Op: tok.Kind, X: left}, nil
}

func (op postfixOperator) Precedence() int { return op.prec }

func (assignParselet) Parse(p *Parser, left ast.Expr, tok token.Token) (x ast.Expr, err error) {
	right, err := p.Expr(Assignment - 1)
	if err != nil {
		return nil, err
	}

	return &ast.Assign{Base: ast.Base{Tok: tok}, Op: tok.Kind, Target: left, Value: right}, nil
}

func (assignParselet) Precedence() int { return Assignment }

// Parse desugars a[i] into at(a, i).
func (indexParselet) Parse(p *Parser, left ast.Expr, tok token.Token) (x ast.Expr, err error) {
	id, ok := left.(*ast.Ident)
	if !ok {
		return nil, diag.NewParseError(tok, "Index access requires an identifier on the left side.")
	}

	if p.s.Peek().Kind == token.EOF {
		return nil, diag.NewParseError(p.s.Peek(), "Expected ']' after index access.")
	}

	idx, err := p.Expr(0)
	if err != nil {
		return nil, err
	}

	_, err = p.Expect(token.RBrack, "Expected ']' after index access.")
	if err != nil {
		return nil, err
	}

	callee := &ast.Ident{
		Base: ast.Base{Tok: token.Token{Kind: token.Ident, Text: ast.IndexFunc, Line: tok.Line, Col: tok.Col}},
		Name: ast.IndexFunc,
	}

	return &ast.Call{Base: ast.Base{Tok: id.Tok}, Callee: callee, Args: []ast.Expr{id, idx}}, nil
}

func (indexParselet) Precedence() int { return Postfix }

func (callParselet) Parse(p *Parser, left ast.Expr, tok token.Token) (x ast.Expr, err error) {
	c := &ast.Call{Base: ast.Base{Tok: left.Token()}, Callee: left}

	c.Args, err = p.exprList(token.RParen, "Expected ')' after arguments.")
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (callParselet) Precedence() int { return Primary }

func (propertyParselet) Parse(p *Parser, left ast.Expr, tok token.Token) (x ast.Expr, err error) {
	name, err := p.Expect(token.Ident, "Expected property name after '.'.")
	if err != nil {
		return nil, err
	}

	return &ast.Property{Base: ast.Base{Tok: name}, X: left, Name: name.Text}, nil
}

func (propertyParselet) Precedence() int { return Primary }

// exprList parses comma separated expressions up to the end token.
// Trailing comma is allowed.
func (p *Parser) exprList(end token.Kind, msg string) (l []ast.Expr, err error) {
	for k := p.s.Peek().Kind; k != end && k != token.EOF; k = p.s.Peek().Kind {
		x, err := p.Expr(0)
		if err != nil {
			return nil, err
		}

		l = append(l, x)

		if p.s.Peek().Kind != token.Comma {
			break
		}

		p.s.Next()
	}

	_, err = p.Expect(end, msg)
	if err != nil {
		return nil, err
	}

	return l, nil
}
