package parse

import (
	"strings"

	"github.com/slowlang/ix/compiler/ast"
	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/token"
)

func (p *Parser) Stmt() (s ast.Stmt, err error) {
	tok := p.s.Peek()

	switch tok.Kind {
	case token.Use:
		p.s.Next()
		return p.use(tok)
	case token.Pub:
		p.s.Next()
		return p.pub(tok)
	case token.Type:
		p.s.Next()
		return p.typeDecl(tok, false)
	case token.Def:
		p.s.Next()
		return p.funcDecl(tok, false)
	case token.Var, token.Const:
		p.s.Next()
		return p.varDecl(tok, false)
	case token.If:
		p.s.Next()
		return p.ifStmt(tok)
	case token.While:
		p.s.Next()
		return p.whileStmt(tok)
	case token.For:
		p.s.Next()
		return p.forStmt(tok)
	case token.Case:
		p.s.Next()
		return p.caseStmt(tok)
	case token.Return:
		p.s.Next()
		return p.returnStmt(tok)
	case token.Break, token.Continue:
		p.s.Next()
		return &ast.Branch{Base: ast.Base{Tok: tok}}, nil
	case token.LBrace:
		return p.Block()
	}

	x, err := p.Expr(0)
	if err != nil {
		return nil, err
	}

	return &ast.ExprStmt{Base: ast.Base{Tok: x.Token()}, X: x}, nil
}

func (p *Parser) Block() (b *ast.Block, err error) {
	tok, err := p.Expect(token.LBrace, "Expected '{' before block.")
	if err != nil {
		return nil, err
	}

	b = &ast.Block{Base: ast.Base{Tok: tok}}

	for {
		switch p.s.Peek().Kind {
		case token.RBrace:
			p.s.Next()
			return b, nil
		case token.EOF:
			return nil, diag.NewParseError(p.s.Peek(), "Expected '}' after block.")
		}

		s, err := p.Stmt()
		if err != nil {
			return nil, err
		}

		b.Stmts = append(b.Stmts, s)
	}
}

// use parses `use <a/b>`.
func (p *Parser) use(tok token.Token) (s ast.Stmt, err error) {
	_, err = p.Expect(token.Lt, "Expected '<' at the start of use path.")
	if err != nil {
		return nil, err
	}

	var path strings.Builder

	for {
		part, err := p.Expect(token.Ident, "Expected identifier in use path.")
		if err != nil {
			return nil, err
		}

		path.WriteString(part.Text)

		if !p.match(token.Div) {
			break
		}

		path.WriteByte('/')
	}

	_, err = p.Expect(token.Gt, "Expected '>' at the end of use path.")
	if err != nil {
		return nil, err
	}

	return &ast.Use{Base: ast.Base{Tok: tok}, Path: path.String()}, nil
}

func (p *Parser) pub(tok token.Token) (s ast.Stmt, err error) {
	next := p.s.Next()

	switch next.Kind {
	case token.Def:
		return p.funcDecl(next, true)
	case token.Type:
		return p.typeDecl(next, true)
	case token.Var, token.Const:
		return p.varDecl(next, true)
	}

	return nil, diag.NewParseError(next, "Can only export struct, variable or function.")
}

// typeDecl parses `type Name = struct { fields methods }` or `type Name = a | b`.
func (p *Parser) typeDecl(tok token.Token, pub bool) (s ast.Stmt, err error) {
	name, err := p.Expect(token.Ident, "Expected type name.")
	if err != nil {
		return nil, err
	}

	_, err = p.Expect(token.Assign, "Expected assignment operator.")
	if err != nil {
		return nil, err
	}

	switch next := p.s.Peek(); next.Kind {
	case token.Struct:
		p.s.Next()
	case token.Enum:
		return nil, diag.NewParseError(next, "Enums are not supported.")
	default:
		a := &ast.TypeAlias{Base: ast.Base{Tok: name}, Pub: pub, Name: name.Text}

		a.Type, err = p.UnionRef()
		if err != nil {
			return nil, err
		}

		return a, nil
	}

	_, err = p.Expect(token.LBrace, "Expected opening curly braces before struct body.")
	if err != nil {
		return nil, err
	}

	d := &ast.StructDecl{Base: ast.Base{Tok: name}, Pub: pub, Name: name.Text}

	for !p.match(token.RBrace) {
		switch t := p.s.Next(); t.Kind {
		case token.Ident:
			f := &ast.Field{Base: ast.Base{Tok: t}, Name: t.Text}

			_, err = p.Expect(token.Colon, "Expected colon after field name.")
			if err != nil {
				return nil, err
			}

			f.Type, err = p.UnionRef()
			if err != nil {
				return nil, err
			}

			p.match(token.Comma)

			d.Fields = append(d.Fields, f)
		case token.Def:
			m, err := p.funcDecl(t, true)
			if err != nil {
				return nil, err
			}

			d.Methods = append(d.Methods, m)
		default:
			return nil, diag.NewParseError(t, "Expected field or method in struct body.")
		}
	}

	return d, nil
}

func (p *Parser) funcDecl(tok token.Token, pub bool) (f *ast.FuncDecl, err error) {
	name, err := p.Expect(token.Ident, "Expected function name.")
	if err != nil {
		return nil, err
	}

	f = &ast.FuncDecl{Base: ast.Base{Tok: name}, Pub: pub, Name: name.Text}

	_, err = p.Expect(token.LParen, "Expected opening parentheses after function name.")
	if err != nil {
		return nil, err
	}

	for p.s.Peek().Kind != token.RParen {
		pt, err := p.Expect(token.Ident, "Expected parameter name.")
		if err != nil {
			return nil, err
		}

		_, err = p.Expect(token.Colon, "Expected colon after parameter name.")
		if err != nil {
			return nil, err
		}

		typ, err := p.UnionRef()
		if err != nil {
			return nil, err
		}

		f.Params = append(f.Params, &ast.Param{Base: ast.Base{Tok: pt}, Name: pt.Text, Type: typ})

		if !p.match(token.Comma) {
			break
		}
	}

	_, err = p.Expect(token.RParen, "Expected closing parentheses after function parameters.")
	if err != nil {
		return nil, err
	}

	if p.match(token.Colon) {
		f.Result, err = p.UnionRef()
		if err != nil {
			return nil, err
		}
	}

	f.Body, err = p.Block()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func (p *Parser) varDecl(tok token.Token, pub bool) (s ast.Stmt, err error) {
	name, err := p.Expect(token.Ident, "Expected variable name.")
	if err != nil {
		return nil, err
	}

	d := &ast.VarDecl{Base: ast.Base{Tok: name}, Pub: pub, Const: tok.Kind == token.Const, Name: name.Text}

	if p.match(token.Colon) {
		d.Type, err = p.UnionRef()
		if err != nil {
			return nil, err
		}
	}

	_, err = p.Expect(token.Assign, "Expected assignment operator.")
	if err != nil {
		return nil, err
	}

	d.Value, err = p.Expr(0)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (p *Parser) ifStmt(tok token.Token) (s *ast.If, err error) {
	s = &ast.If{Base: ast.Base{Tok: tok}}

	s.Cond, err = p.Expr(0)
	if err != nil {
		return nil, err
	}

	s.Then, err = p.Block()
	if err != nil {
		return nil, err
	}

	if !p.match(token.Else) {
		return s, nil
	}

	switch next := p.s.Peek(); next.Kind {
	case token.If:
		p.s.Next()

		s.Else, err = p.ifStmt(next)
	case token.LBrace:
		s.Else, err = p.Block()
	default:
		return nil, diag.NewParseError(next, "Invalid end to if-else statement.")
	}

	if err != nil {
		return nil, err
	}

	return s, nil
}

func (p *Parser) whileStmt(tok token.Token) (s ast.Stmt, err error) {
	w := &ast.While{Base: ast.Base{Tok: tok}}

	w.Cond, err = p.Expr(0)
	if err != nil {
		return nil, err
	}

	w.Body, err = p.Block()
	if err != nil {
		return nil, err
	}

	return w, nil
}

// forStmt parses `for x : iter { }`.
func (p *Parser) forStmt(tok token.Token) (s ast.Stmt, err error) {
	name, err := p.Expect(token.Ident, "Need iterator variable name.")
	if err != nil {
		return nil, err
	}

	_, err = p.Expect(token.Colon, "Expected ':' operator.")
	if err != nil {
		return nil, err
	}

	f := &ast.For{Base: ast.Base{Tok: tok}, Var: name.Text}

	f.Iter, err = p.Expr(0)
	if err != nil {
		return nil, err
	}

	f.Body, err = p.Block()
	if err != nil {
		return nil, err
	}

	return f, nil
}

// caseStmt parses `case x { Type name => body ... }`.
// Body is a block or a single statement.
func (p *Parser) caseStmt(tok token.Token) (s ast.Stmt, err error) {
	c := &ast.Case{Base: ast.Base{Tok: tok}}

	c.X, err = p.Expr(0)
	if err != nil {
		return nil, err
	}

	_, err = p.Expect(token.LBrace, "Expected opening curly braces before case body.")
	if err != nil {
		return nil, err
	}

	for !p.match(token.RBrace) {
		if next := p.s.Peek(); next.Kind == token.EOF {
			return nil, diag.NewParseError(next, "Expected closing curly braces after case body.")
		}

		a := &ast.CaseArm{}

		a.Type, err = p.TypeRef()
		if err != nil {
			return nil, err
		}

		name, err := p.Expect(token.Ident, "Expected name for reified value before `=>` in case statement.")
		if err != nil {
			return nil, err
		}

		a.Base = ast.Base{Tok: name}
		a.Name = name.Text

		_, err = p.Expect(token.Arrow, "Expected `=>` after type before expression in case statement.")
		if err != nil {
			return nil, err
		}

		body, err := p.Stmt()
		if err != nil {
			return nil, err
		}

		if b, ok := body.(*ast.Block); ok {
			a.Body = b
		} else {
			a.Body = &ast.Block{Base: ast.Base{Tok: body.Token()}, Stmts: []ast.Stmt{body}}
		}

		c.Arms = append(c.Arms, a)
	}

	return c, nil
}

// returnStmt takes a value only if it starts on the same line.
func (p *Parser) returnStmt(tok token.Token) (s ast.Stmt, err error) {
	r := &ast.Return{Base: ast.Base{Tok: tok}}

	next := p.s.Peek()
	if next.Kind == token.RBrace || next.Kind == token.EOF || next.Line != tok.Line {
		return r, nil
	}

	r.Value, err = p.Expr(0)
	if err != nil {
		return nil, err
	}

	return r, nil
}
