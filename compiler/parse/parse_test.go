package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ix/compiler/ast"
	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/token"
)

func parseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()

	x, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Len(t, x.Stmts, 1)

	es, ok := x.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok, "%T", x.Stmts[0])

	return es.X
}

// sexpr prints an expression in prefix form to compare trees.
func sexpr(x ast.Expr) string {
	switch x := x.(type) {
	case *ast.Literal:
		return x.Tok.Text
	case *ast.Ident:
		return x.Name
	case *ast.Unary:
		return "(" + x.Op.String() + " " + sexpr(x.X) + ")"
	case *ast.Postfix:
		return "(" + sexpr(x.X) + " " + x.Op.String() + ")"
	case *ast.Binary:
		return "(" + x.Op.String() + " " + sexpr(x.Left) + " " + sexpr(x.Right) + ")"
	case *ast.Assign:
		return "(" + x.Op.String() + " " + sexpr(x.Target) + " " + sexpr(x.Value) + ")"
	case *ast.Property:
		return "(. " + sexpr(x.X) + " " + x.Name + ")"
	case *ast.Call:
		s := "(call " + sexpr(x.Callee)
		for _, a := range x.Args {
			s += " " + sexpr(a)
		}
		return s + ")"
	case *ast.List:
		s := "[list"
		for _, a := range x.Elems {
			s += " " + sexpr(a)
		}
		return s + "]"
	case *ast.New:
		s := "(new " + x.Type.Name
		for _, a := range x.Args {
			s += " " + sexpr(a)
		}
		return s + ")"
	}

	return "?"
}

func TestPrecedence(t *testing.T) {
	for _, tc := range []struct{ src, exp string }{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"1 * 2 + 3", "(+ (* 1 2) 3)"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"2 ** 3 ** 2", "(** 2 (** 3 2))"},
		{"a = b = c", "(= a (= b c))"},
		{"a += 1 + 2", "(+= a (+ 1 2))"},
		{"-a * b", "(* (- a) b)"},
		{"!a && b || c", "(|| (&& (! a) b) c)"},
		{"a < b == c", "(== (< a b) c)"},
		{"a ^ b || c", "(|| (^ a b) c)"},
		{"i++ + 1", "(+ (i ++) 1)"},
		{"1..n", "(.. 1 n)"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"p.x.y", "(. (. p x) y)"},
		{"p.sum(1)", "(call (. p sum) 1)"},
		{"f(a, b,)", "(call f a b)"},
		{"f()", "(call f)"},
		{"[1, 2, 3]", "[list 1 2 3]"},
		{"new Point(1, 2)", "(new Point 1 2)"},
		{"-a[i]", "(- (call at a i))"},
		{"a[i + 1]", "(call at a (+ i 1))"},
	} {
		x := parseExpr(t, tc.src)
		assert.Equal(t, tc.exp, sexpr(x), "src: %s", tc.src)
	}
}

func TestIndexDesugar(t *testing.T) {
	x := parseExpr(t, "arr[k]")

	c, ok := x.(*ast.Call)
	require.True(t, ok, "%T", x)

	callee, ok := c.Callee.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, ast.IndexFunc, callee.Name)

	require.Len(t, c.Args, 2)
	assert.Equal(t, "arr", c.Args[0].(*ast.Ident).Name)
	assert.Equal(t, "k", c.Args[1].(*ast.Ident).Name)
}

func TestIndexNonIdent(t *testing.T) {
	_, err := Parse(context.Background(), []byte("f()[1]"))

	var pe *diag.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, token.LBrack, pe.Tok.Kind)
}

func TestTwoStatements(t *testing.T) {
	x, err := Parse(context.Background(), []byte("x = 5 x = x + 1"))
	require.NoError(t, err)
	require.Len(t, x.Stmts, 2)

	for _, s := range x.Stmts {
		es := s.(*ast.ExprStmt)
		_, ok := es.X.(*ast.Assign)
		assert.True(t, ok)
	}
}

func TestEmpty(t *testing.T) {
	x, err := Parse(context.Background(), []byte("  // nothing\n"))
	require.NoError(t, err)
	assert.Empty(t, x.Stmts)
}

func TestStatements(t *testing.T) {
	src := `
use <prelude>

type Point = struct {
	x: int,
	y: int
	def sum(): int { return x + y }
}

pub def add(a: int, b: int): int {
	return a + b
}

const limit: long = 10
var names: string[]? = null

def main() {
	var p = new Point(1, 2)
	if p.x > 0 {
		println(p.sum())
	} else if p.y > 0 {
		return
	} else {
		print("none")
	}

	while limit > 0 { break }

	for i : 0..10 {
		continue
	}
}
`

	x, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Len(t, x.Stmts, 6)

	u := x.Stmts[0].(*ast.Use)
	assert.Equal(t, "prelude", u.Path)

	st := x.Stmts[1].(*ast.StructDecl)
	assert.Equal(t, "Point", st.Name)
	require.Len(t, st.Fields, 2)
	require.Len(t, st.Methods, 1)
	assert.Equal(t, "sum", st.Methods[0].Name)

	add := x.Stmts[2].(*ast.FuncDecl)
	assert.True(t, add.Pub)
	assert.Len(t, add.Params, 2)
	assert.Equal(t, "int", add.Result.Name)

	lim := x.Stmts[3].(*ast.VarDecl)
	assert.True(t, lim.Const)
	assert.Equal(t, "long", lim.Type.Name)

	names := x.Stmts[4].(*ast.VarDecl)
	assert.True(t, names.Type.List)
	assert.True(t, names.Type.Nullable)

	main := x.Stmts[5].(*ast.FuncDecl)
	require.Len(t, main.Body.Stmts, 4)

	iff := main.Body.Stmts[1].(*ast.If)
	elif := iff.Else.(*ast.If)
	assert.IsType(t, &ast.Block{}, elif.Else)

	ret := elif.Then.Stmts[0].(*ast.Return)
	assert.Nil(t, ret.Value)

	f := main.Body.Stmts[3].(*ast.For)
	assert.Equal(t, "i", f.Var)
}

func TestUnionAndCase(t *testing.T) {
	src := `
pub type Val = int | string? | Point[]
def f(v: int | string): long | double { return 1 }
case f(1) {
	long l => println(l)
	double d => {
		return
	}
}
`

	x, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Len(t, x.Stmts, 3)

	a := x.Stmts[0].(*ast.TypeAlias)
	assert.True(t, a.Pub)
	assert.Equal(t, "Val", a.Name)
	require.Len(t, a.Type.Union, 3)
	assert.Equal(t, "int", a.Type.Union[0].Name)
	assert.True(t, a.Type.Union[1].Nullable)
	assert.True(t, a.Type.Union[2].List)

	f := x.Stmts[1].(*ast.FuncDecl)
	assert.Len(t, f.Params[0].Type.Union, 2)
	assert.Len(t, f.Result.Union, 2)

	c := x.Stmts[2].(*ast.Case)
	assert.Equal(t, "(call f 1)", sexpr(c.X))
	require.Len(t, c.Arms, 2)

	assert.Equal(t, "l", c.Arms[0].Name)
	assert.Equal(t, "long", c.Arms[0].Type.Name)
	require.Len(t, c.Arms[0].Body.Stmts, 1)
	assert.IsType(t, &ast.ExprStmt{}, c.Arms[0].Body.Stmts[0])

	assert.Equal(t, "d", c.Arms[1].Name)
	assert.IsType(t, &ast.Return{}, c.Arms[1].Body.Stmts[0])
}

func TestReturnSameLine(t *testing.T) {
	x, err := Parse(context.Background(), []byte("def f() {\n\treturn\n\tg()\n}"))
	require.NoError(t, err)

	f := x.Stmts[0].(*ast.FuncDecl)
	require.Len(t, f.Body.Stmts, 2)
	assert.Nil(t, f.Body.Stmts[0].(*ast.Return).Value)
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		src  string
		msg  string
		text string
	}{
		{"a[1", "Expected ']' after index access.", ""},
		{"f(1, 2", "Expected ')' after arguments.", ""},
		{"def (", "Expected function name.", "("},
		{"var = 1", "Expected variable name.", "="},
		{"* 3", "Could not parse.", "*"},
		{"if x { y", "Expected '}' after block.", ""},
		{"pub if", "Can only export struct, variable or function.", "if"},
		{"use <a b>", "Expected '>' at the end of use path.", "b"},
		{"f(", "Expected ')' after arguments.", ""},
		{"f(1,", "Expected ')' after arguments.", ""},
		{"a[", "Expected ']' after index access.", ""},
		{"[1, 2,", "Expected ']' after list elements.", ""},
		{"new P(", "Expected ')' after arguments.", ""},
		{"type T = enum { A }", "Enums are not supported.", "enum"},
		{"type T = int |", "Expected type name.", ""},
		{"case x int", "Expected opening curly braces before case body.", "int"},
		{"case x { int => 1 }", "Expected name for reified value before `=>` in case statement.", "=>"},
		{"case x { int i 1 }", "Expected `=>` after type before expression in case statement.", "1"},
		{"case x { int i => 1", "Expected closing curly braces after case body.", ""},
	} {
		_, err := Parse(context.Background(), []byte(tc.src))

		var pe *diag.ParseError
		require.ErrorAs(t, err, &pe, "src: %s", tc.src)
		assert.Equal(t, tc.msg, pe.Msg, "src: %s", tc.src)
		assert.Equal(t, tc.text, pe.Tok.Text, "src: %s", tc.src)
	}
}

func TestCustomParselet(t *testing.T) {
	ctx := context.Background()

	s := token.NewStream(
		token.Token{Kind: token.Ident, Text: "a", Line: 1, Col: 1},
		token.Token{Kind: token.Pipe, Text: "|", Line: 1, Col: 3},
		token.Token{Kind: token.Ident, Text: "b", Line: 1, Col: 5},
		token.Token{Kind: token.EOF, Line: 1, Col: 6},
	)

	p := New(s)
	p.Infix(token.Pipe, binaryOperator{prec: Or})

	x, err := p.Parse(ctx)
	require.NoError(t, err)
	assert.Equal(t, "(| a b)", sexpr(x.Stmts[0].(*ast.ExprStmt).X))
}
