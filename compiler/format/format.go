package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ix/compiler/ast"
	"github.com/slowlang/ix/compiler/token"
)

// Format appends the source form of the syntax tree node.
// Nested operators are parenthesized so the output parses back into the same tree.
func Format(ctx context.Context, b []byte, x ast.Node) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x ast.Node, d int) ([]byte, error) {
	switch x := x.(type) {
	case *ast.Program:
		return formatProgram(ctx, b, x, d)
	case ast.Stmt:
		return formatStmt(ctx, b, x, d)
	case ast.Expr:
		return formatExpr(ctx, b, x)
	default:
		return nil, errors.New("unsupported node: %T", x)
	}
}

func formatProgram(ctx context.Context, b []byte, x *ast.Program, d int) (_ []byte, err error) {
	if tr := tlog.SpanFromContext(ctx); tr.If("format") {
		tr.Printw("format program", "stmts", len(x.Stmts))
	}

	for i, s := range x.Stmts {
		if i != 0 && isDecl(s) {
			b = append(b, '\n')
		}

		b, err = formatStmt(ctx, b, s, d)
		if err != nil {
			return nil, errors.Wrap(err, "stmt %d", i)
		}
	}

	return b, nil
}

func isDecl(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.FuncDecl, *ast.StructDecl:
		return true
	}

	return false
}

func formatStmt(ctx context.Context, b []byte, s ast.Stmt, d int) (_ []byte, err error) {
	switch s := s.(type) {
	case *ast.Use:
		return app(b, d, "use <%s>\n", s.Path), nil
	case *ast.VarDecl:
		b = app(b, d, "%s%s %s", pub(s.Pub), declKind(s.Const), s.Name)

		if s.Type != nil {
			b = append(b, ": "...)
			b = typeRef(b, s.Type)
		}

		b = append(b, " = "...)

		b, err = formatExpr(ctx, b, s.Value)
		if err != nil {
			return nil, errors.Wrap(err, "var %v", s.Name)
		}

		return append(b, '\n'), nil
	case *ast.FuncDecl:
		return formatFunc(ctx, b, s, d, s.Pub)
	case *ast.StructDecl:
		return formatStruct(ctx, b, s, d)
	case *ast.TypeAlias:
		b = app(b, d, "%stype %s = ", pub(s.Pub), s.Name)
		b = typeRef(b, s.Type)

		return append(b, '\n'), nil
	case *ast.Case:
		return formatCase(ctx, b, s, d)
	case *ast.Block:
		b = app(b, d, "")

		b, err = formatBlock(ctx, b, s, d)
		if err != nil {
			return nil, err
		}

		return append(b, '\n'), nil
	case *ast.If:
		b = app(b, d, "")

		b, err = formatIf(ctx, b, s, d)
		if err != nil {
			return nil, err
		}

		return append(b, '\n'), nil
	case *ast.While:
		b = app(b, d, "while ")

		b, err = formatExpr(ctx, b, s.Cond)
		if err != nil {
			return nil, errors.Wrap(err, "cond")
		}

		b = append(b, ' ')

		b, err = formatBlock(ctx, b, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "body")
		}

		return append(b, '\n'), nil
	case *ast.For:
		b = app(b, d, "for %s : ", s.Var)

		b, err = formatExpr(ctx, b, s.Iter)
		if err != nil {
			return nil, errors.Wrap(err, "iterable")
		}

		b = append(b, ' ')

		b, err = formatBlock(ctx, b, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "body")
		}

		return append(b, '\n'), nil
	case *ast.Return:
		if s.Value == nil {
			return app(b, d, "return\n"), nil
		}

		b = app(b, d, "return ")

		b, err = formatExpr(ctx, b, s.Value)
		if err != nil {
			return nil, errors.Wrap(err, "return")
		}

		return append(b, '\n'), nil
	case *ast.Branch:
		return app(b, d, "%s\n", s.Tok.Kind), nil
	case *ast.ExprStmt:
		b = app(b, d, "")

		b, err = formatExpr(ctx, b, s.X)
		if err != nil {
			return nil, err
		}

		return append(b, '\n'), nil
	default:
		return nil, errors.New("unsupported stmt: %T", s)
	}
}

func formatFunc(ctx context.Context, b []byte, x *ast.FuncDecl, d int, pubKw bool) ([]byte, error) {
	b = app(b, d, "%sdef %s(", pub(pubKw), x.Name)

	for i, a := range x.Params {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = app(b, 0, "%s: ", a.Name)
		b = typeRef(b, a.Type)
	}

	b = append(b, ')')

	if x.Result != nil {
		b = append(b, ": "...)
		b = typeRef(b, x.Result)
	}

	b = append(b, ' ')

	b, err := formatBlock(ctx, b, x.Body, d)
	if err != nil {
		return nil, errors.Wrap(err, "func %v", x.Name)
	}

	return append(b, '\n'), nil
}

func formatCase(ctx context.Context, b []byte, x *ast.Case, d int) (_ []byte, err error) {
	b = app(b, d, "case ")

	b, err = formatExpr(ctx, b, x.X)
	if err != nil {
		return nil, errors.Wrap(err, "case")
	}

	b = append(b, " {\n"...)

	for _, a := range x.Arms {
		b = app(b, d+1, "")
		b = typeRef(b, a.Type)
		b = hfmt.Appendf(b, " %s => ", a.Name)

		b, err = formatBlock(ctx, b, a.Body, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "arm %v", a.Name)
		}

		b = append(b, '\n')
	}

	return app(b, d, "}\n"), nil
}

func formatStruct(ctx context.Context, b []byte, x *ast.StructDecl, d int) (_ []byte, err error) {
	b = app(b, d, "%stype %s = struct {\n", pub(x.Pub), x.Name)

	for _, f := range x.Fields {
		b = app(b, d+1, "%s: ", f.Name)
		b = typeRef(b, f.Type)
		b = append(b, '\n')
	}

	for _, m := range x.Methods {
		b = append(b, '\n')

		// methods are always public
		b, err = formatFunc(ctx, b, m, d+1, false)
		if err != nil {
			return nil, errors.Wrap(err, "struct %v", x.Name)
		}
	}

	return app(b, d, "}\n"), nil
}

// formatBlock appends braced statements. Indentation before the opening brace is up to the caller.
func formatBlock(ctx context.Context, b []byte, x *ast.Block, d int) (_ []byte, err error) {
	if len(x.Stmts) == 0 {
		return append(b, "{}"...), nil
	}

	b = append(b, "{\n"...)

	for _, s := range x.Stmts {
		b, err = formatStmt(ctx, b, s, d+1)
		if err != nil {
			return nil, err
		}
	}

	return app(b, d, "}"), nil
}

func formatIf(ctx context.Context, b []byte, x *ast.If, d int) (_ []byte, err error) {
	b = append(b, "if "...)

	b, err = formatExpr(ctx, b, x.Cond)
	if err != nil {
		return nil, errors.Wrap(err, "cond")
	}

	b = append(b, ' ')

	b, err = formatBlock(ctx, b, x.Then, d)
	if err != nil {
		return nil, errors.Wrap(err, "then block")
	}

	switch e := x.Else.(type) {
	case nil:
	case *ast.If:
		b = append(b, " else "...)
		return formatIf(ctx, b, e, d)
	case *ast.Block:
		b = append(b, " else "...)
		return formatBlock(ctx, b, e, d)
	default:
		return nil, errors.New("unsupported else: %T", e)
	}

	return b, nil
}

func formatExpr(ctx context.Context, b []byte, x ast.Expr) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Literal:
		b = append(b, x.Tok.Text...)
	case *ast.Ident:
		b = append(b, x.Name...)
	case *ast.Unary:
		b = append(b, x.Op.String()...)

		b, err = operand(ctx, b, x.X)
		if err != nil {
			return nil, err
		}
	case *ast.Postfix:
		b, err = operand(ctx, b, x.X)
		if err != nil {
			return nil, err
		}

		b = append(b, x.Op.String()...)
	case *ast.Binary:
		b, err = operand(ctx, b, x.Left)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		if x.Op == token.Range {
			b = append(b, x.Op.String()...)
		} else {
			b = app(b, 0, " %v ", x.Op)
		}

		b, err = operand(ctx, b, x.Right)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}
	case *ast.Assign:
		b, err = formatExpr(ctx, b, x.Target)
		if err != nil {
			return nil, errors.Wrap(err, "lhs")
		}

		b = app(b, 0, " %v ", x.Op)

		b, err = formatExpr(ctx, b, x.Value)
		if err != nil {
			return nil, errors.Wrap(err, "rhs")
		}
	case *ast.Call:
		if a, i, ok := index(x); ok {
			b = append(b, a.Name...)
			b = append(b, '[')

			b, err = formatExpr(ctx, b, i)
			if err != nil {
				return nil, errors.Wrap(err, "index")
			}

			return append(b, ']'), nil
		}

		b, err = operand(ctx, b, x.Callee)
		if err != nil {
			return nil, errors.Wrap(err, "callee")
		}

		b, err = exprList(ctx, b, '(', x.Args, ')')
		if err != nil {
			return nil, errors.Wrap(err, "args")
		}
	case *ast.Property:
		b, err = operand(ctx, b, x.X)
		if err != nil {
			return nil, err
		}

		b = append(b, '.')
		b = append(b, x.Name...)
	case *ast.New:
		b = append(b, "new "...)
		b = typeRef(b, x.Type)

		b, err = exprList(ctx, b, '(', x.Args, ')')
		if err != nil {
			return nil, errors.Wrap(err, "args")
		}
	case *ast.List:
		b, err = exprList(ctx, b, '[', x.Elems, ']')
		if err != nil {
			return nil, errors.Wrap(err, "list")
		}
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

// operand parenthesizes anything that binds looser than a primary expression.
func operand(ctx context.Context, b []byte, x ast.Expr) (_ []byte, err error) {
	switch x.(type) {
	case *ast.Binary, *ast.Assign, *ast.Unary, *ast.Postfix, *ast.New:
	default:
		return formatExpr(ctx, b, x)
	}

	b = append(b, '(')

	b, err = formatExpr(ctx, b, x)
	if err != nil {
		return nil, err
	}

	return append(b, ')'), nil
}

func exprList(ctx context.Context, b []byte, open byte, l []ast.Expr, close byte) (_ []byte, err error) {
	b = append(b, open)

	for i, x := range l {
		if i != 0 {
			b = append(b, ", "...)
		}

		b, err = formatExpr(ctx, b, x)
		if err != nil {
			return nil, errors.Wrap(err, "elem %d", i)
		}
	}

	return append(b, close), nil
}

// index recognizes desugared a[i].
func index(x *ast.Call) (*ast.Ident, ast.Expr, bool) {
	id, ok := x.Callee.(*ast.Ident)
	if !ok || id.Name != ast.IndexFunc || len(x.Args) != 2 {
		return nil, nil, false
	}

	a, ok := x.Args[0].(*ast.Ident)
	if !ok {
		return nil, nil, false
	}

	return a, x.Args[1], true
}

func typeRef(b []byte, t *ast.TypeRef) []byte {
	if t.Union != nil {
		for i, x := range t.Union {
			if i != 0 {
				b = append(b, " | "...)
			}

			b = typeRef(b, x)
		}

		return b
	}

	b = append(b, t.Name...)

	if t.List {
		b = append(b, "[]"...)
	}

	if t.Nullable {
		b = append(b, '?')
	}

	return b
}

func pub(p bool) string {
	if p {
		return "pub "
	}

	return ""
}

func declKind(c bool) string {
	if c {
		return "const"
	}

	return "var"
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
