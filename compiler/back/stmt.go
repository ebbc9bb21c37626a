package back

import (
	"strings"

	"github.com/slowlang/ix/compiler/asm"
	"github.com/slowlang/ix/compiler/ast"
	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/token"
	"github.com/slowlang/ix/compiler/tp"
)

var iterator = tp.External{Name: "java/util/Iterator"}

// stmts emits statements until the end of the list or unreachable code.
func (g *gen) stmts(l []ast.Stmt) error {
	for _, s := range l {
		if !g.code.Reachable() {
			break
		}

		err := g.stmt(s)
		if err != nil {
			return err
		}
	}

	return nil
}

func (g *gen) stmt(s ast.Stmt) (err error) {
	switch s := s.(type) {
	case *ast.ExprStmt:
		if g.isConstant(s.X) {
			// nothing to evaluate, the value is dropped
			return nil
		}

		_, err = g.visit(s.X, true)
		return err
	case *ast.VarDecl:
		return g.varDecl(s)
	case *ast.Block:
		g.ctx.Push()
		defer g.ctx.Pop()

		return g.stmts(s.Stmts)
	case *ast.If:
		return g.ifStmt(s)
	case *ast.While:
		return g.whileStmt(s)
	case *ast.For:
		if r, ok := s.Iter.(*ast.Binary); ok && r.Op == token.Range {
			return g.forRange(s, r)
		}

		return g.forEach(s)
	case *ast.Case:
		return g.caseStmt(s)
	case *ast.Return:
		return g.returnStmt(s)
	case *ast.Branch:
		if len(g.loops) == 0 {
			return diag.Compile(s.Tok, "'%s' outside of loop.", s.Tok.Text)
		}

		l := g.loops[len(g.loops)-1]

		if s.Tok.Kind == token.Break {
			g.code.Jump(asm.GOTO, l.brk)
		} else {
			g.code.Jump(asm.GOTO, l.cont)
		}

		return nil
	case *ast.FuncDecl, *ast.StructDecl, *ast.TypeAlias, *ast.Use:
		return diag.Compile(s.Token(), "Declarations are only allowed at top level.")
	}

	return diag.Compile(tokOf(s), "Unexpected statement.")
}

func (g *gen) varDecl(d *ast.VarDecl) (err error) {
	var t tp.Type

	if d.Type != nil {
		t, err = g.typeRef(d.Type)
		if err != nil {
			return err
		}

		if tp.IsVoid(t) {
			return diag.Compile(d.Tok, "Variable '%s' cannot be void.", d.Name)
		}
	}

	vt, err := g.visit(d.Value, false)
	if err != nil {
		return err
	}

	switch {
	case t != nil && !tp.Assignable(t, vt):
		return diag.Compile(d.Tok, "Cannot assign '%s' to '%s'.", typeName(vt), typeName(t))
	case t != nil:
	case tp.IsVoid(vt):
		return diag.Compile(d.Tok, "Cannot assign 'void' to '%s'.", d.Name)
	case tp.Equal(vt, tp.Null):
		t = tp.Object
	default:
		t = vt
	}

	err = g.convert(vt, t)
	if err != nil {
		return err
	}

	v, err := g.declareVar(d.Tok, d.Name, t, d.Const)
	if err != nil {
		return err
	}

	return g.store(v)
}

func (g *gen) ifStmt(s *ast.If) (err error) {
	els := g.code.NewLabel()

	err = g.cond(s.Cond, els, false)
	if err != nil {
		return err
	}

	err = g.stmt(s.Then)
	if err != nil {
		return err
	}

	if s.Else == nil {
		g.code.Bind(els)
		return nil
	}

	end := g.code.NewLabel()

	if g.code.Reachable() {
		g.code.Jump(asm.GOTO, end)
	}

	g.code.Bind(els)

	err = g.stmt(s.Else)
	if err != nil {
		return err
	}

	g.code.Bind(end)

	return nil
}

func (g *gen) whileStmt(s *ast.While) (err error) {
	top := g.code.NewLabel()
	end := g.code.NewLabel()

	g.code.Bind(top)

	err = g.cond(s.Cond, end, false)
	if err != nil {
		return err
	}

	err = g.loop(s.Body, end, top)
	if err != nil {
		return err
	}

	if g.code.Reachable() {
		g.code.Jump(asm.GOTO, top)
	}

	g.code.Bind(end)

	return nil
}

func (g *gen) loop(body *ast.Block, brk, cont asm.Label) error {
	g.loops = append(g.loops, loop{brk: brk, cont: cont})
	defer func() {
		g.loops = g.loops[:len(g.loops)-1]
	}()

	return g.stmt(body)
}

// forRange counts from start up to end exclusive.
// The end is evaluated once.
func (g *gen) forRange(s *ast.For, r *ast.Binary) (err error) {
	g.ctx.Push()
	defer g.ctx.Pop()

	bound := func(x ast.Expr) error {
		t, err := g.visit(x, false)
		if err != nil {
			return err
		}

		if !tp.Assignable(tp.Int, t) {
			return diag.Compile(tokOf(x), "Range bound must be of type 'int', got '%s'.", typeName(t))
		}

		return g.convert(t, tp.Int)
	}

	if err = bound(r.Left); err != nil {
		return err
	}

	i, err := g.declareVar(s.Tok, s.Var, tp.Int, false)
	if err != nil {
		return err
	}

	g.code.Store(tp.Int, i.Slot)

	if err = bound(r.Right); err != nil {
		return err
	}

	end := g.ctx.Frame.Alloc(tp.Int)
	g.code.Store(tp.Int, end)

	top := g.code.NewLabel()
	cont := g.code.NewLabel()
	brk := g.code.NewLabel()

	g.code.Bind(top)
	g.code.Load(tp.Int, i.Slot)
	g.code.Load(tp.Int, end)
	g.code.Jump(asm.IF_ICMPGE, brk)

	err = g.loop(s.Body, brk, cont)
	if err != nil {
		return err
	}

	g.code.Bind(cont)

	if g.code.Reachable() {
		g.code.Inc(i.Slot, 1)
		g.code.Jump(asm.GOTO, top)
	}

	g.code.Bind(brk)

	return nil
}

// forEach iterates over a java/lang/Iterable. Elements are objects.
func (g *gen) forEach(s *ast.For) (err error) {
	g.ctx.Push()
	defer g.ctx.Pop()

	t, err := g.visit(s.Iter, false)
	if err != nil {
		return err
	}

	if !tp.IsReference(t) || tp.IsString(t) || tp.Equal(t, tp.Null) {
		return diag.Compile(tokOf(s.Iter), "Cannot iterate over '%s'.", typeName(t))
	}

	err = g.code.Invoke(asm.INVOKEINTERFACE, asm.Ref{Class: tp.Iterable.Name, Name: "iterator", Desc: "()" + iterator.Descriptor()})
	if err != nil {
		return err
	}

	x, err := g.declareVar(s.Tok, s.Var, tp.Object, false)
	if err != nil {
		return err
	}

	it := g.ctx.Frame.Alloc(iterator)
	g.code.Store(iterator, it)

	top := g.code.NewLabel()
	brk := g.code.NewLabel()

	g.code.Bind(top)
	g.code.Load(iterator, it)

	err = g.code.Invoke(asm.INVOKEINTERFACE, asm.Ref{Class: iterator.Name, Name: "hasNext", Desc: "()Z"})
	if err != nil {
		return err
	}

	g.code.Jump(asm.IFEQ, brk)
	g.code.Load(iterator, it)

	err = g.code.Invoke(asm.INVOKEINTERFACE, asm.Ref{Class: iterator.Name, Name: "next", Desc: "()" + tp.Object.Descriptor()})
	if err != nil {
		return err
	}

	g.code.Store(tp.Object, x.Slot)

	err = g.loop(s.Body, brk, top)
	if err != nil {
		return err
	}

	if g.code.Reachable() {
		g.code.Jump(asm.GOTO, top)
	}

	g.code.Bind(brk)

	return nil
}

func (g *gen) returnStmt(s *ast.Return) (err error) {
	if !g.inFunc {
		return diag.Compile(s.Tok, "Cannot return outside of a function.")
	}

	res := g.ctx.Frame.Result

	if s.Value == nil {
		if !tp.IsVoid(res) {
			return diag.Compile(s.Tok, "Non-void function must return a value.")
		}

		g.code.Return(tp.Void)

		return nil
	}

	if tp.IsVoid(res) {
		return diag.Compile(s.Tok, "Cannot return a value from a void function.")
	}

	t, err := g.visit(s.Value, false)
	if err != nil {
		return err
	}

	if !tp.Assignable(res, t) {
		return diag.Compile(s.Tok, "Cannot return '%s' from a function returning '%s'.", typeName(t), typeName(res))
	}

	err = g.convert(t, res)
	if err != nil {
		return err
	}

	g.code.Return(res)

	return nil
}

// caseStmt runs the first arm whose type the value is an instance of.
// Every type of the union must have an arm.
func (g *gen) caseStmt(s *ast.Case) (err error) {
	t, err := g.returnType(s.X)
	if err != nil {
		return err
	}

	if n, ok := t.(tp.Nullable); ok && n.Of != nil {
		t = n.Of
	}

	u, ok := t.(tp.Union)
	if !ok {
		return diag.Compile(tokOf(s.X), "Case expression must be of a union type, got '%s'.", typeName(t))
	}

	arms := make([]tp.Type, len(s.Arms))

	for i, a := range s.Arms {
		at, err := g.typeRef(a.Type)
		if err != nil {
			return err
		}

		if !u.Has(at) {
			return diag.Compile(a.Type.Tok, "Type '%s' is not part of '%s'.", typeName(at), u)
		}

		for _, prev := range arms[:i] {
			if tp.Equal(prev, at) {
				return diag.Compile(a.Type.Tok, "Duplicate case for type '%s'.", typeName(at))
			}
		}

		arms[i] = at
	}

	var missing []string

	for _, m := range u.Types {
		covered := false

		for _, at := range arms {
			covered = covered || tp.Equal(at, m)
		}

		if !covered {
			missing = append(missing, typeName(m))
		}
	}

	if missing != nil {
		return diag.Compile(s.Tok, "Not all entries in UnionType `%s` are covered by this match statement. Add cases for %s.", u, conjunction(missing))
	}

	g.ctx.Push()
	defer g.ctx.Pop()

	_, err = g.visit(s.X, false)
	if err != nil {
		return err
	}

	val := g.ctx.Frame.Alloc(tp.Object)
	g.code.Store(tp.Object, val)

	end := g.code.NewLabel()

	for i, a := range s.Arms {
		next := g.code.NewLabel()
		class := instanceClass(arms[i])

		g.code.Load(tp.Object, val)
		g.code.Type(asm.INSTANCEOF, class)
		g.code.Jump(asm.IFEQ, next)

		err = g.arm(a, arms[i], val, class)
		if err != nil {
			return err
		}

		if g.code.Reachable() {
			g.code.Jump(asm.GOTO, end)
		}

		g.code.Bind(next)
	}

	g.code.Bind(end)

	return nil
}

func (g *gen) arm(a *ast.CaseArm, t tp.Type, val int, class string) (err error) {
	g.ctx.Push()
	defer g.ctx.Pop()

	g.code.Load(tp.Object, val)
	g.code.Type(asm.CHECKCAST, class)

	if p, ok := t.(tp.Primitive); ok {
		err = g.unbox(p)
		if err != nil {
			return err
		}
	}

	v, err := g.declareVar(a.Tok, a.Name, t, false)
	if err != nil {
		return err
	}

	err = g.store(v)
	if err != nil {
		return err
	}

	return g.stmts(a.Body.Stmts)
}

// instanceClass is the class values of type t have at runtime.
func instanceClass(t tp.Type) string {
	switch t := t.(type) {
	case tp.Primitive:
		return t.Wrapper().Name
	case tp.Nullable:
		if t.Of != nil {
			return instanceClass(t.Of)
		}
	case tp.External:
		return t.Name
	}

	return tp.Object.Name
}

// conjunction joins names as "a, b and c".
func conjunction(l []string) string {
	if len(l) == 1 {
		return l[0]
	}

	return strings.Join(l[:len(l)-1], ", ") + " and " + l[len(l)-1]
}
