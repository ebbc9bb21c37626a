package back

import (
	"github.com/slowlang/ix/compiler/asm"
	"github.com/slowlang/ix/compiler/ast"
	"github.com/slowlang/ix/compiler/classfile"
	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/sym"
	"github.com/slowlang/ix/compiler/token"
	"github.com/slowlang/ix/compiler/tp"
)

type (
	lvKind int

	// lvalueData is what is needed to store into an assignment target.
	lvalueData struct {
		v *sym.Var // nil if the variable is not declared yet

		// property
		obj   ast.Expr
		owner *structInfo
		field *sym.Var
	}
)

const (
	lvNone lvKind = iota
	lvVariable
	lvProperty
	lvArray
)

// preprocess registers declarations before any code is emitted.
func (g *gen) preprocess(n ast.Stmt) error {
	switch n := n.(type) {
	case *ast.Use:
		if g.mods == nil {
			return diag.Compile(n.Tok, "Could not import module '%s': imports are not configured.", n.Path)
		}

		err := g.mods.Import(g.ctx.Funcs, n.Path)
		if err != nil {
			return diag.Compile(n.Tok, "Could not import module '%s': %v", n.Path, err)
		}

		g.tr.V("resolve").Printw("imported", "module", n.Path)
	case *ast.StructDecl:
		return g.declareStruct(n)
	case *ast.FuncDecl:
		return g.declareFunc(n)
	}

	return nil
}

func isNewClass(n ast.Node) bool {
	_, ok := n.(*ast.StructDecl)
	return ok
}

// buildClasses emits classes introduced by the node.
func (g *gen) buildClasses(n ast.Stmt) (err error) {
	if !isNewClass(n) {
		return nil
	}

	d := n.(*ast.StructDecl)
	si := g.structs[g.qualify(d.Name)]

	si.cls = classfile.NewClass(si.Name, "", classfile.Public|classfile.Super)
	si.cls.SourceFile = g.file

	for _, f := range si.Fields {
		si.cls.AddField(classfile.Public, f.Name, f.Type.Descriptor())
	}

	err = g.constructor(si)
	if err != nil {
		return err
	}

	for _, m := range si.methods {
		err = g.function(si.cls, m, si)
		if err != nil {
			return err
		}
	}

	g.unit.Classes = append(g.unit.Classes, si.cls)

	return nil
}

// constructor takes all the fields in declaration order.
func (g *gen) constructor(si *structInfo) (err error) {
	g.ctx.EnterFunc(false, tp.Void)
	defer g.ctx.LeaveFunc()

	g.begin(si.cls, g.ctx.Frame, nil)
	defer g.end()

	g.code.Load(si.typ, 0)

	err = g.code.Invoke(asm.INVOKESPECIAL, asm.Ref{Class: classfile.ObjectClass, Name: "<init>", Desc: "()V"})
	if err != nil {
		return err
	}

	for _, f := range si.Fields {
		slot := g.ctx.Frame.Alloc(f.Type)

		g.code.Load(si.typ, 0)
		g.code.Load(f.Type, slot)

		err = g.code.Field(asm.PUTFIELD, asm.Ref{Class: si.Name, Name: f.Name, Desc: f.Type.Descriptor()})
		if err != nil {
			return err
		}
	}

	g.code.Return(tp.Void)

	return g.method(si.cls, classfile.Public, "<init>", si.ctorDesc())
}

// returnType is the static type of the expression. Nothing is emitted.
func (g *gen) returnType(x ast.Expr) (t tp.Type, err error) {
	c, ok, err := g.constantValue(x)
	if err != nil {
		return nil, err
	}

	if ok {
		return c.t, nil
	}

	switch x := x.(type) {
	case *ast.Ident:
		v, ok := g.ctx.Lookup(x.Name)
		if !ok {
			return nil, diag.UnresolvedName(x.Tok, x.Name)
		}

		return v.Type, nil
	case *ast.Unary:
		xt, err := g.returnType(x.X)
		if err != nil {
			return nil, err
		}

		return unaryType(x.Tok, xt)
	case *ast.Postfix:
		return g.returnType(x.X)
	case *ast.Binary:
		lt, err := g.returnType(x.Left)
		if err != nil {
			return nil, err
		}

		rt, err := g.returnType(x.Right)
		if err != nil {
			return nil, err
		}

		t, ok := binaryType(x.Op, lt, rt)
		if !ok {
			return nil, unsupported(x.Tok, lt, rt)
		}

		return t, nil
	case *ast.Assign:
		if lv := lvalue(x.Target); lv == lvVariable || lv == lvProperty {
			d, err := g.lvalueData(x.Target)
			if err != nil {
				return nil, err
			}

			if t := d.typ(); t != nil {
				return t, nil
			}
		}

		return g.returnType(x.Value)
	case *ast.Call:
		f, _, err := g.resolveCall(x)
		if err != nil {
			return nil, err
		}

		return f.Sig.Result(), nil
	case *ast.Property:
		d, err := g.lvalueData(x)
		if err != nil {
			return nil, err
		}

		return d.field.Type, nil
	case *ast.New:
		return g.typeRef(x.Type)
	case *ast.List:
		return tp.List, nil
	}

	return tp.Void, nil
}

func unaryType(tok token.Token, t tp.Type) (tp.Type, error) {
	switch tok.Kind {
	case token.Not:
		if t == tp.Bool {
			return tp.Bool, nil
		}
	case token.Add, token.Sub:
		if p, ok := tp.Promote(t, t); ok {
			return p, nil
		}
	}

	return nil, diag.Compile(tok, "Unsupported operation of '%s' on type '%s'", tok.Text, typeName(t))
}

// binaryType is the result type of the binary operator.
func binaryType(op token.Kind, l, r tp.Type) (tp.Type, bool) {
	switch op {
	case token.And, token.Or:
		return tp.Bool, l == tp.Bool && r == tp.Bool
	case token.Eq, token.Ne:
		if _, ok := tp.Promote(l, r); ok {
			return tp.Bool, true
		}

		return tp.Bool, l == tp.Bool && r == tp.Bool || tp.IsReference(l) && tp.IsReference(r)
	case token.Lt, token.Le, token.Gt, token.Ge:
		_, ok := tp.Promote(l, r)
		return tp.Bool, ok
	case token.Pow:
		_, ok := tp.Promote(l, r)
		return tp.Double, ok
	case token.Xor:
		if l == tp.Bool && r == tp.Bool {
			return tp.Bool, true
		}

		p, ok := tp.Promote(l, r)

		return p, ok && isIntegral(p)
	case token.Add:
		if !tp.IsVoid(l) && !tp.IsVoid(r) && (tp.IsString(l) || tp.IsString(r)) {
			return tp.String, true
		}

		fallthrough
	case token.Sub, token.Mul, token.Div, token.Mod:
		p, ok := tp.Promote(l, r)
		return p, ok
	}

	return nil, false
}

func unsupported(tok token.Token, l, r tp.Type) error {
	return diag.Compile(tok, "Unsupported operation of '%s' between types '%s' and '%s'", tok.Text, typeName(l), typeName(r))
}

func typeName(t tp.Type) string {
	if t == nil {
		return tp.Void.String()
	}

	return t.String()
}

func lvalue(x ast.Expr) lvKind {
	switch x := x.(type) {
	case *ast.Ident:
		return lvVariable
	case *ast.Property:
		return lvProperty
	case *ast.Call:
		if id, ok := x.Callee.(*ast.Ident); ok && id.Name == ast.IndexFunc && len(x.Args) == 2 {
			return lvArray
		}
	}

	return lvNone
}

func (g *gen) lvalueData(x ast.Expr) (d lvalueData, err error) {
	switch x := x.(type) {
	case *ast.Ident:
		d.v, _ = g.ctx.Lookup(x.Name)
	case *ast.Property:
		t, err := g.returnType(x.X)
		if err != nil {
			return d, err
		}

		d.obj = x.X
		d.owner = g.structOf(t)

		if d.owner != nil {
			d.field = g.field(d.owner, x.Name)
		}

		if d.field == nil {
			return d, diag.Compile(x.Tok, "Cannot resolve property '%s' on type '%s'.", x.Name, typeName(t))
		}
	}

	return d, nil
}

func (d lvalueData) typ() tp.Type {
	switch {
	case d.field != nil:
		return d.field.Type
	case d.v != nil:
		return d.v.Type
	}

	return nil
}
