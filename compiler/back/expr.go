package back

import (
	"tlog.app/go/errors"

	"github.com/slowlang/ix/compiler/asm"
	"github.com/slowlang/ix/compiler/ast"
	"github.com/slowlang/ix/compiler/classfile"
	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/sym"
	"github.com/slowlang/ix/compiler/token"
	"github.com/slowlang/ix/compiler/tp"
)

var (
	arithOps = map[token.Kind]asm.Op{
		token.Add: asm.IADD,
		token.Sub: asm.ISUB,
		token.Mul: asm.IMUL,
		token.Div: asm.IDIV,
		token.Mod: asm.IREM,
		token.Xor: asm.IXOR,
	}

	compoundOps = map[token.Kind]token.Kind{
		token.AddAssign: token.Add,
		token.SubAssign: token.Sub,
		token.MulAssign: token.Mul,
		token.DivAssign: token.Div,
		token.ModAssign: token.Mod,
	}

	// conditional jumps taken if the comparison holds
	cmpOps = map[token.Kind]asm.Op{
		token.Eq: asm.IFEQ,
		token.Ne: asm.IFNE,
		token.Lt: asm.IFLT,
		token.Ge: asm.IFGE,
		token.Gt: asm.IFGT,
		token.Le: asm.IFLE,
	}
)

const (
	stringBuilder = "java/lang/StringBuilder"
	arrayList     = "java/util/ArrayList"
)

// visit emits the expression leaving its value on the stack.
// Statement expressions leave nothing.
func (g *gen) visit(x ast.Expr, stmt bool) (t tp.Type, err error) {
	c, ok, err := g.constantValue(x)
	if err != nil {
		return nil, err
	}

	if ok {
		if !stmt {
			err = g.code.Const(c.t, c.v)
		}

		return c.t, err
	}

	switch x := x.(type) {
	case *ast.Assign:
		return g.assign(x, stmt)
	case *ast.Postfix:
		return g.postfix(x, stmt)
	}

	t, err = g.emit(x)
	if err != nil {
		return nil, err
	}

	if stmt {
		g.code.Pop(t)
	}

	return t, nil
}

func (g *gen) emit(x ast.Expr) (t tp.Type, err error) {
	switch x := x.(type) {
	case *ast.Ident:
		v, ok := g.ctx.Lookup(x.Name)
		if !ok {
			return nil, diag.UnresolvedName(x.Tok, x.Name)
		}

		err = g.load(x.Tok, v)

		return v.Type, err
	case *ast.Unary:
		return g.unary(x)
	case *ast.Binary:
		switch x.Op {
		case token.And, token.Or, token.Eq, token.Ne, token.Lt, token.Le, token.Gt, token.Ge:
			return tp.Bool, g.boolValue(x)
		case token.Range:
			return nil, diag.Compile(x.Tok, "Range is only allowed as a for loop iterable.")
		}

		lt, err := g.returnType(x.Left)
		if err != nil {
			return nil, err
		}

		rt, err := g.returnType(x.Right)
		if err != nil {
			return nil, err
		}

		return g.arith(x.Tok, x.Op, lt, rt, g.operand(x.Left), g.operand(x.Right))
	case *ast.Call:
		return g.call(x)
	case *ast.Property:
		d, err := g.lvalueData(x)
		if err != nil {
			return nil, err
		}

		_, err = g.visit(d.obj, false)
		if err != nil {
			return nil, err
		}

		return d.field.Type, g.code.Field(asm.GETFIELD, fieldRef(d.owner.Name, d.field))
	case *ast.New:
		return g.newObject(x)
	case *ast.List:
		return g.list(x)
	}

	return nil, diag.Compile(tokOf(x), "Unexpected expression.")
}

func (g *gen) operand(x ast.Expr) func() error {
	return func() error {
		_, err := g.visit(x, false)
		return err
	}
}

func fieldRef(owner string, v *sym.Var) asm.Ref {
	return asm.Ref{Class: owner, Name: v.Name, Desc: v.Type.Descriptor()}
}

func (g *gen) load(tok token.Token, v *sym.Var) error {
	switch v.Kind {
	case sym.Local:
		g.code.Load(v.Type, v.Slot)

		return nil
	case sym.Global:
		return g.code.Field(asm.GETSTATIC, fieldRef(v.Owner, v))
	}

	if g.self == nil {
		return diag.Compile(tok, "Cannot access field '%s' from a static context.", v.Name)
	}

	g.code.Load(g.self.typ, 0)

	return g.code.Field(asm.GETFIELD, fieldRef(v.Owner, v))
}

// store expects the receiver under the value for fields.
func (g *gen) store(v *sym.Var) error {
	switch v.Kind {
	case sym.Local:
		g.code.Store(v.Type, v.Slot)

		return nil
	case sym.Global:
		return g.code.Field(asm.PUTSTATIC, fieldRef(v.Owner, v))
	}

	return g.code.Field(asm.PUTFIELD, fieldRef(v.Owner, v))
}

func (g *gen) unary(x *ast.Unary) (t tp.Type, err error) {
	xt, err := g.returnType(x.X)
	if err != nil {
		return nil, err
	}

	t, err = unaryType(x.Tok, xt)
	if err != nil {
		return nil, err
	}

	if x.Op == token.Not {
		return t, g.boolValue(x)
	}

	_, err = g.visit(x.X, false)
	if err != nil {
		return nil, err
	}

	err = g.convert(xt, t)
	if err != nil {
		return nil, err
	}

	if x.Op == token.Sub {
		g.code.Op(asm.Typed(asm.INEG, t))
	}

	return t, nil
}

// arith emits a binary operator over values pushed by left and right.
func (g *gen) arith(tok token.Token, op token.Kind, lt, rt tp.Type, left, right func() error) (t tp.Type, err error) {
	t, ok := binaryType(op, lt, rt)
	if !ok {
		return nil, unsupported(tok, lt, rt)
	}

	if op == token.Add && tp.IsString(t) {
		return t, g.concat(lt, rt, left, right)
	}

	to := t
	if op == token.Pow {
		to = tp.Double
	}

	if err = left(); err != nil {
		return nil, err
	}

	if err = g.convert(lt, to); err != nil {
		return nil, err
	}

	if err = right(); err != nil {
		return nil, err
	}

	if err = g.convert(rt, to); err != nil {
		return nil, err
	}

	if op == token.Pow {
		return t, g.code.Invoke(asm.INVOKESTATIC, asm.Ref{Class: "java/lang/Math", Name: "pow", Desc: "(DD)D"})
	}

	g.code.Op(asm.Typed(arithOps[op], t))

	return t, nil
}

// concat builds the string with StringBuilder.
// The left operand goes first so compound assignments can load it in place.
func (g *gen) concat(lt, rt tp.Type, left, right func() error) (err error) {
	if err = left(); err != nil {
		return err
	}

	desc := stringDesc(lt)
	if tp.IsString(lt) {
		desc = tp.Object.Descriptor() // null safe
	}

	err = g.code.Invoke(asm.INVOKESTATIC, asm.Ref{Class: tp.String.Name, Name: "valueOf", Desc: "(" + desc + ")" + tp.String.Descriptor()})
	if err != nil {
		return err
	}

	g.code.Type(asm.NEW, stringBuilder)
	g.code.Op(asm.DUP_X1)
	g.code.Op(asm.SWAP)

	err = g.code.Invoke(asm.INVOKESPECIAL, asm.Ref{Class: stringBuilder, Name: "<init>", Desc: "(" + tp.String.Descriptor() + ")V"})
	if err != nil {
		return err
	}

	if err = right(); err != nil {
		return err
	}

	sb := tp.External{Name: stringBuilder}

	err = g.code.Invoke(asm.INVOKEVIRTUAL, asm.Ref{Class: stringBuilder, Name: "append", Desc: "(" + stringDesc(rt) + ")" + sb.Descriptor()})
	if err != nil {
		return err
	}

	return g.code.Invoke(asm.INVOKEVIRTUAL, asm.Ref{Class: stringBuilder, Name: "toString", Desc: "()" + tp.String.Descriptor()})
}

// boolValue materializes a condition as 0 or 1.
func (g *gen) boolValue(x ast.Expr) error {
	f := g.code.NewLabel()
	end := g.code.NewLabel()

	err := g.cond(x, f, false)
	if err != nil {
		return err
	}

	g.code.Int(1)
	g.code.Jump(asm.GOTO, end)

	g.code.Bind(f)
	g.code.Int(0)

	g.code.Bind(end)

	return nil
}

// cond jumps to target if the condition evaluates to jumpIf
// and falls through otherwise.
func (g *gen) cond(x ast.Expr, target asm.Label, jumpIf bool) error {
	c, ok, err := g.constantValue(x)
	if err != nil {
		return err
	}

	if ok {
		v, isBool := c.v.(bool)
		if !isBool {
			return diag.Compile(tokOf(x), "Condition must be of type 'bool', got '%s'.", typeName(c.t))
		}

		if v == jumpIf {
			g.code.Jump(asm.GOTO, target)
		}

		return nil
	}

	switch x := x.(type) {
	case *ast.Unary:
		if x.Op == token.Not {
			return g.cond(x.X, target, !jumpIf)
		}
	case *ast.Binary:
		switch x.Op {
		case token.And, token.Or:
			// a && b jumps on true only if both are true, a || b on false only if both are false
			if (x.Op == token.And) == jumpIf {
				skip := g.code.NewLabel()

				err = g.cond(x.Left, skip, !jumpIf)
				if err != nil {
					return err
				}

				err = g.cond(x.Right, target, jumpIf)
				if err != nil {
					return err
				}

				g.code.Bind(skip)

				return nil
			}

			err = g.cond(x.Left, target, jumpIf)
			if err != nil {
				return err
			}

			return g.cond(x.Right, target, jumpIf)
		case token.Eq, token.Ne, token.Lt, token.Le, token.Gt, token.Ge:
			return g.compare(x, target, jumpIf)
		}
	}

	t, err := g.visit(x, false)
	if err != nil {
		return err
	}

	if t != tp.Bool {
		return diag.Compile(tokOf(x), "Condition must be of type 'bool', got '%s'.", typeName(t))
	}

	op := asm.IFEQ
	if jumpIf {
		op = asm.IFNE
	}

	g.code.Jump(op, target)

	return nil
}

func (g *gen) compare(x *ast.Binary, target asm.Label, jumpIf bool) (err error) {
	lt, err := g.returnType(x.Left)
	if err != nil {
		return err
	}

	rt, err := g.returnType(x.Right)
	if err != nil {
		return err
	}

	if _, ok := binaryType(x.Op, lt, rt); !ok {
		return unsupported(x.Tok, lt, rt)
	}

	op := cmpOps[x.Op]
	eq := x.Op == token.Eq || x.Op == token.Ne

	p, numeric := tp.Promote(lt, rt)

	switch {
	case numeric:
		err = g.arithOperands(lt, rt, p, x)
		if err != nil {
			return err
		}

		switch p {
		case tp.Long:
			g.code.Op(asm.LCMP)
		case tp.Float, tp.Double:
			// NaN compares false
			cmp := asm.FCMPL
			if x.Op == token.Lt || x.Op == token.Le {
				cmp = asm.FCMPG
			}

			if p == tp.Double {
				cmp += asm.DCMPL - asm.FCMPL
			}

			g.code.Op(cmp)
		default:
			op += asm.IF_ICMPEQ - asm.IFEQ
		}
	case eq && lt == tp.Bool && rt == tp.Bool:
		err = g.arithOperands(lt, rt, tp.Bool, x)
		if err != nil {
			return err
		}

		op += asm.IF_ICMPEQ - asm.IFEQ
	default:
		err = g.arithOperands(lt, rt, tp.Object, x)
		if err != nil {
			return err
		}

		err = g.code.Invoke(asm.INVOKESTATIC, asm.Ref{Class: "java/util/Objects", Name: "equals", Desc: "(Ljava/lang/Object;Ljava/lang/Object;)Z"})
		if err != nil {
			return err
		}

		// equals pushes 1 if equal
		op = op.Negate()
	}

	if !jumpIf {
		op = op.Negate()
	}

	g.code.Jump(op, target)

	return nil
}

func (g *gen) arithOperands(lt, rt, to tp.Type, x *ast.Binary) (err error) {
	if _, err = g.visit(x.Left, false); err != nil {
		return err
	}

	if err = g.convert(lt, to); err != nil {
		return err
	}

	if _, err = g.visit(x.Right, false); err != nil {
		return err
	}

	return g.convert(rt, to)
}

func (g *gen) assign(x *ast.Assign, stmt bool) (t tp.Type, err error) {
	lv := lvalue(x.Target)
	if lv != lvVariable && lv != lvProperty {
		return nil, diag.Compile(x.Tok, "Invalid lvalue - cannot assign")
	}

	d, err := g.lvalueData(x.Target)
	if err != nil {
		return nil, err
	}

	if lv == lvVariable && d.v == nil {
		id := x.Target.(*ast.Ident)

		if x.Op != token.Assign {
			return nil, diag.UnresolvedName(id.Tok, id.Name)
		}

		return g.declareAssign(x, id, stmt)
	}

	if d.v != nil && d.v.Const {
		return nil, diag.Compile(x.Target.Token(), "Reassignment of constant '%s'.", d.v.Name)
	}

	t = d.typ()

	under, err := g.receiver(x.Target.Token(), d)
	if err != nil {
		return nil, err
	}

	if op, ok := compoundOps[x.Op]; ok {
		vt, err := g.returnType(x.Value)
		if err != nil {
			return nil, err
		}

		load := func() error { return g.loadTarget(x.Target.Token(), d, under) }

		rt, err := g.arith(x.Tok, op, t, vt, load, g.operand(x.Value))
		if err != nil {
			return nil, err
		}

		_, rp := rt.(tp.Primitive)
		_, tprim := t.(tp.Primitive)

		if !tp.Assignable(t, rt) && !(rp && tprim && t != tp.Bool) {
			return nil, diag.Compile(x.Tok, "Cannot assign '%s' to '%s'.", typeName(rt), typeName(t))
		}

		err = g.cast(rt, t)
		if err != nil {
			return nil, err
		}
	} else {
		vt, err := g.visit(x.Value, false)
		if err != nil {
			return nil, err
		}

		if !tp.Assignable(t, vt) {
			return nil, diag.Compile(x.Tok, "Cannot assign '%s' to '%s'.", typeName(vt), typeName(t))
		}

		err = g.convert(vt, t)
		if err != nil {
			return nil, err
		}
	}

	if !stmt {
		g.code.Dup(t, under)
	}

	return t, g.storeTarget(d)
}

// receiver pushes the object owning the target field.
// It returns the number of slots under the value.
func (g *gen) receiver(tok token.Token, d lvalueData) (under int, err error) {
	switch {
	case d.field != nil:
		_, err = g.visit(d.obj, false)
		return 1, err
	case d.v.Kind == sym.Field:
		if g.self == nil {
			return 0, diag.Compile(tok, "Cannot access field '%s' from a static context.", d.v.Name)
		}

		g.code.Load(g.self.typ, 0)

		return 1, nil
	}

	return 0, nil
}

// loadTarget loads the current value of the target with the receiver already on the stack.
func (g *gen) loadTarget(tok token.Token, d lvalueData, under int) error {
	if under == 0 {
		return g.load(tok, d.v)
	}

	g.code.Op(asm.DUP)

	if d.field != nil {
		return g.code.Field(asm.GETFIELD, fieldRef(d.owner.Name, d.field))
	}

	return g.code.Field(asm.GETFIELD, fieldRef(d.v.Owner, d.v))
}

func (g *gen) storeTarget(d lvalueData) error {
	if d.field != nil {
		return g.code.Field(asm.PUTFIELD, fieldRef(d.owner.Name, d.field))
	}

	return g.store(d.v)
}

// declareAssign declares the variable assigned for the first time.
// At the top level it becomes a static field of the main class.
func (g *gen) declareAssign(x *ast.Assign, id *ast.Ident, stmt bool) (t tp.Type, err error) {
	t, err = g.returnType(x.Value)
	if err != nil {
		return nil, err
	}

	if tp.IsVoid(t) {
		return nil, diag.Compile(x.Tok, "Cannot assign 'void' to '%s'.", id.Name)
	}

	if tp.Equal(t, tp.Null) {
		t = tp.Object
	}

	vt, err := g.visit(x.Value, false)
	if err != nil {
		return nil, err
	}

	err = g.convert(vt, t)
	if err != nil {
		return nil, err
	}

	v, err := g.declareVar(id.Tok, id.Name, t, false)
	if err != nil {
		return nil, err
	}

	if !stmt {
		g.code.Dup(t, 0)
	}

	return t, g.store(v)
}

func (g *gen) declareVar(tok token.Token, name string, t tp.Type, isConst bool) (v *sym.Var, err error) {
	v = &sym.Var{Name: name, Kind: sym.Local, Type: t, Const: isConst, Tok: tok}

	global := g.ctx.Global() && g.main != nil && g.cls == g.main && !g.inFunc
	if global {
		v.Kind = sym.Global
		v.Owner = g.main.Name
	}

	err = g.ctx.Declare(v)
	if errors.Is(err, sym.ErrRedefined) {
		return nil, diag.Compile(tok, "Variable '%s' is already defined in this scope.", name)
	}
	if err != nil {
		return nil, err
	}

	if global {
		// package private: struct classes of the unit read globals too
		access := classfile.Static
		if isConst {
			access |= classfile.Final
		}

		g.main.AddField(access, name, t.Descriptor())
	}

	g.tr.V("resolve").Printw("declare", "name", name, "kind", v.Kind, "type", t, "slot", v.Slot)

	return v, nil
}

func (g *gen) postfix(x *ast.Postfix, stmt bool) (t tp.Type, err error) {
	lv := lvalue(x.X)
	if lv != lvVariable && lv != lvProperty {
		return nil, diag.Compile(x.Tok, "Invalid lvalue - cannot assign")
	}

	d, err := g.lvalueData(x.X)
	if err != nil {
		return nil, err
	}

	if lv == lvVariable && d.v == nil {
		id := x.X.(*ast.Ident)
		return nil, diag.UnresolvedName(id.Tok, id.Name)
	}

	if d.v != nil && d.v.Const {
		return nil, diag.Compile(x.X.Token(), "Reassignment of constant '%s'.", d.v.Name)
	}

	t = d.typ()

	p, ok := tp.Promote(t, t)
	if !ok {
		return nil, diag.Compile(x.Tok, "Unsupported operation of '%s' on type '%s'", x.Tok.Text, typeName(t))
	}

	delta := 1
	if x.Op == token.Dec {
		delta = -1
	}

	if d.v != nil && d.v.Kind == sym.Local && t == tp.Int {
		if !stmt {
			g.code.Load(t, d.v.Slot)
		}

		g.code.Inc(d.v.Slot, delta)

		return t, nil
	}

	under, err := g.receiver(x.X.Token(), d)
	if err != nil {
		return nil, err
	}

	err = g.loadTarget(x.X.Token(), d, under)
	if err != nil {
		return nil, err
	}

	if !stmt {
		g.code.Dup(t, under)
	}

	err = g.convert(t, p)
	if err != nil {
		return nil, err
	}

	err = g.code.Const(p, int64(delta))
	if err != nil {
		return nil, err
	}

	g.code.Op(asm.Typed(asm.IADD, p))

	err = g.cast(p, t)
	if err != nil {
		return nil, err
	}

	return t, g.storeTarget(d)
}

// resolveCall finds the called function.
// recv is the receiver expression of method calls on objects.
func (g *gen) resolveCall(x *ast.Call) (f sym.Func, recv ast.Expr, err error) {
	args := make([]tp.Type, len(x.Args))

	for i, a := range x.Args {
		args[i], err = g.returnType(a)
		if err != nil {
			return f, nil, err
		}
	}

	var ok bool

	switch c := x.Callee.(type) {
	case *ast.Ident:
		if g.self != nil {
			f, ok = g.self.Methods.Lookup(c.Name, args)
		}

		if !ok {
			f, ok = g.ctx.Funcs.Lookup(c.Name, args)
		}

		if !ok {
			// call reports it as called from a static context
			f, ok = g.anyMethod(c.Name, args)
		}

		if !ok {
			return f, nil, diag.UnresolvedCall(c.Tok, c.Name, args)
		}
	case *ast.Property:
		t, err := g.returnType(c.X)
		if err != nil {
			return f, nil, err
		}

		si := g.structOf(t)
		if si == nil {
			return f, nil, diag.Compile(c.Tok, "Cannot resolve method '%s' on type '%s'.", c.Name, typeName(t))
		}

		f, ok = si.Methods.Lookup(c.Name, args)
		if !ok {
			return f, nil, diag.UnresolvedCall(c.Tok, c.Name, args)
		}

		recv = c.X
	default:
		return f, nil, diag.Compile(x.Tok, "Expression is not callable.")
	}

	if g.tr.If("resolve") {
		g.tr.Printw("call", "name", f.Name, "owner", f.Owner, "desc", f.Sig.Descriptor(), "kind", f.Kind, "args", args)
	}

	return f, recv, nil
}

func (g *gen) anyMethod(name string, args []tp.Type) (f sym.Func, ok bool) {
	for _, si := range g.order {
		f, ok = si.Methods.Lookup(name, args)
		if ok {
			return f, true
		}
	}

	return f, false
}

func (g *gen) call(x *ast.Call) (t tp.Type, err error) {
	f, recv, err := g.resolveCall(x)
	if err != nil {
		return nil, err
	}

	op := asm.INVOKESTATIC

	switch f.Kind {
	case sym.HostOutputVirtual:
		err = g.code.Field(asm.GETSTATIC, asm.Ref{Class: "java/lang/System", Name: "out", Desc: tp.PrintStream.Descriptor()})
		if err != nil {
			return nil, err
		}

		op = asm.INVOKEVIRTUAL
	case sym.InstanceVirtual:
		if recv != nil {
			_, err = g.visit(recv, false)
			if err != nil {
				return nil, err
			}
		} else {
			if g.self == nil || g.self.Name != f.Owner {
				return nil, diag.Compile(x.Tok, "Cannot call instance method '%s' from a static context.", f.Name)
			}

			g.code.Load(g.self.typ, 0)
		}

		op = asm.INVOKEVIRTUAL
	}

	for i, a := range x.Args {
		at, err := g.visit(a, false)
		if err != nil {
			return nil, err
		}

		err = g.convert(at, f.Sig.In[i])
		if err != nil {
			return nil, err
		}
	}

	err = g.code.Invoke(op, asm.Ref{Class: f.Owner, Name: f.Name, Desc: f.Sig.Descriptor()})
	if err != nil {
		return nil, err
	}

	return f.Sig.Result(), nil
}

func (g *gen) newObject(x *ast.New) (t tp.Type, err error) {
	t, err = g.typeRef(x.Type)
	if err != nil {
		return nil, err
	}

	e, ok := t.(tp.External)
	if !ok {
		return nil, diag.Compile(x.Tok, "Cannot instantiate type '%s'.", typeName(t))
	}

	si := g.structOf(e)

	if si == nil && len(x.Args) != 0 {
		return nil, diag.Compile(x.Tok, "Cannot instantiate type '%s'.", typeName(t))
	}

	var params []tp.Type

	if si != nil {
		args := make([]tp.Type, len(x.Args))

		for i, a := range x.Args {
			args[i], err = g.returnType(a)
			if err != nil {
				return nil, err
			}
		}

		ok := len(args) == len(si.Fields)

		for i := 0; ok && i < len(args); i++ {
			ok = tp.Assignable(si.Fields[i].Type, args[i])
		}

		if !ok {
			return nil, diag.UnresolvedCall(x.Type.Tok, si.decl.Name, args)
		}

		for _, f := range si.Fields {
			params = append(params, f.Type)
		}
	}

	g.code.Type(asm.NEW, e.Name)
	g.code.Op(asm.DUP)

	for i, a := range x.Args {
		at, err := g.visit(a, false)
		if err != nil {
			return nil, err
		}

		err = g.convert(at, params[i])
		if err != nil {
			return nil, err
		}
	}

	err = g.code.Invoke(asm.INVOKESPECIAL, asm.Ref{Class: e.Name, Name: "<init>", Desc: tp.Method{In: params}.Descriptor()})
	if err != nil {
		return nil, err
	}

	return e, nil
}

func (g *gen) list(x *ast.List) (t tp.Type, err error) {
	g.code.Type(asm.NEW, arrayList)
	g.code.Op(asm.DUP)

	err = g.code.Invoke(asm.INVOKESPECIAL, asm.Ref{Class: arrayList, Name: "<init>", Desc: "()V"})
	if err != nil {
		return nil, err
	}

	for _, el := range x.Elems {
		g.code.Op(asm.DUP)

		et, err := g.visit(el, false)
		if err != nil {
			return nil, err
		}

		if tp.IsVoid(et) {
			return nil, diag.Compile(tokOf(el), "Cannot add 'void' to a list.")
		}

		err = g.convert(et, tp.Object)
		if err != nil {
			return nil, err
		}

		err = g.code.Invoke(asm.INVOKEVIRTUAL, asm.Ref{Class: arrayList, Name: "add", Desc: "(Ljava/lang/Object;)Z"})
		if err != nil {
			return nil, err
		}

		g.code.Op(asm.POP)
	}

	return tp.List, nil
}
