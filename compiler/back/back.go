package back

import (
	"context"
	"path/filepath"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ix/compiler/asm"
	"github.com/slowlang/ix/compiler/ast"
	"github.com/slowlang/ix/compiler/classfile"
	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/sym"
	"github.com/slowlang/ix/compiler/token"
	"github.com/slowlang/ix/compiler/tp"
)

type (
	// Modules resolves `use <name>` imports.
	Modules interface {
		Import(r *sym.Registry, name string) error
	}

	Compiler struct {
		// Package is the internal name prefix of emitted classes.
		Package string

		funcs *sym.Registry
		mods  Modules
	}

	// gen is the state of one unit compilation.
	gen struct {
		tr tlog.Span

		*Compiler

		file string // base name

		ctx  *sym.Context
		unit *classfile.Unit

		main *classfile.Class

		// method being emitted
		cls      *classfile.Class
		code     *asm.Code
		inFunc   bool
		ownFrame bool
		self     *structInfo
		loops    []loop

		structs map[string]*structInfo // by class name
		order   []*structInfo
		aliases map[string]tp.Type
		funcs   []*funcInfo
		exports *sym.Registry
	}

	structInfo struct {
		*sym.Struct
		decl *ast.StructDecl
		typ  tp.External
		cls  *classfile.Class

		methods []*funcInfo
	}

	funcInfo struct {
		decl *ast.FuncDecl
		fn   sym.Func
	}

	loop struct {
		brk, cont asm.Label
	}
)

const MainSuffix = "ixc"

// New creates a compiler resolving calls against funcs.
// funcs is not modified. mods may be nil if imports are not supported.
func New(funcs *sym.Registry, mods Modules) *Compiler {
	if funcs == nil {
		funcs = sym.Builtins()
	}

	return &Compiler{
		funcs: funcs,
		mods:  mods,
	}
}

// MainClass is the internal name of the class holding top-level code of the file.
func (c *Compiler) MainClass(file string) string {
	base := filepath.Base(file)

	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}

	return c.qualify(base + MainSuffix)
}

func (c *Compiler) qualify(name string) string {
	if c.Package == "" {
		return name
	}

	return c.Package + "/" + name
}

// Compile emits the classes of the program.
// Exported functions are returned to be merged into registries of dependent units.
func (c *Compiler) Compile(ctx context.Context, file string, prog *ast.Program) (u *classfile.Unit, exports *sym.Registry, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "file", file)
	defer tr.Finish("err", &err)

	funcs := sym.NewRegistry()

	err = funcs.Merge(c.funcs)
	if err != nil {
		return nil, nil, errors.Wrap(err, "registry")
	}

	name := c.MainClass(file)

	g := &gen{
		tr:       tr,
		Compiler: c,
		file:     filepath.Base(file),
		ctx:      sym.NewContext(name, funcs),
		unit:     &classfile.Unit{Main: name},
		structs:  map[string]*structInfo{},
		aliases:  map[string]tp.Type{},
		exports:  sym.NewRegistry(),
	}

	if standalone(prog) {
		g.main = classfile.NewClass(name, "", classfile.Public|classfile.Super)
		g.main.SourceFile = g.file

		g.unit.Classes = append(g.unit.Classes, g.main)
	}

	err = g.program(prog)
	if err != nil {
		return nil, nil, err
	}

	tr.Printw("compiled", "classes", len(g.unit.Classes), "exports", g.exports.Len())

	return g.unit, g.exports, nil
}

// standalone reports whether the program has anything besides type declarations and imports.
func standalone(prog *ast.Program) bool {
	for _, s := range prog.Stmts {
		switch s.(type) {
		case *ast.StructDecl, *ast.TypeAlias, *ast.Use:
		default:
			return true
		}
	}

	return false
}

func (g *gen) program(prog *ast.Program) (err error) {
	// struct names first: fields and signatures may refer to any struct of the unit
	for _, s := range prog.Stmts {
		if d, ok := s.(*ast.StructDecl); ok {
			err = g.registerStruct(d)
			if err != nil {
				return err
			}
		}
	}

	// aliases may refer to structs and to aliases declared above
	for _, s := range prog.Stmts {
		if d, ok := s.(*ast.TypeAlias); ok {
			err = g.registerAlias(d)
			if err != nil {
				return err
			}
		}
	}

	for _, s := range prog.Stmts {
		err = g.preprocess(s)
		if err != nil {
			return err
		}
	}

	var clinit *classfile.Method

	if g.main != nil {
		// top-level code goes first so functions see implicitly declared globals
		clinit, err = g.staticInit(prog)
		if err != nil {
			return err
		}
	}

	for _, s := range prog.Stmts {
		err = g.buildClasses(s)
		if err != nil {
			return err
		}
	}

	if g.main == nil {
		return nil
	}

	for _, f := range g.funcs {
		err = g.function(g.main, f, nil)
		if err != nil {
			return err
		}
	}

	err = g.mainWrapper()
	if err != nil {
		return err
	}

	if clinit != nil {
		g.main.Methods = append(g.main.Methods, clinit)
	}

	return nil
}

// staticInit emits top-level statements into the class initializer.
func (g *gen) staticInit(prog *ast.Program) (m *classfile.Method, err error) {
	g.begin(g.main, &sym.Frame{Static: true, Result: tp.Void}, nil)
	defer g.end()

	g.inFunc = false

	for _, s := range prog.Stmts {
		switch s.(type) {
		case *ast.FuncDecl, *ast.StructDecl, *ast.TypeAlias, *ast.Use:
			continue
		}

		err = g.stmt(s)
		if err != nil {
			return nil, err
		}
	}

	if g.code.Len() == 0 {
		return nil, nil
	}

	g.code.Return(tp.Void)

	return g.build(g.main, classfile.Static, "<clinit>", "()V")
}

// mainWrapper adds the JVM entry point for def main().
func (g *gen) mainWrapper() error {
	f, ok := g.ctx.Funcs.FindExact("main", nil)
	if !ok || !f.Local || f.Owner != g.main.Name || !tp.IsVoid(f.Sig.Result()) {
		return nil
	}

	g.begin(g.main, &sym.Frame{Static: true, Result: tp.Void}, nil)
	defer g.end()

	g.ctx.Frame.Alloc(tp.Object) // args

	err := g.code.Invoke(asm.INVOKESTATIC, asm.Ref{Class: f.Owner, Name: f.Name, Desc: f.Sig.Descriptor()})
	if err != nil {
		return err
	}

	g.code.Return(tp.Void)

	return g.method(g.main, classfile.Public|classfile.Static, "main", "([Ljava/lang/String;)V")
}

// function emits a declared function or a struct method.
func (g *gen) function(cls *classfile.Class, f *funcInfo, self *structInfo) (err error) {
	d := f.decl

	defer func() {
		if err != nil {
			err = errors.Wrap(err, "func %v", d.Name)
		}
	}()

	if self != nil {
		g.ctx.Push()
		defer g.ctx.Pop()

		for _, fv := range self.Fields {
			_ = g.ctx.Declare(fv)
		}
	}

	res := f.fn.Sig.Result()

	g.ctx.EnterFunc(self == nil, res)
	defer g.ctx.LeaveFunc()

	g.begin(cls, g.ctx.Frame, self)
	defer g.end()

	for i, p := range d.Params {
		err = g.ctx.Declare(&sym.Var{Name: p.Name, Kind: sym.Local, Type: f.fn.Sig.In[i], Tok: p.Tok})
		if errors.Is(err, sym.ErrRedefined) {
			return diag.Compile(p.Tok, "Variable '%s' is already defined in this scope.", p.Name)
		}
		if err != nil {
			return err
		}
	}

	err = g.stmts(d.Body.Stmts)
	if err != nil {
		return err
	}

	if g.code.Reachable() {
		if !tp.IsVoid(res) {
			return diag.Compile(d.Tok, "Non-void function must return a value.")
		}

		g.code.Return(tp.Void)
	}

	access := classfile.Public
	if self == nil {
		access |= classfile.Static | classfile.Final
	}

	return g.method(cls, access, f.fn.Name, f.fn.Sig.Descriptor())
}

func (g *gen) begin(cls *classfile.Class, f *sym.Frame, self *structInfo) {
	g.cls = cls
	g.code = asm.NewCode()
	g.inFunc = true
	g.self = self
	g.loops = g.loops[:0]

	if g.ctx.Frame == nil {
		g.ctx.Frame = f
		g.ownFrame = true
	}
}

func (g *gen) end() {
	if g.ownFrame {
		g.ctx.Frame = nil
		g.ownFrame = false
	}

	g.code = nil
	g.self = nil
}

func (g *gen) method(cls *classfile.Class, access classfile.Access, name, desc string) error {
	m, err := g.build(cls, access, name, desc)
	if err != nil {
		return err
	}

	cls.Methods = append(cls.Methods, m)

	return nil
}

func (g *gen) build(cls *classfile.Class, access classfile.Access, name, desc string) (*classfile.Method, error) {
	m, err := cls.Build(access, name, desc, g.code, g.ctx.Frame.MaxLocals())
	if err != nil {
		return nil, errors.Wrap(err, "%v.%v", cls.Name, name)
	}

	if g.tr.If("code") {
		g.tr.Printw("method", "class", cls.Name, "name", name, "desc", desc, "max_stack", m.MaxStack, "max_locals", m.MaxLocals, "code_len", len(m.Code))
	}

	return m, nil
}

// typeRef resolves a type written in source.
func (g *gen) typeRef(r *ast.TypeRef) (t tp.Type, err error) {
	if r == nil {
		return tp.Void, nil
	}

	if r.Union != nil {
		ts := make([]tp.Type, len(r.Union))

		for i, x := range r.Union {
			ts[i], err = g.typeRef(x)
			if err != nil {
				return nil, err
			}

			if tp.IsVoid(ts[i]) {
				return nil, diag.Compile(x.Tok, "Type 'void' cannot be part of a union.")
			}
		}

		return tp.NewUnion(ts...), nil
	}

	switch {
	case r.List:
		t = tp.List
	default:
		if x, ok := tp.FromName(r.Name); ok {
			t = x
		} else if a, ok := g.aliases[r.Name]; ok {
			t = a
		} else if st, ok := g.ctx.Structs[r.Name]; ok {
			t = tp.External{Name: st.Name}
		} else if strings.Contains(r.Name, ".") {
			t = tp.External{Name: strings.ReplaceAll(r.Name, ".", "/")}
		} else {
			return nil, diag.Compile(r.Tok, "Unknown type '%s'.", r.Name)
		}
	}

	if r.Nullable {
		if p, ok := t.(tp.Primitive); ok {
			if p == tp.Void {
				return nil, diag.Compile(r.Tok, "Type 'void' cannot be nullable.")
			}

			t = p.Wrapper()
		}

		if _, ok := t.(tp.Nullable); !ok {
			t = tp.Nullable{Of: t}
		}
	}

	return t, nil
}

func (g *gen) signature(d *ast.FuncDecl) (m tp.Method, err error) {
	for _, p := range d.Params {
		t, err := g.typeRef(p.Type)
		if err != nil {
			return m, err
		}

		if tp.IsVoid(t) {
			return m, diag.Compile(p.Tok, "Parameter '%s' cannot be void.", p.Name)
		}

		m.In = append(m.In, t)
	}

	if d.Result != nil {
		m.Out, err = g.typeRef(d.Result)
		if err != nil {
			return m, err
		}

		if tp.IsVoid(m.Out) {
			m.Out = nil
		}
	}

	return m, nil
}

func (g *gen) declareFunc(d *ast.FuncDecl) error {
	sig, err := g.signature(d)
	if err != nil {
		return err
	}

	f := sym.Func{Kind: sym.Static, Name: d.Name, Owner: g.main.Name, Sig: sig, Local: true}

	err = g.ctx.Funcs.Add(f)
	if err != nil {
		return diag.Compile(d.Tok, "Function '%s' is already defined with signature %s.", d.Name, sig.Descriptor())
	}

	g.funcs = append(g.funcs, &funcInfo{decl: d, fn: f})

	if d.Pub {
		_ = g.exports.Add(sym.Func{Kind: f.Kind, Name: f.Name, Owner: f.Owner, Sig: f.Sig})
	}

	return nil
}

func (g *gen) typeDefined(name string) bool {
	if _, ok := tp.FromName(name); ok {
		return true
	}

	_, st := g.ctx.Structs[name]
	_, al := g.aliases[name]

	return st || al
}

func (g *gen) registerStruct(d *ast.StructDecl) error {
	if g.typeDefined(d.Name) {
		return diag.Compile(d.Tok, "Type '%s' is already defined.", d.Name)
	}

	name := g.qualify(d.Name)

	si := &structInfo{
		Struct: &sym.Struct{Name: name, Methods: sym.NewRegistry()},
		decl:   d,
		typ:    tp.External{Name: name},
	}

	g.ctx.Structs[d.Name] = si.Struct
	g.structs[name] = si
	g.order = append(g.order, si)

	return nil
}

func (g *gen) registerAlias(d *ast.TypeAlias) error {
	if g.typeDefined(d.Name) {
		return diag.Compile(d.Tok, "Type '%s' is already defined.", d.Name)
	}

	t, err := g.typeRef(d.Type)
	if err != nil {
		return err
	}

	if tp.IsVoid(t) {
		return diag.Compile(d.Tok, "Type '%s' cannot be void.", d.Name)
	}

	g.aliases[d.Name] = t

	g.tr.V("resolve").Printw("alias", "name", d.Name, "type", t)

	return nil
}

func (g *gen) declareStruct(d *ast.StructDecl) error {
	si := g.structs[g.qualify(d.Name)]

	for _, f := range d.Fields {
		t, err := g.typeRef(f.Type)
		if err != nil {
			return err
		}

		if tp.IsVoid(t) {
			return diag.Compile(f.Tok, "Field '%s' cannot be void.", f.Name)
		}

		for _, prev := range si.Fields {
			if prev.Name == f.Name {
				return diag.Compile(f.Tok, "Field '%s' is already defined in '%s'.", f.Name, d.Name)
			}
		}

		si.Fields = append(si.Fields, &sym.Var{Name: f.Name, Kind: sym.Field, Type: t, Owner: si.Name, Tok: f.Tok})
	}

	for _, md := range d.Methods {
		sig, err := g.signature(md)
		if err != nil {
			return err
		}

		f := sym.Func{Kind: sym.InstanceVirtual, Name: md.Name, Owner: si.Name, Sig: sig, Local: true}

		err = si.Methods.Add(f)
		if err != nil {
			return diag.Compile(md.Tok, "Function '%s' is already defined with signature %s.", md.Name, sig.Descriptor())
		}


		si.methods = append(si.methods, &funcInfo{decl: md, fn: f})
	}

	return nil
}

func (g *gen) field(si *structInfo, name string) *sym.Var {
	for _, f := range si.Fields {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// ctorDesc is the descriptor of the all fields constructor.
func (si *structInfo) ctorDesc() string {
	m := tp.Method{}

	for _, f := range si.Fields {
		m.In = append(m.In, f.Type)
	}

	return m.Descriptor()
}

func (g *gen) structOf(t tp.Type) *structInfo {
	if n, ok := t.(tp.Nullable); ok {
		t = n.Of
	}

	e, ok := t.(tp.External)
	if !ok {
		return nil
	}

	return g.structs[e.Name]
}

func tokOf(n ast.Node) token.Token {
	if n == nil {
		return token.Token{}
	}

	return n.Token()
}
