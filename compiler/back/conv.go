package back

import (
	"tlog.app/go/errors"

	"github.com/slowlang/ix/compiler/asm"
	"github.com/slowlang/ix/compiler/tp"
)

// stack categories of primitive values
const (
	catInt = iota
	catLong
	catFloat
	catDouble
)

var convOps = [4][4]asm.Op{
	catInt:    {catLong: asm.I2L, catFloat: asm.I2F, catDouble: asm.I2D},
	catLong:   {catInt: asm.L2I, catFloat: asm.L2F, catDouble: asm.L2D},
	catFloat:  {catInt: asm.F2I, catLong: asm.F2L, catDouble: asm.F2D},
	catDouble: {catInt: asm.D2I, catLong: asm.D2L, catFloat: asm.D2F},
}

func category(p tp.Primitive) int {
	switch p {
	case tp.Long:
		return catLong
	case tp.Float:
		return catFloat
	case tp.Double:
		return catDouble
	}

	return catInt
}

// convert emits widening or boxing of the stack top from one type to another.
// Types are expected to be assignable.
func (g *gen) convert(from, to tp.Type) error {
	return g.conv(from, to, false)
}

// cast is convert which also narrows primitives.
func (g *gen) cast(from, to tp.Type) error {
	return g.conv(from, to, true)
}

func (g *gen) conv(from, to tp.Type, narrow bool) error {
	if tp.Equal(from, to) || tp.IsVoid(to) {
		return nil
	}

	fp, prim := from.(tp.Primitive)

	switch to := to.(type) {
	case tp.Primitive:
		if !prim {
			return errors.New("cannot convert %v to %v", from, to)
		}

		g.convPrim(fp, to, narrow)

		return nil
	case tp.Nullable:
		if to.Of == nil {
			return nil
		}

		return g.conv(from, to.Of, narrow)
	case tp.External:
		if !prim {
			return nil
		}

		if p, ok := unwrapper(to); ok {
			g.convPrim(fp, p, narrow)
			fp = p
		}

		return g.box(fp)
	case tp.Union:
		if _, ok := from.(tp.Union); ok {
			return nil
		}

		m, _, ok := to.Select(from)
		if !ok {
			return errors.New("cannot convert %v to %v", from, to)
		}

		err := g.conv(from, m, narrow)
		if err != nil {
			return err
		}

		if mp, ok := m.(tp.Primitive); ok {
			return g.box(mp)
		}

		return nil
	}

	return errors.New("cannot convert %v to %v", from, to)
}

func (g *gen) convPrim(from, to tp.Primitive, narrow bool) {
	if from == to {
		return
	}

	fc, tc := category(from), category(to)

	if fc != tc {
		g.code.Op(convOps[fc][tc])
	}

	if !narrow || tc != catInt {
		return
	}

	switch to {
	case tp.Byte:
		g.code.Op(asm.I2B)
	case tp.Char:
		g.code.Op(asm.I2C)
	case tp.Short:
		if from != tp.Byte {
			g.code.Op(asm.I2S)
		}
	}
}

func (g *gen) box(p tp.Primitive) error {
	w := p.Wrapper()

	return g.code.Invoke(asm.INVOKESTATIC, asm.Ref{Class: w.Name, Name: "valueOf", Desc: "(" + p.Descriptor() + ")" + w.Descriptor()})
}

func (g *gen) unbox(p tp.Primitive) error {
	name := p.String() + "Value"
	if p == tp.Bool {
		name = "booleanValue"
	}

	return g.code.Invoke(asm.INVOKEVIRTUAL, asm.Ref{Class: p.Wrapper().Name, Name: name, Desc: "()" + p.Descriptor()})
}

// unwrapper returns the primitive boxed by class t.
func unwrapper(t tp.External) (tp.Primitive, bool) {
	for p := tp.Bool; p <= tp.Double; p++ {
		if p.Wrapper() == t {
			return p, true
		}
	}

	return 0, false
}

// stringDesc is the argument descriptor of String.valueOf and StringBuilder.append for t.
func stringDesc(t tp.Type) string {
	switch t {
	case tp.Bool, tp.Char, tp.Long, tp.Float, tp.Double:
		return t.Descriptor()
	case tp.Byte, tp.Short, tp.Int:
		return tp.Int.Descriptor()
	}

	if tp.IsString(t) {
		return t.Descriptor()
	}

	return tp.Object.Descriptor()
}
