package asm

import (
	"math"

	"tlog.app/go/errors"

	"github.com/slowlang/ix/compiler/tp"
)

type (
	Label int

	// Ref is a class member or a class if Name is empty.
	Ref struct {
		Class string
		Name  string
		Desc  string

		Interface bool
	}

	Instr struct {
		Op Op

		// Int is the immediate for bipush/sipush, local index for loads/stores/iinc.
		Int int

		// Inc is the iinc increment.
		Inc int

		// Const is the ldc value: int32, float32, int64, float64 or string.
		Const any

		Ref   Ref
		Label Label

		Pop  int
		Push int
	}

	// Code is a method body being built.
	// It tracks operand stack depth as instructions are emitted.
	Code struct {
		Instrs []Instr

		labels []int // label -> instruction index, -1 if unbound
		depths []int // label -> expected stack depth, -1 if unknown

		depth int
		max   int

		// dead is set after terminal instructions until a label is bound.
		dead bool

		err error
	}
)

const NoLabel Label = -1

func NewCode() *Code {
	return &Code{}
}

// Err returns the first stack tracking error.
func (c *Code) Err() error { return c.err }

func (c *Code) Depth() int    { return c.depth }
func (c *Code) MaxStack() int { return c.max }
func (c *Code) Len() int      { return len(c.Instrs) }

// Reachable reports whether the next instruction can be reached by fall through or a jump.
func (c *Code) Reachable() bool { return !c.dead }

func (c *Code) NewLabel() Label {
	c.labels = append(c.labels, -1)
	c.depths = append(c.depths, -1)

	return Label(len(c.labels) - 1)
}

// Bind places the label at the next instruction.
// Code after a terminal instruction stays unreachable
// unless some jump targets the label.
func (c *Code) Bind(l Label) {
	if c.labels[l] != -1 {
		c.fail(errors.New("label %d bound twice", l))
		return
	}

	c.labels[l] = len(c.Instrs)

	switch d := c.depths[l]; {
	case c.dead && d >= 0:
		c.depth = d
		c.dead = false
	case c.dead:
		c.depth = 0
		return
	case d >= 0 && d != c.depth:
		c.fail(errors.New("stack depth mismatch at label %d: %d vs %d", l, d, c.depth))
	}

	c.depths[l] = c.depth
}

// LabelIndex returns instruction index the label is bound to.
func (c *Code) LabelIndex(l Label) int {
	return c.labels[l]
}

func (c *Code) Labels() int { return len(c.labels) }

// Emit appends the instruction updating the stack depth.
// Member access and invoke ops take Pop and Push from the instruction,
// others from the opcode table.
func (c *Code) Emit(in Instr) {
	if !in.Op.isRef() {
		info := ops[in.Op]
		in.Pop, in.Push = int(info.pop), int(info.push)
	}

	if !in.Op.IsJump() {
		in.Label = NoLabel
	}

	if c.dead {
		// not verified and never executed
		c.Instrs = append(c.Instrs, in)
		c.depth = max(0, c.depth+in.Push-in.Pop)

		return
	}

	if c.depth < in.Pop {
		c.fail(errors.New("stack underflow at %d (%v): depth %d, pop %d", len(c.Instrs), in.Op, c.depth, in.Pop))
	}

	c.Instrs = append(c.Instrs, in)

	c.depth += in.Push - in.Pop
	c.max = max(c.max, c.depth)

	if in.Op.IsJump() {
		c.mergeLabel(in.Label)
	}

	if in.Op.Terminal() {
		c.dead = true
	}
}

func (c *Code) mergeLabel(l Label) {
	switch d := c.depths[l]; {
	case d < 0:
		c.depths[l] = c.depth
	case d != c.depth:
		c.fail(errors.New("stack depth mismatch at jump to %d: %d vs %d", l, d, c.depth))
	}
}

func (c *Code) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Op emits an instruction without operands.
func (c *Code) Op(op Op) {
	c.Emit(Instr{Op: op})
}

func (c *Code) Jump(op Op, l Label) {
	c.Emit(Instr{Op: op, Label: l})
}

// Int pushes an int constant using the shortest form.
func (c *Code) Int(v int32) {
	switch {
	case v >= -1 && v <= 5:
		c.Op(ICONST_0 + Op(v))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		c.Emit(Instr{Op: BIPUSH, Int: int(v)})
	case v >= math.MinInt16 && v <= math.MaxInt16:
		c.Emit(Instr{Op: SIPUSH, Int: int(v)})
	default:
		c.Emit(Instr{Op: LDC, Const: v})
	}
}

func (c *Code) Long(v int64) {
	switch v {
	case 0, 1:
		c.Op(LCONST_0 + Op(v))
	default:
		c.Emit(Instr{Op: LDC2_W, Const: v})
	}
}

func (c *Code) Float(v float32) {
	switch {
	case v == 0 && !math.Signbit(float64(v)), v == 1, v == 2:
		c.Op(FCONST_0 + Op(v))
	default:
		c.Emit(Instr{Op: LDC, Const: v})
	}
}

func (c *Code) Double(v float64) {
	switch {
	case v == 0 && !math.Signbit(v), v == 1:
		c.Op(DCONST_0 + Op(v))
	default:
		c.Emit(Instr{Op: LDC2_W, Const: v})
	}
}

func (c *Code) String(s string) {
	c.Emit(Instr{Op: LDC, Const: s})
}

// Const pushes a folded constant of type t.
func (c *Code) Const(t tp.Type, v any) error {
	switch v := v.(type) {
	case nil:
		c.Op(ACONST_NULL)
	case bool:
		if v {
			c.Op(ICONST_1)
		} else {
			c.Op(ICONST_0)
		}
	case int64:
		switch t {
		case tp.Long:
			c.Long(v)
		case tp.Float:
			c.Float(float32(v))
		case tp.Double:
			c.Double(float64(v))
		default:
			c.Int(int32(v))
		}
	case float64:
		switch t {
		case tp.Float:
			c.Float(float32(v))
		default:
			c.Double(v)
		}
	case string:
		c.String(v)
	default:
		return errors.New("unsupported constant: %T", v)
	}

	return nil
}

// typed returns the op of the int family shifted for t:
// int, long, float, double, reference.
func typed(op Op, t tp.Type) Op {
	switch t {
	case tp.Long:
		return op + 1
	case tp.Float:
		return op + 2
	case tp.Double:
		return op + 3
	}

	if tp.IsReference(t) {
		return op + 4
	}

	return op
}

// Typed shifts an int arithmetic op to the type family: IADD -> LADD and so on.
func Typed(op Op, t tp.Type) Op {
	if tp.IsReference(t) {
		return op
	}

	return typed(op, t)
}

func (c *Code) Load(t tp.Type, slot int) {
	c.Emit(Instr{Op: typed(ILOAD, t), Int: slot})
}

func (c *Code) Store(t tp.Type, slot int) {
	c.Emit(Instr{Op: typed(ISTORE, t), Int: slot})
}

func (c *Code) Inc(slot, by int) {
	c.Emit(Instr{Op: IINC, Int: slot, Inc: by})
}

func (c *Code) Return(t tp.Type) {
	if tp.IsVoid(t) {
		c.Op(RETURN)
		return
	}

	c.Op(typed(IRETURN, t))
}

// Pop discards a value of type t.
func (c *Code) Pop(t tp.Type) {
	switch t.Size() {
	case 0:
	case 2:
		c.Op(POP2)
	default:
		c.Op(POP)
	}
}

// Dup duplicates the value of type t placing it under under slots.
func (c *Code) Dup(t tp.Type, under int) {
	op := DUP
	if t.Size() == 2 {
		op = DUP2
	}

	switch under {
	case 1:
		op++ // _X1
	case 2:
		op += 2 // _X2
	}

	c.Op(op)
}

// Field emits get/put static/field.
func (c *Code) Field(op Op, r Ref) error {
	t, err := tp.ParseDescriptor(r.Desc)
	if err != nil {
		return errors.Wrap(err, "field %v.%v", r.Class, r.Name)
	}

	in := Instr{Op: op, Ref: r}

	switch op {
	case GETSTATIC:
		in.Push = t.Size()
	case PUTSTATIC:
		in.Pop = t.Size()
	case GETFIELD:
		in.Pop, in.Push = 1, t.Size()
	case PUTFIELD:
		in.Pop = 1 + t.Size()
	default:
		return errors.New("not a field op: %v", op)
	}

	c.Emit(in)

	return nil
}

// Invoke emits method call instruction.
func (c *Code) Invoke(op Op, r Ref) error {
	m, err := tp.ParseMethodDescriptor(r.Desc)
	if err != nil {
		return errors.Wrap(err, "method %v.%v", r.Class, r.Name)
	}

	in := Instr{Op: op, Ref: r, Pop: m.ArgSize(), Push: m.Result().Size()}

	switch op {
	case INVOKESTATIC:
	case INVOKEVIRTUAL, INVOKESPECIAL:
		in.Pop++
	case INVOKEINTERFACE:
		in.Pop++
		in.Ref.Interface = true
	default:
		return errors.New("not an invoke op: %v", op)
	}

	c.Emit(in)

	return nil
}

// Type emits NEW, CHECKCAST or INSTANCEOF.
func (c *Code) Type(op Op, class string) {
	c.Emit(Instr{Op: op, Ref: Ref{Class: class}})
}
