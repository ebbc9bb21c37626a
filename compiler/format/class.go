package format

import (
	"encoding/binary"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/ix/compiler/asm"
	"github.com/slowlang/ix/compiler/classfile"
)

var accessNames = []struct {
	a    classfile.Access
	name string
}{
	{classfile.Public, "public"},
	{classfile.Private, "private"},
	{classfile.Protected, "protected"},
	{classfile.Static, "static"},
	{classfile.Final, "final"},
}

// Class appends a javap-like listing of the class.
// Method code is decoded from bytes so the listing works for parsed classes as well.
func Class(b []byte, c *classfile.Class) (_ []byte, err error) {
	b = access(b, c.Access)
	b = hfmt.Appendf(b, "class %s", c.Name)

	if c.Super != "" && c.Super != classfile.ObjectClass {
		b = hfmt.Appendf(b, " extends %s", c.Super)
	}

	if c.SourceFile != "" {
		b = hfmt.Appendf(b, "  // %s", c.SourceFile)
	}

	b = append(b, " {\n"...)

	for _, f := range c.Fields {
		b = append(b, '\t')
		b = access(b, f.Access)
		b = hfmt.Appendf(b, "%s %s\n", f.Name, f.Desc)
	}

	for _, m := range c.Methods {
		b = append(b, '\n')

		b, err = method(b, c, m)
		if err != nil {
			return nil, errors.Wrap(err, "method %v%v", m.Name, m.Desc)
		}
	}

	return append(b, "}\n"...), nil
}

func method(b []byte, c *classfile.Class, m *classfile.Method) (_ []byte, err error) {
	b = append(b, '\t')
	b = access(b, m.Access)
	b = hfmt.Appendf(b, "%s%s  // stack %d locals %d\n", m.Name, m.Desc, m.MaxStack, m.MaxLocals)

	if m.Code == nil {
		return b, nil
	}

	return Code(b, c.Pool, m.Code)
}

func access(b []byte, a classfile.Access) []byte {
	for _, n := range accessNames {
		if a&n.a != 0 {
			b = append(b, n.name...)
			b = append(b, ' ')
		}
	}

	return b
}

// Code appends decoded byte code one instruction per line.
// Constant pool operands are resolved through p.
func Code(b []byte, p *classfile.Pool, code []byte) ([]byte, error) {
	be := binary.BigEndian

	for i := 0; i < len(code); {
		st := i
		op := asm.Op(code[i])
		i++

		need := func(n int) error {
			if i+n > len(code) {
				return errors.New("offset %d (%v): truncated", st, op)
			}

			return nil
		}

		wide := op == asm.WIDE
		if wide {
			if err := need(1); err != nil {
				return nil, err
			}

			op = asm.Op(code[i])
			i++
		}

		b = hfmt.Appendf(b, "\t\t%4d: ", st)

		switch {
		case op >= asm.ILOAD_0 && op <= asm.ALOAD_0+3:
			b = hfmt.Appendf(b, "%v %d", asm.ILOAD+(op-asm.ILOAD_0)/4, int(op-asm.ILOAD_0)%4)
		case op >= asm.ISTORE_0 && op <= asm.ASTORE_0+3:
			b = hfmt.Appendf(b, "%v %d", asm.ISTORE+(op-asm.ISTORE_0)/4, int(op-asm.ISTORE_0)%4)
		case op >= asm.ILOAD && op <= asm.ALOAD, op >= asm.ISTORE && op <= asm.ASTORE:
			n := 1
			if wide {
				n = 2
			}

			if err := need(n); err != nil {
				return nil, err
			}

			b = hfmt.Appendf(b, "%v %d", op, uvar(code[i:i+n]))
			i += n
		case op == asm.IINC:
			n := 1
			if wide {
				n = 2
			}

			if err := need(2 * n); err != nil {
				return nil, err
			}

			slot := uvar(code[i : i+n])
			inc := svar(code[i+n : i+2*n])
			i += 2 * n

			b = hfmt.Appendf(b, "%v %d %d", op, slot, inc)
		case op == asm.BIPUSH:
			if err := need(1); err != nil {
				return nil, err
			}

			b = hfmt.Appendf(b, "%v %d", op, int8(code[i]))
			i++
		case op == asm.SIPUSH:
			if err := need(2); err != nil {
				return nil, err
			}

			b = hfmt.Appendf(b, "%v %d", op, int16(be.Uint16(code[i:])))
			i += 2
		case op == asm.LDC:
			if err := need(1); err != nil {
				return nil, err
			}

			b = hfmt.Appendf(b, "%v ", op)
			b = p.Describe(b, uint16(code[i]))
			i++
		case op.IsJump():
			if err := need(2); err != nil {
				return nil, err
			}

			rel := int(int16(be.Uint16(code[i:])))
			i += 2

			b = hfmt.Appendf(b, "%v %d", op, st+rel)
		case op == asm.INVOKEINTERFACE:
			if err := need(4); err != nil {
				return nil, err
			}

			b = hfmt.Appendf(b, "%v ", op)
			b = p.Describe(b, be.Uint16(code[i:]))
			i += 4
		case op == asm.LDC_W, op == asm.LDC2_W, op >= asm.GETSTATIC && op <= asm.INVOKESTATIC,
			op == asm.NEW, op == asm.CHECKCAST, op == asm.INSTANCEOF:
			if err := need(2); err != nil {
				return nil, err
			}

			b = hfmt.Appendf(b, "%v ", op)
			b = p.Describe(b, be.Uint16(code[i:]))
			i += 2
		default:
			if strings.HasPrefix(op.String(), "op(") {
				return nil, errors.New("offset %d: unsupported opcode %#x", st, byte(op))
			}

			b = append(b, op.String()...)
		}

		b = append(b, '\n')
	}

	return b, nil
}

func uvar(b []byte) int {
	if len(b) == 2 {
		return int(binary.BigEndian.Uint16(b))
	}

	return int(b[0])
}

func svar(b []byte) int {
	if len(b) == 2 {
		return int(int16(binary.BigEndian.Uint16(b)))
	}

	return int(int8(b[0]))
}
