package asm

import (
	"encoding/binary"
	"math"

	"tlog.app/go/errors"
)

type (
	// Pool resolves constant pool indexes.
	Pool interface {
		Class(name string) uint16
		String(s string) uint16
		Int(v int32) uint16
		Float(v float32) uint16
		Long(v int64) uint16
		Double(v float64) uint16
		Field(class, name, desc string) uint16
		Method(class, name, desc string) uint16
		InterfaceMethod(class, name, desc string) uint16
	}

	encoded struct {
		off  int
		size int
		cp   uint16
	}
)

const maxCode = math.MaxUint16

// Assemble encodes instructions into the Code attribute byte code.
func Assemble(c *Code, p Pool) (b []byte, err error) {
	if c.err != nil {
		return nil, c.err
	}

	enc := make([]encoded, len(c.Instrs))
	off := 0

	for i, in := range c.Instrs {
		e := &enc[i]

		e.cp, err = constIndex(in, p)
		if err != nil {
			return nil, errors.Wrap(err, "instr %d (%v)", i, in.Op)
		}

		e.off = off
		e.size = instrSize(in, e.cp)

		off += e.size
	}

	if off > maxCode {
		return nil, errors.New("code too large: %d bytes", off)
	}

	b = make([]byte, 0, off)

	for i, in := range c.Instrs {
		e := enc[i]

		if in.Op.IsJump() {
			target := c.labels[in.Label]
			if target < 0 {
				return nil, errors.New("instr %d (%v): unbound label %d", i, in.Op, in.Label)
			}

			toff := off
			if target < len(enc) {
				toff = enc[target].off
			}

			rel := toff - e.off
			if rel < math.MinInt16 || rel > math.MaxInt16 {
				return nil, errors.New("instr %d (%v): jump too far: %d", i, in.Op, rel)
			}

			b = append(b, byte(in.Op))
			b = binary.BigEndian.AppendUint16(b, uint16(int16(rel)))

			continue
		}

		b = appendInstr(b, in, e.cp)

		if len(b) != e.off+e.size {
			panic(in)
		}
	}

	return b, nil
}

func constIndex(in Instr, p Pool) (uint16, error) {
	switch in.Op {
	case LDC, LDC_W, LDC2_W:
		switch v := in.Const.(type) {
		case int32:
			return p.Int(v), nil
		case float32:
			return p.Float(v), nil
		case int64:
			return p.Long(v), nil
		case float64:
			return p.Double(v), nil
		case string:
			return p.String(v), nil
		default:
			return 0, errors.New("unsupported constant %T", in.Const)
		}
	case GETSTATIC, PUTSTATIC, GETFIELD, PUTFIELD:
		return p.Field(in.Ref.Class, in.Ref.Name, in.Ref.Desc), nil
	case INVOKEVIRTUAL, INVOKESPECIAL, INVOKESTATIC:
		if in.Ref.Interface {
			return p.InterfaceMethod(in.Ref.Class, in.Ref.Name, in.Ref.Desc), nil
		}

		return p.Method(in.Ref.Class, in.Ref.Name, in.Ref.Desc), nil
	case INVOKEINTERFACE:
		return p.InterfaceMethod(in.Ref.Class, in.Ref.Name, in.Ref.Desc), nil
	case NEW, CHECKCAST, INSTANCEOF:
		return p.Class(in.Ref.Class), nil
	}

	return 0, nil
}

func isLocal(op Op) bool {
	return op >= ILOAD && op <= ALOAD || op >= ISTORE && op <= ASTORE
}

func instrSize(in Instr, cp uint16) int {
	switch {
	case isLocal(in.Op):
		switch {
		case in.Int <= 3:
			return 1
		case in.Int <= math.MaxUint8:
			return 2
		default:
			return 4
		}
	case in.Op == IINC:
		if in.Int <= math.MaxUint8 && in.Inc >= math.MinInt8 && in.Inc <= math.MaxInt8 {
			return 3
		}

		return 6
	case in.Op == LDC, in.Op == LDC_W:
		if cp <= math.MaxUint8 {
			return 2
		}

		return 3
	case in.Op == INVOKEINTERFACE:
		return 5
	case in.Op == BIPUSH:
		return 2
	case in.Op == SIPUSH, in.Op == LDC2_W, in.Op.IsJump(), in.Op.isRef(),
		in.Op == NEW, in.Op == CHECKCAST, in.Op == INSTANCEOF:
		return 3
	}

	return 1
}

func appendInstr(b []byte, in Instr, cp uint16) []byte {
	be := binary.BigEndian

	switch {
	case isLocal(in.Op):
		switch {
		case in.Int <= 3:
			// xLOAD_0..3 go in groups of four after the xLOAD ops, same for stores
			base, first := ILOAD, ILOAD_0
			if in.Op >= ISTORE {
				base, first = ISTORE, ISTORE_0
			}

			return append(b, byte(first+(in.Op-base)*4+Op(in.Int)))
		case in.Int <= math.MaxUint8:
			return append(b, byte(in.Op), byte(in.Int))
		default:
			b = append(b, byte(WIDE), byte(in.Op))
			return be.AppendUint16(b, uint16(in.Int))
		}
	case in.Op == IINC:
		if in.Int <= math.MaxUint8 && in.Inc >= math.MinInt8 && in.Inc <= math.MaxInt8 {
			return append(b, byte(IINC), byte(in.Int), byte(int8(in.Inc)))
		}

		b = append(b, byte(WIDE), byte(IINC))
		b = be.AppendUint16(b, uint16(in.Int))

		return be.AppendUint16(b, uint16(int16(in.Inc)))
	case in.Op == LDC, in.Op == LDC_W:
		if cp <= math.MaxUint8 {
			return append(b, byte(LDC), byte(cp))
		}

		b = append(b, byte(LDC_W))

		return be.AppendUint16(b, cp)
	case in.Op == BIPUSH:
		return append(b, byte(BIPUSH), byte(int8(in.Int)))
	case in.Op == SIPUSH:
		b = append(b, byte(SIPUSH))
		return be.AppendUint16(b, uint16(int16(in.Int)))
	case in.Op == INVOKEINTERFACE:
		b = append(b, byte(INVOKEINTERFACE))
		b = be.AppendUint16(b, cp)

		return append(b, byte(in.Pop), 0)
	case in.Op == LDC2_W, in.Op.isRef(), in.Op == NEW, in.Op == CHECKCAST, in.Op == INSTANCEOF:
		b = append(b, byte(in.Op))
		return be.AppendUint16(b, cp)
	}

	return append(b, byte(in.Op))
}
