package tp

import (
	"tlog.app/go/errors"
)

const (
	costBoxing = 10
	costUpcast = 1
)

// rank is the position on the widening chain byte, short, int, long, float, double.
func (x Primitive) rank() int {
	switch x {
	case Byte:
		return 1
	case Short:
		return 2
	case Char, Int:
		return 3
	case Long:
		return 4
	case Float:
		return 5
	case Double:
		return 6
	}

	return 0
}

// AssignCost reports whether a value of type from can be stored into to
// and how many conversion steps it takes.
func AssignCost(to, from Type) (cost int, ok bool) {
	if IsVoid(to) || IsVoid(from) {
		return 0, false
	}

	if Equal(to, from) {
		return 0, true
	}

	switch to := to.(type) {
	case Primitive:
		from, isPrim := from.(Primitive)
		if !isPrim || to == Bool || from == Bool || !to.IsNumeric() {
			return 0, false
		}

		if to == Char {
			return 0, false
		}

		if from == Char && to.rank() < Int.rank() {
			return 0, false
		}

		d := to.rank() - from.rank()
		if d < 0 {
			return 0, false
		}

		if from == Char {
			d++
		}

		return d, true
	case External:
		switch from := from.(type) {
		case Primitive:
			if to == Object || to == from.Wrapper() {
				return costBoxing, true
			}
		case External, Nullable, Union:
			if to == Object {
				return costUpcast, true
			}
		}

		return 0, false
	case Union:
		if from, ok := from.(Union); ok {
			for _, t := range from.Types {
				if !to.Has(t) {
					return 0, false
				}
			}

			return costUpcast, true
		}

		_, cost, ok = to.Select(from)

		return cost, ok
	case Nullable:
		switch from := from.(type) {
		case Nullable:
			if from.Of == nil {
				return 0, true
			}

			if to.Of == nil {
				return 0, false
			}

			return AssignCost(to.Of, from.Of)
		default:
			if to.Of == nil {
				return 0, false
			}

			c, ok := AssignCost(to.Of, from)
			if ok {
				c += costUpcast
			}

			return c, ok
		}
	}

	return 0, false
}

// Select picks the union type the value of type from is stored as.
// The cheapest conversion wins, the first declared on a tie.
func (x Union) Select(from Type) (t Type, cost int, ok bool) {
	for _, m := range x.Types {
		c, mok := AssignCost(m, from)
		if !mok {
			continue
		}

		if _, prim := m.(Primitive); prim {
			c += costBoxing
		} else {
			c += costUpcast
		}

		if !ok || c < cost {
			t, cost, ok = m, c, true
		}
	}

	return t, cost, ok
}

func Assignable(to, from Type) bool {
	_, ok := AssignCost(to, from)
	return ok
}

// Promote is the binary numeric promotion: both operands are widened
// to the returned type, which is at least int.
func Promote(a, b Type) (Primitive, bool) {
	x, ok := a.(Primitive)
	if !ok || !x.IsNumeric() {
		return 0, false
	}

	y, ok := b.(Primitive)
	if !ok || !y.IsNumeric() {
		return 0, false
	}

	r := Int

	for _, p := range []Primitive{x, y} {
		if p.rank() > r.rank() {
			r = p
		}
	}

	return r, true
}

// ParseDescriptor parses a single field descriptor.
func ParseDescriptor(s string) (t Type, err error) {
	t, i, err := parseDesc(s, 0)
	if err != nil {
		return nil, err
	}

	if i != len(s) {
		return nil, errors.New("unexpected suffix at %d: %q", i, s[i:])
	}

	return t, nil
}

// ParseMethodDescriptor parses "(args)ret".
func ParseMethodDescriptor(s string) (m Method, err error) {
	if len(s) == 0 || s[0] != '(' {
		return m, errors.New("method descriptor expected: %q", s)
	}

	i := 1

	for i < len(s) && s[i] != ')' {
		var t Type

		t, i, err = parseDesc(s, i)
		if err != nil {
			return m, errors.Wrap(err, "arg %d", len(m.In))
		}

		m.In = append(m.In, t)
	}

	if i == len(s) {
		return m, errors.New("unclosed argument list: %q", s)
	}

	out, i, err := parseDesc(s, i+1)
	if err != nil {
		return m, errors.Wrap(err, "result")
	}

	if i != len(s) {
		return m, errors.New("unexpected suffix at %d: %q", i, s[i:])
	}

	if out != Void {
		m.Out = out
	}

	return m, nil
}

func parseDesc(s string, st int) (t Type, i int, err error) {
	if st >= len(s) {
		return nil, st, errors.New("unexpected end of descriptor")
	}

	switch s[st] {
	case 'V':
		return Void, st + 1, nil
	case 'Z':
		return Bool, st + 1, nil
	case 'C':
		return Char, st + 1, nil
	case 'B':
		return Byte, st + 1, nil
	case 'S':
		return Short, st + 1, nil
	case 'I':
		return Int, st + 1, nil
	case 'J':
		return Long, st + 1, nil
	case 'F':
		return Float, st + 1, nil
	case 'D':
		return Double, st + 1, nil
	case 'L':
		for i = st + 1; i < len(s) && s[i] != ';'; i++ {
		}

		if i == len(s) || i == st+1 {
			return nil, st, errors.New("bad class descriptor at %d", st)
		}

		return External{Name: s[st+1 : i]}, i + 1, nil
	}

	return nil, st, errors.New("unsupported descriptor char %q at %d", s[st], st)
}
