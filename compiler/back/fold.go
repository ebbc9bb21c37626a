package back

import (
	"math"
	"strconv"
	"strings"

	"github.com/slowlang/ix/compiler/ast"
	"github.com/slowlang/ix/compiler/diag"
	"github.com/slowlang/ix/compiler/token"
	"github.com/slowlang/ix/compiler/tp"
)

// constant is a compile time value.
// v is bool, int64 for integral types and char, float64, string, or nil for null.
type constant struct {
	t tp.Type
	v any
}

// isConstant reports whether x folds without errors.
func (g *gen) isConstant(x ast.Expr) bool {
	_, ok, err := g.constantValue(x)

	return ok && err == nil
}

// constantValue folds x if all of its operands are literals.
func (g *gen) constantValue(x ast.Expr) (c constant, ok bool, err error) {
	switch x := x.(type) {
	case *ast.Literal:
		c, err = literal(x.Tok)
		if err != nil {
			return c, false, err
		}

		return c, true, nil
	case *ast.Unary:
		a, ok, err := g.constantValue(x.X)
		if !ok || err != nil {
			return c, false, err
		}

		c, ok = foldUnary(x.Op, a)

		return c, ok, nil
	case *ast.Binary:
		a, ok, err := g.constantValue(x.Left)
		if !ok || err != nil {
			return c, false, err
		}

		b, ok, err := g.constantValue(x.Right)
		if !ok || err != nil {
			return c, false, err
		}

		c, ok = foldBinary(x.Op, a, b)

		return c, ok, nil
	}

	return c, false, nil
}

func literal(tok token.Token) (c constant, err error) {
	switch tok.Kind {
	case token.True:
		return constant{t: tp.Bool, v: true}, nil
	case token.False:
		return constant{t: tp.Bool, v: false}, nil
	case token.Null:
		return constant{t: tp.Null}, nil
	case token.String:
		return constant{t: tp.String, v: unquote(tok.Text)}, nil
	case token.Char:
		r := []rune(unquote(tok.Text))
		if len(r) != 1 || r[0] > 0xffff {
			return c, diag.Compile(tok, "Invalid character literal %s.", tok.Text)
		}

		return constant{t: tp.Char, v: int64(r[0])}, nil
	case token.Int:
		s, t := tok.Text, tp.Type(tp.Int)

		if strings.HasSuffix(s, "l") || strings.HasSuffix(s, "L") {
			s, t = s[:len(s)-1], tp.Long
		}

		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || t == tp.Int && v > math.MaxInt32 {
			return c, diag.Compile(tok, "Integer literal out of range.")
		}

		return constant{t: t, v: v}, nil
	case token.Float:
		s, t := tok.Text, tp.Type(tp.Double)

		switch s[len(s)-1] {
		case 'f', 'F':
			s, t = s[:len(s)-1], tp.Float
		case 'd', 'D':
			s = s[:len(s)-1]
		}

		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return c, diag.Compile(tok, "Invalid number literal.")
		}

		if t == tp.Float {
			v = float64(float32(v))
		}

		return constant{t: t, v: v}, nil
	}

	return c, diag.Compile(tok, "Unexpected literal.")
}

// unquote strips quotes and resolves escapes of a string or char literal.
func unquote(s string) string {
	if len(s) < 2 {
		return ""
	}

	s = s[1 : len(s)-1]

	if strings.IndexByte(s, '\\') < 0 {
		return s
	}

	var b strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}

		i++

		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(s[i])
		}
	}

	return b.String()
}

func isIntegral(t tp.Type) bool {
	return t == tp.Int || t == tp.Long
}

func foldUnary(op token.Kind, a constant) (c constant, ok bool) {
	switch op {
	case token.Not:
		if v, ok := a.v.(bool); ok {
			return constant{t: tp.Bool, v: !v}, true
		}
	case token.Add, token.Sub:
		t, ok := tp.Promote(a.t, a.t)
		if !ok {
			return c, false
		}

		a = toType(a, t)

		if op == token.Add {
			return a, true
		}

		switch v := a.v.(type) {
		case int64:
			return norm(constant{t: t, v: -v}), true
		case float64:
			return norm(constant{t: t, v: -v}), true
		}
	}

	return c, false
}

func foldBinary(op token.Kind, a, b constant) (c constant, ok bool) {
	switch op {
	case token.And, token.Or:
		x, ok1 := a.v.(bool)
		y, ok2 := b.v.(bool)

		if !ok1 || !ok2 {
			return c, false
		}

		if op == token.And {
			return constant{t: tp.Bool, v: x && y}, true
		}

		return constant{t: tp.Bool, v: x || y}, true
	case token.Eq, token.Ne:
		eq, ok := foldEqual(a, b)
		if !ok {
			return c, false
		}

		return constant{t: tp.Bool, v: eq == (op == token.Eq)}, true
	case token.Lt, token.Le, token.Gt, token.Ge:
		t, ok := tp.Promote(a.t, b.t)
		if !ok {
			return c, false
		}

		d := compare(toType(a, t), toType(b, t))

		switch op {
		case token.Lt:
			return constant{t: tp.Bool, v: d < 0}, true
		case token.Le:
			return constant{t: tp.Bool, v: d <= 0 && d != nan}, true
		case token.Gt:
			return constant{t: tp.Bool, v: d > 0 && d != nan}, true
		default:
			return constant{t: tp.Bool, v: d >= 0 && d != nan}, true
		}
	case token.Xor:
		if x, ok := a.v.(bool); ok {
			if y, ok := b.v.(bool); ok {
				return constant{t: tp.Bool, v: x != y}, true
			}

			return c, false
		}

		t, ok := tp.Promote(a.t, b.t)
		if !ok || !isIntegral(t) {
			return c, false
		}

		return norm(constant{t: t, v: toType(a, t).v.(int64) ^ toType(b, t).v.(int64)}), true
	case token.Pow:
		if _, ok := tp.Promote(a.t, b.t); !ok {
			return c, false
		}

		x := toType(a, tp.Double).v.(float64)
		y := toType(b, tp.Double).v.(float64)

		return constant{t: tp.Double, v: math.Pow(x, y)}, true
	case token.Add:
		if tp.IsString(a.t) || tp.IsString(b.t) {
			x, ok1 := constString(a)
			y, ok2 := constString(b)

			if !ok1 || !ok2 {
				return c, false
			}

			return constant{t: tp.String, v: x + y}, true
		}
	case token.Sub, token.Mul, token.Div, token.Mod:
	default:
		return c, false
	}

	t, ok := tp.Promote(a.t, b.t)
	if !ok {
		return c, false
	}

	a, b = toType(a, t), toType(b, t)

	if isIntegral(t) {
		x, y := a.v.(int64), b.v.(int64)

		switch op {
		case token.Add:
			return norm(constant{t: t, v: x + y}), true
		case token.Sub:
			return norm(constant{t: t, v: x - y}), true
		case token.Mul:
			return norm(constant{t: t, v: x * y}), true
		}

		if y == 0 {
			return c, false // throws at run time
		}

		if op == token.Div {
			return norm(constant{t: t, v: x / y}), true
		}

		return norm(constant{t: t, v: x % y}), true
	}

	x, y := a.v.(float64), b.v.(float64)

	switch op {
	case token.Add:
		return norm(constant{t: t, v: x + y}), true
	case token.Sub:
		return norm(constant{t: t, v: x - y}), true
	case token.Mul:
		return norm(constant{t: t, v: x * y}), true
	case token.Div:
		return norm(constant{t: t, v: x / y}), true
	default:
		return norm(constant{t: t, v: math.Mod(x, y)}), true
	}
}

const nan = 2

// compare returns -1, 0, 1, or nan for unordered floats.
func compare(a, b constant) int {
	switch x := a.v.(type) {
	case int64:
		y := b.v.(int64)

		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}

		return 0
	case float64:
		y := b.v.(float64)

		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		case x == y:
			return 0
		}
	}

	return nan
}

func foldEqual(a, b constant) (eq, ok bool) {
	if a.v == nil || b.v == nil {
		if tp.IsReference(a.t) && tp.IsReference(b.t) {
			return a.v == nil && b.v == nil, true
		}

		return false, false
	}

	switch x := a.v.(type) {
	case bool:
		y, ok := b.v.(bool)
		return x == y, ok
	case string:
		y, ok := b.v.(string)
		return x == y, ok
	}

	t, ok := tp.Promote(a.t, b.t)
	if !ok {
		return false, false
	}

	return compare(toType(a, t), toType(b, t)) == 0, true
}

// constString is the string conversion of string concatenation.
// Floating point values are not folded as their formatting differs.
func constString(c constant) (string, bool) {
	switch v := c.v.(type) {
	case nil:
		return "null", true
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int64:
		if c.t == tp.Char {
			return string(rune(v)), true
		}

		return strconv.FormatInt(v, 10), true
	}

	return "", false
}

// toType converts numeric constant to the wider type t.
func toType(c constant, t tp.Primitive) constant {
	switch v := c.v.(type) {
	case int64:
		if t == tp.Float || t == tp.Double {
			return norm(constant{t: t, v: float64(v)})
		}
	}

	return constant{t: t, v: c.v}
}

// norm wraps the value into the range of its type.
func norm(c constant) constant {
	switch v := c.v.(type) {
	case int64:
		switch c.t {
		case tp.Int:
			c.v = int64(int32(v))
		case tp.Short:
			c.v = int64(int16(v))
		case tp.Byte:
			c.v = int64(int8(v))
		case tp.Char:
			c.v = int64(uint16(v))
		}
	case float64:
		if c.t == tp.Float {
			c.v = float64(float32(v))
		}
	}

	return c
}
