package tp

import (
	"strings"
)

type (
	Type interface {
		// Size in local variable slots.
		Size() int

		Descriptor() string
		String() string
	}

	Primitive int

	// Method is a function signature.
	Method struct {
		In  []Type
		Out Type
	}

	// Nullable is a reference which can be null.
	// Nullable{} with nil Of is the type of the null literal.
	Nullable struct {
		Of Type
	}

	// External is any class type: host provided or declared in source.
	External struct {
		Name string // internal name: java/lang/String
	}

	// Union holds a value of any of the Types.
	// Values are stored as objects, primitives boxed.
	Union struct {
		Types []Type
	}
)

const (
	Void Primitive = iota
	Bool
	Char
	Byte
	Short
	Int
	Long
	Float
	Double
)

var (
	Object      = External{Name: "java/lang/Object"}
	String      = External{Name: "java/lang/String"}
	List        = External{Name: "java/util/List"}
	Iterable    = External{Name: "java/lang/Iterable"}
	PrintStream = External{Name: "java/io/PrintStream"}

	Null = Nullable{}
)

var primNames = [...]string{
	Void:   "void",
	Bool:   "bool",
	Char:   "char",
	Byte:   "byte",
	Short:  "short",
	Int:    "int",
	Long:   "long",
	Float:  "float",
	Double: "double",
}

var primDesc = [...]string{
	Void:   "V",
	Bool:   "Z",
	Char:   "C",
	Byte:   "B",
	Short:  "S",
	Int:    "I",
	Long:   "J",
	Float:  "F",
	Double: "D",
}

var primWrappers = [...]string{
	Bool:   "java/lang/Boolean",
	Char:   "java/lang/Character",
	Byte:   "java/lang/Byte",
	Short:  "java/lang/Short",
	Int:    "java/lang/Integer",
	Long:   "java/lang/Long",
	Float:  "java/lang/Float",
	Double: "java/lang/Double",
}

func (x Primitive) Size() int {
	switch x {
	case Void:
		return 0
	case Long, Double:
		return 2
	default:
		return 1
	}
}

func (x Primitive) Descriptor() string { return primDesc[x] }
func (x Primitive) String() string     { return primNames[x] }

func (x Primitive) IsNumeric() bool { return x >= Char && x <= Double }

// Wrapper is the boxed class of the primitive.
func (x Primitive) Wrapper() External {
	return External{Name: primWrappers[x]}
}

func (x Method) Size() int { return 1 }

func (x Method) Descriptor() string {
	var b strings.Builder

	b.WriteByte('(')

	for _, a := range x.In {
		b.WriteString(a.Descriptor())
	}

	b.WriteByte(')')

	if x.Out == nil {
		b.WriteString("V")
	} else {
		b.WriteString(x.Out.Descriptor())
	}

	return b.String()
}

func (x Method) String() string { return x.Descriptor() }

// ArgSize is the number of stack slots taken by arguments.
func (x Method) ArgSize() (s int) {
	for _, a := range x.In {
		s += a.Size()
	}

	return s
}

func (x Method) Result() Type {
	if x.Out == nil {
		return Void
	}

	return x.Out
}

func (x Nullable) Size() int { return 1 }

func (x Nullable) Descriptor() string {
	if x.Of == nil {
		return Object.Descriptor()
	}

	return x.Of.Descriptor()
}

func (x Nullable) String() string {
	if x.Of == nil {
		return "null"
	}

	return x.Of.String() + "?"
}

func (x External) Size() int { return 1 }

func (x External) Descriptor() string { return "L" + x.Name + ";" }

func (x External) String() string { return x.Name }

// NewUnion flattens nested unions and drops duplicates.
// A single remaining type is returned as is.
func NewUnion(ts ...Type) Type {
	var u Union

	var add func(t Type)
	add = func(t Type) {
		if x, ok := t.(Union); ok {
			for _, t := range x.Types {
				add(t)
			}

			return
		}

		if !u.Has(t) {
			u.Types = append(u.Types, t)
		}
	}

	for _, t := range ts {
		add(t)
	}

	if len(u.Types) == 1 {
		return u.Types[0]
	}

	return u
}

func (x Union) Size() int { return 1 }

func (x Union) Descriptor() string { return Object.Descriptor() }

func (x Union) String() string {
	var b strings.Builder

	for i, t := range x.Types {
		if i != 0 {
			b.WriteString(" | ")
		}

		b.WriteString(t.String())
	}

	return b.String()
}

// Has reports whether t is one of the union types.
func (x Union) Has(t Type) bool {
	for _, m := range x.Types {
		if Equal(m, t) {
			return true
		}
	}

	return false
}

// IsVoid reports whether t is nil or void.
func IsVoid(t Type) bool {
	return t == nil || t == Void
}

func IsReference(t Type) bool {
	switch t.(type) {
	case External, Nullable, Union:
		return true
	default:
		return false
	}
}

func IsString(t Type) bool {
	return Equal(t, String)
}

// Equal compares types structurally.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case Primitive:
		b, ok := b.(Primitive)
		return ok && a == b
	case External:
		b, ok := b.(External)
		return ok && a == b
	case Nullable:
		b, ok := b.(Nullable)
		if !ok {
			return false
		}

		if a.Of == nil || b.Of == nil {
			return a.Of == nil && b.Of == nil
		}

		return Equal(a.Of, b.Of)
	case Method:
		b, ok := b.(Method)
		if !ok || len(a.In) != len(b.In) {
			return false
		}

		for i := range a.In {
			if !Equal(a.In[i], b.In[i]) {
				return false
			}
		}

		return Equal(a.Result(), b.Result())
	case Union:
		b, ok := b.(Union)
		if !ok || len(a.Types) != len(b.Types) {
			return false
		}

		for _, t := range a.Types {
			if !b.Has(t) {
				return false
			}
		}

		return true
	case nil:
		return b == nil
	}

	return false
}

// FromName resolves builtin type names used in source.
func FromName(name string) (Type, bool) {
	switch name {
	case "void":
		return Void, true
	case "bool", "boolean":
		return Bool, true
	case "char":
		return Char, true
	case "byte":
		return Byte, true
	case "short":
		return Short, true
	case "int":
		return Int, true
	case "long":
		return Long, true
	case "float":
		return Float, true
	case "double":
		return Double, true
	case "string", "String":
		return String, true
	case "any", "Object":
		return Object, true
	case "list":
		return List, true
	}

	return nil, false
}
