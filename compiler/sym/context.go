package sym

import (
	"tlog.app/go/errors"

	"github.com/slowlang/ix/compiler/token"
	"github.com/slowlang/ix/compiler/tp"
)

type (
	VarKind int

	Var struct {
		Name  string
		Kind  VarKind
		Type  tp.Type
		Const bool

		Slot  int    // Local
		Owner string // Global and Field

		Tok token.Token
	}

	Scope struct {
		vars  map[string]*Var
		depth int
	}

	// Struct is a class declared in source.
	Struct struct {
		Name    string // internal name
		Fields  []*Var
		Methods *Registry
	}

	// Frame is the state of the method being emitted.
	Frame struct {
		Static bool
		Result tp.Type

		next int
		max  int
	}

	// Context is the state of one compilation unit.
	// It's not safe for concurrent use.
	Context struct {
		scopes []*Scope

		Class string

		Funcs   *Registry
		Structs map[string]*Struct

		Frame *Frame
	}
)

const (
	Local VarKind = iota
	Global
	Field
)

var ErrRedefined = errors.New("already defined")

func (k VarKind) String() string {
	switch k {
	case Local:
		return "local"
	case Global:
		return "global"
	case Field:
		return "field"
	}

	return "unknown"
}

func NewContext(class string, funcs *Registry) *Context {
	if funcs == nil {
		funcs = NewRegistry()
	}

	c := &Context{
		Class:   class,
		Funcs:   funcs,
		Structs: map[string]*Struct{},
	}

	c.Push()

	return c
}

// Push enters a nested scope.
func (c *Context) Push() {
	c.scopes = append(c.scopes, &Scope{
		vars:  map[string]*Var{},
		depth: len(c.scopes),
	})
}

// Pop leaves the innermost scope. Local slots are reused.
func (c *Context) Pop() {
	s := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]

	if c.Frame == nil {
		return
	}

	for _, v := range s.vars {
		if v.Kind == Local && v.Slot < c.Frame.next {
			c.Frame.next = v.Slot
		}
	}
}

func (c *Context) Depth() int { return len(c.scopes) - 1 }

// Global reports whether the innermost scope is the unit scope.
func (c *Context) Global() bool { return len(c.scopes) == 1 }

// Declare adds v to the innermost scope.
// Locals get the next free slot.
func (c *Context) Declare(v *Var) error {
	s := c.scopes[len(c.scopes)-1]

	if _, ok := s.vars[v.Name]; ok {
		return ErrRedefined
	}

	if v.Kind == Local {
		if c.Frame == nil {
			return errors.New("local variable %v outside of method", v.Name)
		}

		v.Slot = c.Frame.Alloc(v.Type)
	}

	s.vars[v.Name] = v

	return nil
}

// Lookup finds the innermost declaration of name.
func (c *Context) Lookup(name string) (*Var, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i].vars[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// EnterFunc starts a method frame with its own scope.
// Instance methods reserve slot 0 for this.
func (c *Context) EnterFunc(static bool, result tp.Type) *Frame {
	c.Frame = &Frame{Static: static, Result: result}

	if !static {
		c.Frame.Alloc(tp.Object)
	}

	c.Push()

	return c.Frame
}

func (c *Context) LeaveFunc() {
	c.Pop()
	c.Frame = nil
}

// Alloc reserves local slots for a value of type t.
func (f *Frame) Alloc(t tp.Type) int {
	slot := f.next
	f.next += max(t.Size(), 1)
	f.max = max(f.max, f.next)

	return slot
}

// MaxLocals is the number of local slots ever used.
func (f *Frame) MaxLocals() int { return f.max }
