package sym

import (
	"sort"

	"tlog.app/go/errors"

	"github.com/slowlang/ix/compiler/tp"
)

type (
	Dispatch int

	// Func is a resolved callable.
	Func struct {
		Kind  Dispatch
		Name  string
		Owner string // internal class name
		Sig   tp.Method

		// Local is set for functions declared in the compiled source.
		Local bool
	}

	// Registry maps function names to overloads in declaration order.
	Registry struct {
		funcs map[string][]Func
		names []string
	}

	candidate struct {
		f    Func
		cost int
	}
)

const (
	Static Dispatch = iota
	InstanceVirtual
	HostOutputVirtual
)

const OutputOwner = "java/io/PrintStream"

func (d Dispatch) String() string {
	switch d {
	case Static:
		return "static"
	case InstanceVirtual:
		return "virtual"
	case HostOutputVirtual:
		return "output"
	}

	return "unknown"
}

func (f Func) String() string {
	return f.Owner + "." + f.Name + f.Sig.Descriptor()
}

func NewRegistry() *Registry {
	return &Registry{
		funcs: map[string][]Func{},
	}
}

// Builtins is a registry with print and println overloads.
func Builtins() *Registry {
	r := NewRegistry()

	for _, name := range []string{"print", "println"} {
		for _, in := range [][]tp.Type{
			nil,
			{tp.Double},
			{tp.Float},
			{tp.Int},
			{tp.Bool},
			{tp.Char},
			{tp.Long},
			{tp.Object},
		} {
			r.add(Func{
				Kind:  HostOutputVirtual,
				Name:  name,
				Owner: OutputOwner,
				Sig:   tp.Method{In: in},
			})
		}
	}

	return r
}

// Add registers a function. Redefinition with the same argument descriptors
// is an error unless a local function shadows a host one.
func (r *Registry) Add(f Func) error {
	in := tp.Method{In: f.Sig.In}.Descriptor()

	for _, prev := range r.funcs[f.Name] {
		if (prev.Local || !f.Local) && (tp.Method{In: prev.Sig.In}).Descriptor() == in {
			return errors.New("function '%s' is already defined with signature %s", f.Name, prev.Sig.Descriptor())
		}
	}

	r.add(f)

	return nil
}

func (r *Registry) add(f Func) {
	if _, ok := r.funcs[f.Name]; !ok {
		r.names = append(r.names, f.Name)
	}

	r.funcs[f.Name] = append(r.funcs[f.Name], f)
}

// Has reports whether any overload with the name exists.
func (r *Registry) Has(name string) bool {
	return len(r.funcs[name]) != 0
}

func (r *Registry) Overloads(name string) []Func {
	return r.funcs[name]
}

// FindExact finds the overload with exactly the argument types.
func (r *Registry) FindExact(name string, in []tp.Type) (Func, bool) {
	for _, f := range r.funcs[name] {
		if tp.Equal(tp.Method{In: f.Sig.In}, tp.Method{In: in}) {
			return f, true
		}
	}

	return Func{}, false
}

// Lookup picks the best overload for the argument types.
// The fewest conversions win. On ties local functions go first,
// then declaration order.
func (r *Registry) Lookup(name string, args []tp.Type) (Func, bool) {
	var cs []candidate

	for _, a := range args {
		if tp.IsVoid(a) {
			return Func{}, false
		}
	}

next:
	for _, f := range r.funcs[name] {
		if len(f.Sig.In) != len(args) {
			continue
		}

		cost := 0

		for i, a := range args {
			c, ok := tp.AssignCost(f.Sig.In[i], a)
			if !ok {
				continue next
			}

			cost += c
		}

		cs = append(cs, candidate{f: f, cost: cost})
	}

	if len(cs) == 0 {
		return Func{}, false
	}

	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].cost != cs[j].cost {
			return cs[i].cost < cs[j].cost
		}

		return cs[i].f.Local && !cs[j].f.Local
	})

	return cs[0].f, true
}

// Merge adds all functions of x. Conflicting definitions are errors.
func (r *Registry) Merge(x *Registry) error {
	for _, f := range x.All() {
		err := r.Add(f)
		if err != nil {
			return errors.Wrap(err, "merge")
		}
	}

	return nil
}

// All returns functions grouped by name in order of first declaration.
func (r *Registry) All() (l []Func) {
	for _, n := range r.names {
		l = append(l, r.funcs[n]...)
	}

	return l
}

func (r *Registry) Len() (n int) {
	for _, fs := range r.funcs {
		n += len(fs)
	}

	return n
}
