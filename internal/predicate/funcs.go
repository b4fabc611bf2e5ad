package predicate

// Func is a function query such as recip(rord(price),1,1000,1000)^0.3.
//
// Args may hold field names (strings), numbers, booleans, times or nested
// Funcs. A zero Weight renders no boost.
type Func struct {
	Name   string
	Args   []any
	Weight float64
}

// Fn builds a Func.
func Fn(name string, args ...any) Func { return Func{Name: name, Args: args} }

// Boost returns a copy of f with the given weight.
func (f Func) Boost(weight float64) Func {
	f.Args = append([]any(nil), f.Args...)
	f.Weight = weight
	return f
}

// Plus starts a space-separated function list.
func (f Func) Plus(other Func) Funcs { return Funcs{f, other} }

// Funcs is a space-separated list of function queries, as used by the bf and
// boost parameters.
type Funcs []Func

// Plus returns a new list with f appended.
func (fs Funcs) Plus(f Func) Funcs {
	out := make(Funcs, 0, len(fs)+1)
	return append(append(out, fs...), f)
}
