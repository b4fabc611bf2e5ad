package facet

import "context"

// MapperFunc resolves facet values to instances. It receives the
// deduplicated native values of every facet sharing the mapper and returns
// the instance for each value it knows. Missing values resolve to nil.
type MapperFunc func(ctx context.Context, values []any) (map[any]any, error)

// Mapper is a stable handle for an instance resolver. Facets are grouped for
// resolution by handle identity, so share one *Mapper between specs that
// should be resolved together.
type Mapper struct {
	name string
	fn   MapperFunc
}

// NewMapper returns a handle for fn. The name appears in logs only.
func NewMapper(name string, fn MapperFunc) *Mapper {
	return &Mapper{name: name, fn: fn}
}

// Name returns the mapper's name.
func (m *Mapper) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// StaticMapper returns a mapper serving a fixed table.
func StaticMapper(name string, table map[any]any) *Mapper {
	return NewMapper(name, func(_ context.Context, values []any) (map[any]any, error) {
		out := make(map[any]any, len(values))
		for _, v := range values {
			if inst, ok := table[v]; ok {
				out[v] = inst
			}
		}
		return out, nil
	})
}

// group is the registry entry for one mapper: every value sharing it.
type group struct {
	values   []*Value
	resolved bool
	err      error
}
