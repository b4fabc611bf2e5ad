package facet

import (
	"context"
	"reflect"
	"time"
)

// Result is the bound facet for one spec, or one level of a pivot.
type Result struct {
	Kind  Kind
	Key   string
	Field string // the field of this pivot level for pivots; the query text for query facets

	// Values holds field and pivot values in response order.
	Values []*Value

	// Ranges holds range buckets. Start and End echo the response, falling
	// back to the spec; Gap is the requested gap unless only the response
	// carries one.
	Ranges []*RangeValue
	Start  any
	End    any
	Gap    string

	// Count and Found describe a query facet.
	Count int
	Found bool

	mapper  *Mapper
	binding *Binding
}

// Len returns the number of values or buckets.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Values) + len(r.Ranges)
}

// GetValue returns the value equal to v, or nil. v is a native value of the
// facet's type (int for an Integer facet, time.Time for a DateTime facet).
func (r *Result) GetValue(v any) *Value {
	if r == nil {
		return nil
	}
	for _, fv := range r.Values {
		if sameValue(fv.Value, v) {
			return fv
		}
	}
	return nil
}

// Mapper returns the instance mapper of this facet level, or nil.
func (r *Result) Mapper() *Mapper {
	if r == nil {
		return nil
	}
	return r.mapper
}

// Value is one counted facet value.
type Value struct {
	Value any
	Count int
	Pivot *Result // nested counts for pivots, nil at the leaf level

	result   *Result
	instance any
	resolved bool
}

// Result returns the facet the value belongs to.
func (v *Value) Result() *Result { return v.result }

// Instance returns the domain object for the value.
//
// The first call on any value of a mapper resolves the whole group: the
// mapper runs once with every distinct value sharing it across the binding.
// Later calls return the memoized instance, or the memoized error.
func (v *Value) Instance(ctx context.Context) (any, error) {
	if v.resolved {
		return v.instance, nil
	}
	r := v.result
	if r == nil || r.mapper == nil || r.binding == nil {
		v.resolved = true
		return nil, nil
	}
	if err := r.binding.resolve(ctx, r.mapper); err != nil {
		return nil, err
	}
	return v.instance, nil
}

// RangeValue is one range bucket, [Start, End).
type RangeValue struct {
	Start any
	End   any
	Count int

	result *Result
}

// Result returns the facet the bucket belongs to.
func (rv *RangeValue) Result() *Result { return rv.result }

func sameValue(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
