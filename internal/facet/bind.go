package facet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/solq/internal/codec"
)

// Binding is the set of bound facets of one response, plus the instance
// registry shared by their values.
type Binding struct {
	results []*Result
	byKey   map[string]*Result
	groups  map[*Mapper]*group
}

// Bind binds every spec to its facet in section. A nil section binds every
// spec to an empty Result.
func Bind(specs []Spec, section *Section) *Binding {
	if section == nil {
		section = &Section{}
	}
	b := &Binding{
		byKey:  make(map[string]*Result, len(specs)),
		groups: make(map[*Mapper]*group),
	}
	for _, s := range specs {
		r := s.bind(b, section)
		b.results = append(b.results, r)
		b.byKey[r.Key] = r
	}
	return b
}

// Results returns the bound facets in spec order.
func (b *Binding) Results() []*Result { return append([]*Result(nil), b.results...) }

// Get returns the facet bound under key, or nil.
func (b *Binding) Get(key string) *Result { return b.byKey[key] }

// OfKind returns the bound facets of one kind in spec order.
func (b *Binding) OfKind(k Kind) []*Result {
	var out []*Result
	for _, r := range b.results {
		if r.Kind == k {
			out = append(out, r)
		}
	}
	return out
}

func (f *FieldSpec) bind(b *Binding, s *Section) *Result {
	r := &Result{Kind: KindField, Key: f.Key(), Field: f.Field, mapper: f.Mapper, binding: b}
	raw, ok := s.Fields[r.Key]
	if !ok {
		slog.Debug("facet field missing from response", "key", r.Key)
		return r
	}
	typ := typeOrText(f.Type)
	for i := 0; i < len(raw); i += 2 {
		native, err := toNative(typ, raw[i])
		if err != nil {
			slog.Debug("dropping facet value", "key", r.Key, "value", raw[i], "error", err)
			continue
		}
		count := 0
		if i+1 < len(raw) {
			c, ok := rawCount(raw[i+1])
			if !ok {
				slog.Debug("dropping facet value with bad count", "key", r.Key, "value", raw[i], "count", raw[i+1])
				continue
			}
			count = c
		}
		r.Values = append(r.Values, &Value{Value: native, Count: count, result: r})
	}
	return r
}

func (rs *RangeSpec) bind(b *Binding, s *Section) *Result {
	r := &Result{Kind: KindRange, Key: rs.Key(), Field: rs.Field, binding: b}
	typ := typeOrText(rs.Type)
	raw := s.Ranges[r.Key]

	r.Start = rangeBound(typ, raw.Start, rs.Start)
	r.End = rangeBound(typ, raw.End, rs.End)
	r.Gap, _ = paramString(rs.Gap)
	if r.Gap == "" {
		r.Gap, _ = rawToken(raw.Gap)
	}

	counts := raw.Counts
	for i := 0; i+1 < len(counts); i += 2 {
		start, err := toNative(typ, counts[i])
		if err != nil {
			slog.Debug("dropping range bucket", "key", r.Key, "start", counts[i], "error", err)
			continue
		}
		count, ok := rawCount(counts[i+1])
		if !ok {
			slog.Debug("dropping range bucket with bad count", "key", r.Key, "start", counts[i], "count", counts[i+1])
			continue
		}
		end := r.End
		for j := i + 2; j < len(counts); j += 2 {
			if next, err := toNative(typ, counts[j]); err == nil {
				end = next
				break
			}
		}
		r.Ranges = append(r.Ranges, &RangeValue{Start: start, End: end, Count: count, result: r})
	}
	return r
}

func (q *QuerySpec) bind(b *Binding, s *Section) *Result {
	r := &Result{Kind: KindQuery, Key: q.Key(), Field: q.text, binding: b}
	raw, ok := s.Queries[r.Key]
	if !ok {
		slog.Debug("facet query missing from response", "key", r.Key)
		return r
	}
	count, ok := rawCount(raw)
	if !ok {
		slog.Debug("dropping facet query with bad count", "key", r.Key, "count", raw)
		return r
	}
	r.Count, r.Found = count, true
	return r
}

func (p *PivotSpec) bind(b *Binding, s *Section) *Result {
	key := p.Key()
	raw, ok := s.Pivots[key]
	if !ok {
		slog.Debug("facet pivot missing from response", "key", key)
	}
	if len(p.Levels) == 0 {
		return &Result{Kind: KindPivot, Key: key, binding: b}
	}
	return bindPivotLevel(b, key, p.Levels, 0, raw)
}

// bindPivotLevel binds one depth of a pivot tree against levels[depth].
// Nested pivots deeper than the requested levels are ignored.
func bindPivotLevel(b *Binding, key string, levels []PivotLevel, depth int, raw []RawPivot) *Result {
	level := levels[depth]
	r := &Result{Kind: KindPivot, Key: key, Field: level.Field, mapper: level.Mapper, binding: b}
	typ := typeOrText(level.Type)

	for _, node := range raw {
		if node.Field != "" && node.Field != level.Field {
			slog.Debug("pivot field out of step", "key", key, "depth", depth, "want", level.Field, "got", node.Field)
		}
		native, err := toNative(typ, node.Value)
		if err != nil {
			slog.Debug("dropping pivot value", "key", key, "depth", depth, "value", node.Value, "error", err)
			continue
		}
		count, ok := rawCount(node.Count)
		if !ok {
			slog.Debug("dropping pivot value with bad count", "key", key, "depth", depth, "value", node.Value)
			continue
		}
		v := &Value{Value: native, Count: count, result: r}
		if len(node.Pivot) > 0 && depth+1 < len(levels) {
			v.Pivot = bindPivotLevel(b, key, levels, depth+1, node.Pivot)
		}
		r.Values = append(r.Values, v)
	}
	return r
}

// resolve runs m once for the union of values sharing it and distributes
// the instances. The outcome, error included, is memoized.
func (b *Binding) resolve(ctx context.Context, m *Mapper) error {
	g := b.groups[m]
	if g == nil {
		g = &group{values: b.collect(m)}
		b.groups[m] = g
	}
	if g.resolved {
		return g.err
	}
	g.resolved = true

	unique := make([]any, 0, len(g.values))
	seen := make(map[any]bool, len(g.values))
	for _, v := range g.values {
		if seen[v.Value] {
			continue
		}
		seen[v.Value] = true
		unique = append(unique, v.Value)
	}

	slog.Debug("resolving facet instances", "mapper", m.Name(), "values", len(unique), "facet_values", len(g.values))
	instances, err := m.fn(ctx, unique)
	if err != nil {
		g.err = fmt.Errorf("instance mapper %s: %w", m.Name(), err)
		return g.err
	}
	for _, v := range g.values {
		v.instance = instances[v.Value]
		v.resolved = true
	}
	return nil
}

// collect gathers every value whose facet level uses m, walking pivots to
// every depth.
func (b *Binding) collect(m *Mapper) []*Value {
	var out []*Value
	var walk func(r *Result)
	walk = func(r *Result) {
		for _, v := range r.Values {
			if r.mapper == m {
				out = append(out, v)
			}
			if v.Pivot != nil {
				walk(v.Pivot)
			}
		}
	}
	for _, r := range b.results {
		walk(r)
	}
	return out
}

// rangeBound converts the echoed bound, falling back to the spec's value.
func rangeBound(typ codec.Type, echoed, declared any) any {
	if echoed != nil {
		if v, err := toNative(typ, echoed); err == nil {
			return v
		}
	}
	if declared == nil {
		return nil
	}
	if s, ok := declared.(string); ok {
		if v, err := typ.ToNative(s); err == nil {
			return v
		}
		return s
	}
	wire, err := typ.ToWire(declared)
	if err != nil {
		return declared
	}
	if v, err := typ.ToNative(wire); err == nil {
		return v
	}
	return declared
}

func toNative(typ codec.Type, raw any) (any, error) {
	tok, ok := rawToken(raw)
	if !ok {
		return nil, &codec.ConversionError{Type: typ.Name(), Input: raw, Err: codec.ErrUnsupportedValue}
	}
	return typ.ToNative(tok)
}
