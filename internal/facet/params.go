package facet

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/solq/internal/codec"
	"github.com/roach88/solq/internal/predicate"
	"github.com/roach88/solq/internal/querytext"
)

// multiValued lists the facet parameters that repeat once per facet.
var multiValued = map[string]bool{
	"facet.field": true,
	"facet.range": true,
	"facet.query": true,
	"facet.pivot": true,
}

// MergeParams adds src into dst. Per-facet list parameters accumulate;
// every other parameter is replaced.
func MergeParams(dst, src url.Values) {
	for k, vs := range src {
		if multiValued[k] {
			dst[k] = append(dst[k], vs...)
			continue
		}
		dst[k] = append([]string(nil), vs...)
	}
}

// SpecParams returns the merged request parameters of specs.
func SpecParams(specs []Spec) (url.Values, error) {
	out := url.Values{}
	for _, s := range specs {
		p, err := s.Params()
		if err != nil {
			return nil, fmt.Errorf("facet %s: %w", s.Key(), err)
		}
		MergeParams(out, p)
	}
	return out, nil
}

func (f *FieldSpec) Params() (url.Values, error) {
	p := url.Values{}
	p.Set("facet", "true")
	head, err := querytext.RenderLocalParams(f.LocalParams)
	if err != nil {
		return nil, err
	}
	p.Add("facet.field", head+f.Field)
	if err := setOptions(p, "f."+f.Field+".facet.", f.Options); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *RangeSpec) Params() (url.Values, error) {
	p := url.Values{}
	p.Set("facet", "true")
	head, err := querytext.RenderLocalParams(r.LocalParams)
	if err != nil {
		return nil, err
	}
	p.Add("facet.range", head+r.Field)

	prefix := "f." + r.Field + ".facet.range."
	typ := typeOrText(r.Type)
	for name, v := range map[string]any{"start": r.Start, "end": r.End} {
		if v == nil {
			continue
		}
		s, err := boundParam(typ, v)
		if err != nil {
			return nil, fmt.Errorf("range %s: %w", name, err)
		}
		p.Set(prefix+name, s)
	}
	if r.Gap != nil {
		gap, err := paramString(r.Gap)
		if err != nil {
			return nil, fmt.Errorf("range gap: %w", err)
		}
		p.Set(prefix+"gap", gap)
	}

	if err := setOptions(p, prefix, r.Options); err != nil {
		return nil, err
	}
	return p, nil
}

func (q *QuerySpec) Params() (url.Values, error) {
	p := url.Values{}
	p.Set("facet", "true")
	p.Add("facet.query", q.text)
	return p, nil
}

func (ps *PivotSpec) Params() (url.Values, error) {
	if len(ps.Levels) == 0 {
		return nil, fmt.Errorf("pivot without levels")
	}
	p := url.Values{}
	p.Set("facet", "true")
	head, err := querytext.RenderLocalParams(ps.LocalParams)
	if err != nil {
		return nil, err
	}
	p.Add("facet.pivot", head+ps.Name())
	for _, l := range ps.Levels {
		if err := setOptions(p, "f."+l.Field+".facet.", l.Options); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// boundParam renders a range start or end. Date math and already-encoded
// strings pass through; other values use the facet's type.
func boundParam(typ codec.Type, v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	if _, isText := typ.(codec.Text); isText {
		return paramString(v)
	}
	return typ.ToWire(v)
}

func setOptions(p url.Values, prefix string, opts map[string]any) error {
	for name, v := range opts {
		s, err := paramString(v)
		if err != nil {
			return fmt.Errorf("option %s: %w", name, err)
		}
		p.Set(prefix+name, s)
	}
	return nil
}

// paramString renders a plain request parameter value.
func paramString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []string:
		return strings.Join(t, ","), nil
	case predicate.Trusted:
		return string(t), nil
	case *predicate.Node:
		return querytext.Compile(t, nil)
	case predicate.Func:
		return querytext.RenderFunc(t)
	case predicate.Funcs:
		return querytext.RenderFuncs(t)
	}
	return codec.Encode(v)
}

// ParamString renders a request parameter value the way facet options are
// rendered: strings verbatim, string lists comma-joined, everything else
// through the codec.
func ParamString(v any) (string, error) { return paramString(v) }
