package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/solq/internal/facet"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Subject  string // Parameter or facet under test
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Subject != "" {
		fmt.Fprintf(&buf, " (%s)", e.Subject)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertParam:
		return assertParam(result, a)
	case AssertHits:
		if result.Hits != *a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(result.Hits)}
		}
		return nil
	}

	f := result.Facet(a.Facet)
	if f == nil {
		return &AssertionError{Type: a.Type, Subject: a.Facet, Expected: "facet requested", Actual: "no such facet"}
	}
	switch a.Type {
	case AssertFacetLen:
		if n := len(f.Values) + len(f.Ranges); n != *a.Count {
			return &AssertionError{Type: a.Type, Subject: a.Facet, Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(n)}
		}
	case AssertFacetValue:
		return assertFacetValue(f, a)
	case AssertFacetRange:
		return assertFacetRange(f, a)
	case AssertFacetQuery:
		if f.Count == nil {
			return &AssertionError{Type: a.Type, Subject: a.Facet, Expected: fmt.Sprint(*a.Count), Actual: "not reported"}
		}
		if *f.Count != *a.Count {
			return &AssertionError{Type: a.Type, Subject: a.Facet, Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(*f.Count)}
		}
	}
	return nil
}

func assertParam(result *Result, a Assertion) error {
	got := result.Params[a.Param]
	if len(got) == 0 && len(a.Values) == 0 {
		return nil
	}
	if !reflect.DeepEqual(got, a.Values) {
		return &AssertionError{Type: a.Type, Subject: a.Param, Expected: fmt.Sprintf("%q", a.Values), Actual: fmt.Sprintf("%q", got)}
	}
	return nil
}

// assertFacetValue walks Path through the pivot levels, then checks the
// value's count and instance.
func assertFacetValue(f *FacetSnapshot, a Assertion) error {
	level := f
	for depth, step := range a.Path {
		v := findValue(level, step)
		if v == nil || v.Pivot == nil {
			return &AssertionError{Type: a.Type, Subject: a.Facet, Expected: fmt.Sprintf("pivot value %v at depth %d", step, depth), Actual: "not found"}
		}
		level = v.Pivot
	}

	v := findValue(level, a.Value)
	if v == nil {
		return &AssertionError{Type: a.Type, Subject: a.Facet, Expected: fmt.Sprintf("value %v", a.Value), Actual: fmt.Sprintf("values %s", valueList(level))}
	}
	if a.Count != nil && v.Count != *a.Count {
		return &AssertionError{Type: a.Type, Subject: a.Facet, Expected: fmt.Sprintf("value %v with count %d", a.Value, *a.Count), Actual: fmt.Sprintf("count %d", v.Count)}
	}
	if a.Instance != nil && !matchSubset(v.Instance, a.Instance) {
		return &AssertionError{Type: a.Type, Subject: a.Facet, Expected: fmt.Sprintf("instance matching %v", a.Instance), Actual: fmt.Sprintf("%v", v.Instance)}
	}
	return nil
}

func assertFacetRange(f *FacetSnapshot, a Assertion) error {
	for _, r := range f.Ranges {
		if sameToken(r.Start, a.Start) {
			if r.Count != *a.Count {
				return &AssertionError{Type: a.Type, Subject: a.Facet, Expected: fmt.Sprintf("bucket %v with count %d", a.Start, *a.Count), Actual: fmt.Sprintf("count %d", r.Count)}
			}
			return nil
		}
	}
	return &AssertionError{Type: a.Type, Subject: a.Facet, Expected: fmt.Sprintf("bucket starting at %v", a.Start), Actual: "not found"}
}

func findValue(f *FacetSnapshot, want any) *ValueSnapshot {
	for i := range f.Values {
		if sameToken(f.Values[i].Value, want) {
			return &f.Values[i]
		}
	}
	return nil
}

func valueList(f *FacetSnapshot) string {
	parts := make([]string, len(f.Values))
	for i, v := range f.Values {
		parts[i] = token(v.Value)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// matchSubset reports whether every key of want matches in got, recursively.
func matchSubset(got any, want map[string]any) bool {
	m, ok := got.(map[string]any)
	if !ok {
		return false
	}
	for k, w := range want {
		g, ok := m[k]
		if !ok {
			return false
		}
		if wm, ok := w.(map[string]any); ok {
			if !matchSubset(g, wm) {
				return false
			}
			continue
		}
		if !sameToken(g, w) {
			return false
		}
	}
	return true
}

// sameToken compares values by their wire rendering, so a YAML 1 matches
// a stored json.Number "1" and an int facet value 1.
func sameToken(a, b any) bool { return token(a) == token(b) }

func token(v any) string {
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	s, err := facet.ParamString(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
