package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/solq/internal/facet"
)

// FacetSnapshot is the serializable form of a bound facet.
type FacetSnapshot struct {
	Key    string          `json:"key"`
	Kind   facet.Kind      `json:"kind"`
	Field  string          `json:"field,omitempty"`
	Values []ValueSnapshot `json:"values,omitempty"`
	Ranges []RangeSnapshot `json:"ranges,omitempty"`
	Start  any             `json:"start,omitempty"`
	End    any             `json:"end,omitempty"`
	Gap    string          `json:"gap,omitempty"`
	Count  *int            `json:"count,omitempty"` // query facets that were reported
}

// ValueSnapshot is one counted value with its resolved instance.
type ValueSnapshot struct {
	Value    any            `json:"value"`
	Count    int            `json:"count"`
	Instance any            `json:"instance,omitempty"`
	Pivot    *FacetSnapshot `json:"pivot,omitempty"`
}

// RangeSnapshot is one range bucket.
type RangeSnapshot struct {
	Start any `json:"start"`
	End   any `json:"end"`
	Count int `json:"count"`
}

// SnapshotFacets captures every facet of b in request order, resolving
// instances through their mappers.
func SnapshotFacets(ctx context.Context, b *facet.Binding) ([]*FacetSnapshot, error) {
	out := []*FacetSnapshot{}
	if b == nil {
		return out, nil
	}
	for _, r := range b.Results() {
		s, err := snapshotFacet(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("facet %s: %w", r.Key, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func snapshotFacet(ctx context.Context, r *facet.Result) (*FacetSnapshot, error) {
	s := &FacetSnapshot{Key: r.Key, Kind: r.Kind, Field: r.Field}
	switch r.Kind {
	case facet.KindRange:
		s.Start, s.End, s.Gap = r.Start, r.End, r.Gap
		for _, rv := range r.Ranges {
			s.Ranges = append(s.Ranges, RangeSnapshot{Start: rv.Start, End: rv.End, Count: rv.Count})
		}
		return s, nil
	case facet.KindQuery:
		if r.Found {
			n := r.Count
			s.Count = &n
		}
		return s, nil
	}

	for _, v := range r.Values {
		inst, err := v.Instance(ctx)
		if err != nil {
			return nil, err
		}
		vs := ValueSnapshot{Value: v.Value, Count: v.Count, Instance: inst}
		if v.Pivot != nil {
			if vs.Pivot, err = snapshotFacet(ctx, v.Pivot); err != nil {
				return nil, err
			}
		}
		s.Values = append(s.Values, vs)
	}
	return s, nil
}

// Golden returns the snapshot compared against golden files: the compiled
// parameters, hit count and facets, without assertion outcomes.
func (r *Result) Golden() ([]byte, error) {
	snapshot := struct {
		Scenario  string              `json:"scenario"`
		RequestID string              `json:"request_id"`
		Params    map[string][]string `json:"params"`
		Hits      int                 `json:"hits"`
		Facets    []*FacetSnapshot    `json:"facets"`
	}{r.Scenario, r.RequestID, r.Params, r.Hits, r.Facets}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against the named golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := result.Golden()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
