package harness

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/solq/internal/facet"
)

func intp(n int) *int { return &n }

func sampleResult() *Result {
	r := NewResult("sample")
	r.Params = url.Values{"fq": {"a:1", "b:2"}}
	r.Hits = 10
	r.Facets = []*FacetSnapshot{
		{Key: "category", Kind: facet.KindField, Field: "category", Values: []ValueSnapshot{
			{Value: 1, Count: 6, Instance: map[string]any{"name": "Phones", "rank": json.Number("3")}},
			{Value: 2, Count: 4},
		}},
		{Key: "price", Kind: facet.KindRange, Field: "price", Ranges: []RangeSnapshot{
			{Start: 0.0, End: 50.0, Count: 7},
			{Start: 50.0, End: 100.0, Count: 3},
		}},
		{Key: "released", Kind: facet.KindRange, Field: "released", Ranges: []RangeSnapshot{
			{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Count: 2},
		}},
		{Key: "cheap", Kind: facet.KindQuery, Field: "price:[* TO 10]", Count: intp(1)},
		{Key: "missing", Kind: facet.KindQuery, Field: "price:[1000 TO *]"},
		{Key: "category,brand", Kind: facet.KindPivot, Field: "category", Values: []ValueSnapshot{
			{Value: 1, Count: 6, Pivot: &FacetSnapshot{Key: "category,brand", Kind: facet.KindPivot, Field: "brand", Values: []ValueSnapshot{
				{Value: "acme", Count: 5},
			}}},
		}},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertParam, Param: "fq", Values: []string{"a:1", "b:2"}},
		{Type: AssertParam, Param: "sort"},
		{Type: AssertHits, Count: intp(10)},
		{Type: AssertFacetLen, Facet: "category", Count: intp(2)},
		{Type: AssertFacetLen, Facet: "price", Count: intp(2)},
		{Type: AssertFacetValue, Facet: "category", Value: 1, Count: intp(6)},
		{Type: AssertFacetValue, Facet: "category", Value: 1, Instance: map[string]any{"rank": 3}},
		{Type: AssertFacetRange, Facet: "price", Start: 50, Count: intp(3)},
		{Type: AssertFacetRange, Facet: "released", Start: "2024-01-01T00:00:00Z", Count: intp(2)},
		{Type: AssertFacetQuery, Facet: "cheap", Count: intp(1)},
		{Type: AssertFacetValue, Facet: "category,brand", Path: []any{1}, Value: "acme", Count: intp(5)},
	}

	assert.Empty(t, EvaluateAssertions(sampleResult(), assertions))
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"param values", Assertion{Type: AssertParam, Param: "fq", Values: []string{"a:1"}}, `Actual: ["a:1" "b:2"]`},
		{"hits", Assertion{Type: AssertHits, Count: intp(9)}, "Expected: 9"},
		{"no facet", Assertion{Type: AssertFacetLen, Facet: "brand", Count: intp(1)}, "no such facet"},
		{"len", Assertion{Type: AssertFacetLen, Facet: "category", Count: intp(3)}, "Actual: 2"},
		{"missing value", Assertion{Type: AssertFacetValue, Facet: "category", Value: 3, Count: intp(1)}, "values [1 2]"},
		{"value count", Assertion{Type: AssertFacetValue, Facet: "category", Value: 2, Count: intp(5)}, "count 4"},
		{"instance", Assertion{Type: AssertFacetValue, Facet: "category", Value: 1, Instance: map[string]any{"name": "Tablets"}}, "instance matching"},
		{"no instance", Assertion{Type: AssertFacetValue, Facet: "category", Value: 2, Instance: map[string]any{"name": "Tablets"}}, "instance matching"},
		{"bad path", Assertion{Type: AssertFacetValue, Facet: "category,brand", Path: []any{2}, Value: "acme", Count: intp(5)}, "pivot value 2 at depth 0"},
		{"bucket count", Assertion{Type: AssertFacetRange, Facet: "price", Start: 0, Count: intp(1)}, "count 7"},
		{"no bucket", Assertion{Type: AssertFacetRange, Facet: "price", Start: 25, Count: intp(1)}, "bucket starting at 25"},
		{"query count", Assertion{Type: AssertFacetQuery, Facet: "cheap", Count: intp(2)}, "Actual: 1"},
		{"query not reported", Assertion{Type: AssertFacetQuery, Facet: "missing", Count: intp(0)}, "not reported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], "assertions[0]")
			assert.Contains(t, errs[0], "Assertion failed: "+tt.assertion.Type)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: AssertHits, Expected: "3", Actual: "2"}
	assert.Equal(t, "Assertion failed: hits\n  Expected: 3\n  Actual: 2", err.Error())

	err = &AssertionError{Type: AssertFacetLen, Subject: "brand", Expected: "1", Actual: "0"}
	assert.Equal(t, "Assertion failed: facet_len (brand)\n  Expected: 1\n  Actual: 0", err.Error())
}
