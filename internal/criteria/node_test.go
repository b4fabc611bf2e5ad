package criteria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/solq/internal/querytext"
)

func TestBuildNode(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"single lookup", map[string]any{"status": 0}, "status:0"},
		{"sorted and", map[string]any{"status": 0, "company_status__in": []any{0, 6}}, "(company_status:0 OR company_status:6) AND status:0"},
		{"free text", "blue phone", "blue phone"},
		{"list", []any{map[string]any{"a": 1}, map[string]any{"b": 2}}, "a:1 AND b:2"},
		{
			"or",
			map[string]any{"$or": []any{map[string]any{"status": 1}, map[string]any{"status": 2}}},
			"(status:1 OR status:2)",
		},
		{
			"not",
			map[string]any{"a": 1, "$not": map[string]any{"b": 2}},
			"a:1 AND NOT (b:2)",
		},
		{"empty not dropped", map[string]any{"a": 1, "$not": map[string]any{}}, "a:1"},
		{"raw", map[string]any{"$raw": "{!frange l=1}ms(NOW,created)"}, "{!frange l=1}ms(NOW,created)"},
		{"text escaped", map[string]any{"$text": "AND (x)"}, `and \(x\)`},
		{
			"timestamp",
			map[string]any{"created__gte": "2024-01-02T03:04:05Z"},
			"created:[2024-01-02T03:04:05Z TO *]",
		},
		{"date math", map[string]any{"created__gte": "NOW/DAY-7DAYS"}, "created:[NOW/DAY-7DAYS TO *]"},
		{"between list", map[string]any{"price__between": []any{500, 1000}}, "price:{500 TO 1000}"},
		{"isnull", map[string]any{"price__isnull": true}, "NOT price:[* TO *]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := BuildNode(tt.in)
			require.NoError(t, err)
			got, err := querytext.Compile(n, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildNode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   any
		code string
		path string
	}{
		{"bad shape", 42, ErrCodeInvalidValue, ""},
		{"or needs list", map[string]any{"$or": map[string]any{"a": 1}}, ErrCodeInvalidValue, "$or"},
		{"text needs string", map[string]any{"$text": 1}, ErrCodeInvalidValue, "$text"},
		{"between scalar", map[string]any{"price__between": 5}, ErrCodeInvalidLookup, "price__between"},
		{"nested path", []any{map[string]any{"a": 1}, map[string]any{"b__in": 3}}, ErrCodeInvalidLookup, "[1].b__in"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildNode(tt.in)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.code, le.Code)
			assert.Equal(t, tt.path, le.Path)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), normalize("2024-01-02T03:04:05Z"))
	assert.Equal(t, "2024-01-02", normalize("2024-01-02"))
	assert.Equal(t, []any{1, "x"}, normalize([]any{1, "x"}))
}

func TestPathRoundTrip(t *testing.T) {
	for _, p := range []path{
		{"facets", 1, "type"},
		{"filters", 0, "where", "price__in"},
		{"q"},
		{"facets", 2, "pivot", 0, "type"},
	} {
		assert.Equal(t, p, parsePath(p.String()), p.String())
	}
}
