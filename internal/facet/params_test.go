package facet

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/solq/internal/codec"
	"github.com/roach88/solq/internal/predicate"
)

func TestFieldSpec_Params(t *testing.T) {
	spec := &FieldSpec{
		Field:       "category",
		LocalParams: predicate.MustLocalParams("", predicate.P("ex", "cat"), predicate.P("key", "category_all")),
		Options:     map[string]any{"mincount": 1, "sort": "count"},
	}

	p, err := spec.Params()
	require.NoError(t, err)
	assert.Equal(t, "true", p.Get("facet"))
	assert.Equal(t, []string{"{!ex=cat key=category_all}category"}, p["facet.field"])
	assert.Equal(t, "1", p.Get("f.category.facet.mincount"))
	assert.Equal(t, "count", p.Get("f.category.facet.sort"))
	assert.Equal(t, "category_all", spec.Key())
}

func TestRangeSpec_Params(t *testing.T) {
	spec := &RangeSpec{
		Field:   "price",
		Start:   0,
		End:     120.5,
		Gap:     30,
		Type:    codec.Float{},
		Options: map[string]any{"hardend": true, "other": []string{"before", "after"}},
	}

	p, err := spec.Params()
	require.NoError(t, err)
	assert.Equal(t, []string{"price"}, p["facet.range"])
	assert.Equal(t, "0", p.Get("f.price.facet.range.start"))
	assert.Equal(t, "120.5", p.Get("f.price.facet.range.end"))
	assert.Equal(t, "30", p.Get("f.price.facet.range.gap"))
	assert.Equal(t, "true", p.Get("f.price.facet.range.hardend"))
	assert.Equal(t, "before,after", p.Get("f.price.facet.range.other"))
}

func TestRangeSpec_ParamsDateMath(t *testing.T) {
	spec := &RangeSpec{Field: "created", Start: "NOW/DAY-7DAYS", End: "NOW/DAY", Gap: "+1DAY", Type: codec.DateTime{}}

	p, err := spec.Params()
	require.NoError(t, err)
	assert.Equal(t, "NOW/DAY-7DAYS", p.Get("f.created.facet.range.start"))
	assert.Equal(t, "NOW/DAY", p.Get("f.created.facet.range.end"))
	assert.Equal(t, "+1DAY", p.Get("f.created.facet.range.gap"))
}

func TestRangeSpec_ParamsDateMathValues(t *testing.T) {
	spec := &RangeSpec{
		Field: "created",
		Start: codec.DateMath("NOW/DAY-7DAYS"),
		End:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Gap:   "+1DAY",
		Type:  codec.DateTime{},
	}

	p, err := spec.Params()
	require.NoError(t, err)
	assert.Equal(t, "NOW/DAY-7DAYS", p.Get("f.created.facet.range.start"))
	assert.Equal(t, "2024-01-03T00:00:00Z", p.Get("f.created.facet.range.end"))

	_, err = (&RangeSpec{Field: "created", Start: codec.DateMath("NOW/WEEK"), Type: codec.DateTime{}}).Params()
	require.Error(t, err)
}

func TestRangeSpec_ParamsSkipsUnsetBounds(t *testing.T) {
	p, err := (&RangeSpec{Field: "price"}).Params()
	require.NoError(t, err)
	_, hasStart := p["f.price.facet.range.start"]
	_, hasGap := p["f.price.facet.range.gap"]
	assert.False(t, hasStart)
	assert.False(t, hasGap)
}

func TestRangeSpec_ParamsBadBound(t *testing.T) {
	_, err := (&RangeSpec{Field: "n", Start: 1.5, Type: codec.Integer{}}).Params()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "range start")
}

func TestQuerySpec_Params(t *testing.T) {
	q, err := NewQuerySpec(predicate.Or(predicate.Eq("status", 0), predicate.Eq("status", 1)), nil)
	require.NoError(t, err)

	p, err := q.Params()
	require.NoError(t, err)
	assert.Equal(t, []string{"(status:0 OR status:1)"}, p["facet.query"])
	assert.Equal(t, q.Text(), q.Key())
}

func TestPivotSpec_Params(t *testing.T) {
	spec := &PivotSpec{
		Levels: []PivotLevel{
			{Field: "cat", Options: map[string]any{"limit": 5}},
			{Field: "brand"},
		},
		LocalParams: predicate.MustLocalParams("", predicate.P("ex", "brand")),
	}

	p, err := spec.Params()
	require.NoError(t, err)
	assert.Equal(t, []string{"{!ex=brand}cat,brand"}, p["facet.pivot"])
	assert.Equal(t, "5", p.Get("f.cat.facet.limit"))
	assert.Equal(t, "cat,brand", spec.Key())

	_, err = (&PivotSpec{}).Params()
	require.Error(t, err)
}

func TestSpecParams_Merges(t *testing.T) {
	q, err := NewQuerySpec(predicate.And(predicate.Lte("price", 100)), nil)
	require.NoError(t, err)

	p, err := SpecParams([]Spec{
		&FieldSpec{Field: "category"},
		&FieldSpec{Field: "brand", Options: map[string]any{"limit": 10}},
		q,
		Pivot("cat", "brand"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"true"}, p["facet"])
	assert.Equal(t, []string{"category", "brand"}, p["facet.field"])
	assert.Equal(t, []string{"price:[* TO 100]"}, p["facet.query"])
	assert.Equal(t, []string{"cat,brand"}, p["facet.pivot"])
	assert.Equal(t, "10", p.Get("f.brand.facet.limit"))
}

func TestSpecParams_WrapsError(t *testing.T) {
	_, err := SpecParams([]Spec{&PivotSpec{LocalParams: predicate.MustLocalParams("", predicate.P("key", "empty"))}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "facet empty")
}

func TestMergeParams(t *testing.T) {
	dst := url.Values{"facet.field": {"a"}, "rows": {"10"}}
	MergeParams(dst, url.Values{"facet.field": {"b"}, "rows": {"20"}, "facet": {"true"}})

	assert.Equal(t, []string{"a", "b"}, dst["facet.field"])
	assert.Equal(t, []string{"20"}, dst["rows"])
	assert.Equal(t, []string{"true"}, dst["facet"])
}

func TestParamString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"count", "count"},
		{[]string{"a", "b"}, "a,b"},
		{3, "3"},
		{true, "true"},
		{predicate.Fn("sum", "popularity", 1), "sum(popularity,1)"},
	}
	for _, tt := range tests {
		got, err := ParamString(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParamString(struct{}{})
	require.Error(t, err)
}
