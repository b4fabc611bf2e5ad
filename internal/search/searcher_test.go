package search

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/solq/internal/codec"
	"github.com/roach88/solq/internal/facet"
	"github.com/roach88/solq/internal/predicate"
	"github.com/roach88/solq/internal/testutil"
)

const productsResponse = `{
	"responseHeader": {"status": 0, "QTime": 4},
	"response": {"numFound": 42, "start": 0, "docs": [
		{"id": "p1", "name": "Phone", "price": 99.5},
		{"id": "p2", "name": "Tablet", "price": 300}
	]},
	"facet_counts": {
		"facet_queries": {"price:[* TO 100]": 17},
		"facet_fields": {"category_all": ["1", 30, "2", 12], "category": ["1", 30]},
		"facet_ranges": {"price": {"counts": ["0.0", 1370, "30.0", 404, "60.0", 207, "90.0", 132], "start": 0.0, "end": 120.0, "gap": 30.0}},
		"facet_pivot": {"category,brand": [
			{"field": "category", "value": 1, "count": 30, "pivot": [
				{"field": "brand", "value": "acme", "count": 20}
			]}
		]}
	}
}`

func newSearcher(tr Transport, opts ...Option) *Searcher {
	opts = append([]Option{WithIDGenerator(testutil.NewSequentialIDGenerator("req"))}, opts...)
	return New(tr, opts...)
}

func TestResults_FetchAndBind(t *testing.T) {
	tr := testutil.NewStaticTransport(productsResponse)
	s := newSearcher(tr)

	categories := facet.StaticMapper("categories", map[any]any{1: "Phones", 2: "Tablets"})
	ex := predicate.MustLocalParams("", predicate.P("ex", []string{"category"}), predicate.P("key", "category_all"))

	q := s.Query().
		Filter(predicate.And(predicate.Eq("category", 1)), predicate.MustLocalParams("", predicate.P("tag", []string{"category"}))).
		FacetField(&facet.FieldSpec{Field: "category", LocalParams: ex, Type: codec.Integer{}, Mapper: categories}).
		FacetField(&facet.FieldSpec{Field: "category", Type: codec.Integer{}, Mapper: categories}).
		FacetRange(&facet.RangeSpec{Field: "price", Start: 0, End: 120, Gap: 30, Type: codec.Float{}}).
		FacetQuery(predicate.And(predicate.Lte("price", 100)), nil).
		FacetPivot(&facet.PivotSpec{Levels: []facet.PivotLevel{
			{Field: "category", Type: codec.Integer{}, Mapper: categories},
			{Field: "brand"},
		}})

	_, err := q.Facets()
	require.ErrorIs(t, err, ErrResultsNotReady)
	assert.False(t, q.Fetched())

	ctx := context.Background()
	res, err := q.Results(ctx)
	require.NoError(t, err)
	assert.True(t, q.Fetched())

	assert.Equal(t, "req-1", res.RequestID)
	assert.Equal(t, 42, res.Hits)
	assert.Equal(t, 4, res.QTime)
	require.Equal(t, 2, res.Len())
	assert.Equal(t, "Phone", res.Docs[0]["name"])
	assert.Equal(t, "{!tag=category}category:1", res.Params.Get("fq"))

	all := res.Facet("category_all")
	require.Len(t, all.Values, 2)
	inst, err := all.Values[1].Instance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tablets", inst)

	r := res.Facet("price")
	require.Len(t, r.Ranges, 4)
	assert.Equal(t, 120.0, r.Ranges[3].End)

	qf, err := q.FacetResult("price:[* TO 100]")
	require.NoError(t, err)
	assert.Equal(t, 17, qf.Count)

	pivot := res.Facet("category,brand")
	top := pivot.GetValue(1)
	require.NotNil(t, top)
	inst, err = top.Instance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Phones", inst)
	assert.Nil(t, top.Pivot.Values[0].Pivot)

	again, err := q.Results(ctx)
	require.NoError(t, err)
	assert.Same(t, res, again)
	assert.Equal(t, 1, tr.Calls())
}

func TestResults_ClonesFetchSeparately(t *testing.T) {
	tr := testutil.NewStaticTransport(productsResponse)
	base := newSearcher(tr).Query()
	ctx := context.Background()

	_, err := base.Results(ctx)
	require.NoError(t, err)

	page2 := base.Offset(10)
	assert.False(t, page2.Fetched())
	_, err = page2.Results(ctx)
	require.NoError(t, err)

	require.Equal(t, 2, tr.Calls())
	assert.Equal(t, "10", tr.Requests()[1].Get("start"))
}

func TestCount(t *testing.T) {
	tr := testutil.NewStaticTransport(productsResponse)
	q := newSearcher(tr).Query().FacetField(&facet.FieldSpec{Field: "category"})
	ctx := context.Background()

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	require.Equal(t, 1, tr.Calls())
	req := tr.Requests()[0]
	assert.Equal(t, "0", req.Get("rows"))
	assert.Empty(t, req.Get("facet"))
	assert.False(t, q.Fetched(), "count does not fetch the page")

	_, err = q.Results(ctx)
	require.NoError(t, err)
	n, err = q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, 2, tr.Calls())
}

func TestResults_NoTransport(t *testing.T) {
	_, err := NewQuery().Results(context.Background())
	require.ErrorIs(t, err, ErrNoTransport)

	_, err = New(nil).Query().Results(context.Background())
	require.ErrorIs(t, err, ErrNoTransport)
}

func TestResults_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	tr := testutil.NewStaticTransport("{}").FailWith(boom)
	q := newSearcher(tr).Query()

	_, err := q.Results(context.Background())
	require.ErrorIs(t, err, boom)
	assert.True(t, IsTransportError(err))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "req-1", te.RequestID)
	assert.Contains(t, te.Params, "q=%2A%3A%2A")
	assert.False(t, q.Fetched(), "a failed fetch is not memoized")
}

func TestResults_ResponseError(t *testing.T) {
	tr := testutil.NewStaticTransport(`{"error": {"code": 400, "msg": "undefined field foo"}}`)

	_, err := newSearcher(tr).Query().Results(context.Background())
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 400, re.Code)
	assert.Contains(t, err.Error(), "undefined field foo")
}

func TestResults_UndecodableBody(t *testing.T) {
	tr := testutil.NewStaticTransport(`<html>`)
	_, err := newSearcher(tr).Query().Results(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestSearcher_Cache(t *testing.T) {
	tr := testutil.NewStaticTransport(productsResponse)
	s := newSearcher(tr, WithCache(8))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := s.Query().Limit(5).Results(ctx)
		require.NoError(t, err)
		assert.Equal(t, 42, res.Hits)
	}
	assert.Equal(t, 1, tr.Calls())

	_, err := s.Query().Limit(6).Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Calls())
}

func TestSearcher_NoCacheByDefault(t *testing.T) {
	tr := testutil.NewStaticTransport(productsResponse)
	s := newSearcher(tr, WithCache(0))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.Query().Results(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, tr.Calls())
}

func TestSearcher_LogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tr := testutil.NewStaticTransport(productsResponse)

	_, err := newSearcher(tr, WithLogger(logger)).Query().Results(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "request_id=req-1")
}

func TestTransportFunc(t *testing.T) {
	called := false
	s := New(TransportFunc(func(_ context.Context, _ url.Values) ([]byte, error) {
		called = true
		return []byte(`{"response": {"numFound": 0, "docs": []}}`), nil
	}))

	res, err := s.Query().Results(context.Background())
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 0, res.Hits)
	assert.NotEmpty(t, res.RequestID)
	assert.Nil(t, res.Facet("anything"))
}

func TestSearcher_CancelledCallerDoesNotFailSharedSelect(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	tr := TransportFunc(func(ctx context.Context, _ url.Values) ([]byte, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
			return []byte(productsResponse), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	s := newSearcher(tr)
	params := url.Values{"q": {"*:*"}}

	ctx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := s.Select(ctx, params)
		leaderErr <- err
	}()
	<-started
	cancel()

	err := <-leaderErr
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	type outcome struct {
		resp *Response
		err  error
	}
	follower := make(chan outcome, 1)
	go func() {
		resp, err := s.Select(context.Background(), params)
		follower <- outcome{resp, err}
	}()
	close(release)

	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, 42, got.resp.NumFound)
}
