package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/roach88/solq/internal/codec"
	"github.com/roach88/solq/internal/facet"
	"github.com/roach88/solq/internal/predicate"
	"github.com/roach88/solq/internal/querytext"
)

// MatchAll is the q parameter sent when the query has no search clauses.
const MatchAll = "*:*"

// DefaultFields is the fl parameter sent when Only was not called.
const DefaultFields = "*,score"

// FieldWeight is one entry of a qf list.
type FieldWeight struct {
	Field  string
	Weight float64
}

// W returns a FieldWeight.
func W(field string, weight float64) FieldWeight { return FieldWeight{field, weight} }

func (fw FieldWeight) String() string {
	if fw.Weight == 0 {
		return fw.Field
	}
	return fw.Field + "^" + codec.FormatFloat(fw.Weight)
}

type filter struct {
	node *predicate.Node
	lp   *predicate.LocalParams
}

// Query is an immutable select request. Builder methods return a modified
// copy; the receiver is never changed.
//
// Errors from builder arguments are deferred: Params and Results report
// the first one.
type Query struct {
	searcher *Searcher

	q       *predicate.Node
	qlp     *predicate.LocalParams
	filters []filter
	facets  []facet.Spec
	sort    []string
	rows    *int
	start   int
	fields  []string
	defType string
	qf      []FieldWeight
	bf      predicate.Funcs
	extra   url.Values
	err     error

	fetch *fetchState
}

type fetchState struct {
	mu  sync.Mutex
	res *Results
}

// NewQuery returns a query with no searcher. It can compile parameters but
// not fetch.
func NewQuery() *Query {
	return &Query{fetch: &fetchState{}}
}

func (q *Query) clone() *Query {
	c := *q
	c.filters = append([]filter(nil), q.filters...)
	c.facets = append([]facet.Spec(nil), q.facets...)
	c.sort = append([]string(nil), q.sort...)
	c.fields = append([]string(nil), q.fields...)
	c.qf = append([]FieldWeight(nil), q.qf...)
	c.bf = append(predicate.Funcs(nil), q.bf...)
	c.extra = cloneValues(q.extra)
	c.fetch = &fetchState{}
	return &c
}

func (q *Query) fail(err error) *Query {
	c := q.clone()
	if c.err == nil {
		c.err = err
	}
	return c
}

// Search ANDs n into the main query.
func (q *Query) Search(n *predicate.Node) *Query {
	c := q.clone()
	c.q = c.q.And(n)
	return c
}

// SearchLocalParams sets the local params prefixed to the main query.
func (q *Query) SearchLocalParams(lp *predicate.LocalParams) *Query {
	c := q.clone()
	c.qlp = lp
	return c
}

// Filter adds one fq entry. lp usually carries a tag for exclusion by
// facets.
func (q *Query) Filter(n *predicate.Node, lp *predicate.LocalParams) *Query {
	if n.IsEmpty() {
		return q.clone()
	}
	c := q.clone()
	c.filters = append(c.filters, filter{node: n, lp: lp})
	return c
}

// Exclude adds one fq entry matching documents that do not match n.
func (q *Query) Exclude(n *predicate.Node, lp *predicate.LocalParams) *Query {
	if n.IsEmpty() {
		return q.clone()
	}
	return q.Filter(n.Not(), lp)
}

// Facet adds facet specs.
func (q *Query) Facet(specs ...facet.Spec) *Query {
	c := q.clone()
	for _, s := range specs {
		if s != nil {
			c.facets = append(c.facets, s)
		}
	}
	return c
}

// FacetField adds a field facet.
func (q *Query) FacetField(spec *facet.FieldSpec) *Query { return q.Facet(spec) }

// FacetRange adds a range facet.
func (q *Query) FacetRange(spec *facet.RangeSpec) *Query { return q.Facet(spec) }

// FacetPivot adds a pivot facet.
func (q *Query) FacetPivot(spec *facet.PivotSpec) *Query { return q.Facet(spec) }

// FacetQuery adds a query facet for n.
func (q *Query) FacetQuery(n *predicate.Node, lp *predicate.LocalParams) *Query {
	spec, err := facet.NewQuerySpec(n, lp)
	if err != nil {
		return q.fail(err)
	}
	return q.Facet(spec)
}

// OrderBy replaces the sort order. A leading "-" sorts descending.
func (q *Query) OrderBy(fields ...string) *Query {
	c := q.clone()
	c.sort = c.sort[:0]
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "-"):
			c.sort = append(c.sort, f[1:]+" desc")
		case strings.HasPrefix(f, "+"):
			c.sort = append(c.sort, f[1:]+" asc")
		case f != "":
			c.sort = append(c.sort, f+" asc")
		}
	}
	return c
}

// Limit sets rows.
func (q *Query) Limit(n int) *Query {
	if n < 0 {
		return q.fail(fmt.Errorf("negative limit %d", n))
	}
	c := q.clone()
	c.rows = &n
	return c
}

// Offset sets start.
func (q *Query) Offset(n int) *Query {
	if n < 0 {
		return q.fail(fmt.Errorf("negative offset %d", n))
	}
	c := q.clone()
	c.start = n
	return c
}

// Only restricts the returned fields.
func (q *Query) Only(fields ...string) *Query {
	c := q.clone()
	c.fields = append(c.fields[:0], fields...)
	return c
}

// Dismax switches the query parser to dismax.
func (q *Query) Dismax() *Query {
	c := q.clone()
	c.defType = "dismax"
	return c
}

// Edismax switches the query parser to edismax.
func (q *Query) Edismax() *Query {
	c := q.clone()
	c.defType = "edismax"
	return c
}

// Qf sets the weighted query fields.
func (q *Query) Qf(fields ...FieldWeight) *Query {
	c := q.clone()
	c.qf = append(c.qf[:0], fields...)
	return c
}

// Bf adds boost functions.
func (q *Query) Bf(fs ...predicate.Func) *Query {
	c := q.clone()
	c.bf = append(c.bf, fs...)
	return c
}

// SetParam sets a raw parameter, replacing earlier values and anything the
// builder would otherwise send under name. No values removes it.
func (q *Query) SetParam(name string, values ...any) *Query {
	c := q.clone()
	if c.extra == nil {
		c.extra = url.Values{}
	}
	rendered := make([]string, 0, len(values))
	for _, v := range values {
		s, err := facet.ParamString(v)
		if err != nil {
			return q.fail(fmt.Errorf("param %s: %w", name, err))
		}
		rendered = append(rendered, s)
	}
	c.extra[name] = rendered
	return c
}

// Specs returns the facet specs in request order.
func (q *Query) Specs() []facet.Spec { return append([]facet.Spec(nil), q.facets...) }

// Err returns the first deferred builder error.
func (q *Query) Err() error { return q.err }

// Params compiles the request parameters.
func (q *Query) Params() (url.Values, error) {
	if q.err != nil {
		return nil, q.err
	}

	p := url.Values{}
	rows := DefaultRows
	if q.searcher != nil {
		facet.MergeParams(p, q.searcher.defaults)
		rows = q.searcher.rows
	}
	if q.rows != nil {
		rows = *q.rows
	}

	text, err := querytext.Compile(q.q, q.qlp)
	if err != nil {
		return nil, fmt.Errorf("compile q: %w", err)
	}
	if q.q.IsEmpty() {
		text += MatchAll
	}
	p.Set("q", text)

	fqs := make([]string, 0, len(q.filters))
	for i, f := range q.filters {
		s, err := querytext.Compile(f.node, f.lp)
		if err != nil {
			return nil, fmt.Errorf("compile fq %d: %w", i, err)
		}
		fqs = append(fqs, s)
	}
	if len(fqs) > 0 {
		p["fq"] = append(p["fq"], fqs...)
	}

	if len(q.sort) > 0 {
		p.Set("sort", strings.Join(q.sort, ","))
	}
	p.Set("rows", strconv.Itoa(rows))
	if q.start > 0 {
		p.Set("start", strconv.Itoa(q.start))
	}
	if len(q.fields) > 0 {
		p.Set("fl", strings.Join(q.fields, ","))
	} else if p.Get("fl") == "" {
		p.Set("fl", DefaultFields)
	}
	if q.defType != "" {
		p.Set("defType", q.defType)
	}
	if len(q.qf) > 0 {
		parts := make([]string, len(q.qf))
		for i, fw := range q.qf {
			parts[i] = fw.String()
		}
		p.Set("qf", strings.Join(parts, " "))
	}
	if len(q.bf) > 0 {
		bf, err := querytext.RenderFuncs(q.bf)
		if err != nil {
			return nil, fmt.Errorf("render bf: %w", err)
		}
		p.Set("bf", bf)
	}

	fp, err := facet.SpecParams(q.facets)
	if err != nil {
		return nil, err
	}
	facet.MergeParams(p, fp)

	for k, vs := range q.extra {
		if len(vs) == 0 {
			p.Del(k)
			continue
		}
		p[k] = append([]string(nil), vs...)
	}
	return p, nil
}

// Results fetches the query, at most once, and binds its facets.
func (q *Query) Results(ctx context.Context) (*Results, error) {
	q.fetch.mu.Lock()
	defer q.fetch.mu.Unlock()
	if q.fetch.res != nil {
		return q.fetch.res, nil
	}

	if q.searcher == nil {
		return nil, ErrNoTransport
	}
	params, err := q.Params()
	if err != nil {
		return nil, err
	}
	resp, err := q.searcher.Select(ctx, params)
	if err != nil {
		return nil, err
	}

	q.fetch.res = newResults(resp, params, facet.Bind(q.facets, resp.Facets))
	return q.fetch.res, nil
}

// Fetched reports whether Results has succeeded.
func (q *Query) Fetched() bool {
	q.fetch.mu.Lock()
	defer q.fetch.mu.Unlock()
	return q.fetch.res != nil
}

// Facets returns the bound facets of the fetched response.
func (q *Query) Facets() (*facet.Binding, error) {
	q.fetch.mu.Lock()
	defer q.fetch.mu.Unlock()
	if q.fetch.res == nil {
		return nil, ErrResultsNotReady
	}
	return q.fetch.res.facets, nil
}

// FacetResult returns one bound facet of the fetched response, or nil when
// key was not requested.
func (q *Query) FacetResult(key string) (*facet.Result, error) {
	b, err := q.Facets()
	if err != nil {
		return nil, err
	}
	return b.Get(key), nil
}

// Count returns the number of matching documents. A fetched query answers
// from its results; otherwise a rows=0 request without facets is sent.
func (q *Query) Count(ctx context.Context) (int, error) {
	q.fetch.mu.Lock()
	res := q.fetch.res
	q.fetch.mu.Unlock()
	if res != nil {
		return res.Hits, nil
	}

	c := q.Limit(0)
	c.facets = nil
	r, err := c.Results(ctx)
	if err != nil {
		return 0, err
	}
	return r.Hits, nil
}
