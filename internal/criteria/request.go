package criteria

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/solq/internal/codec"
	"github.com/roach88/solq/internal/facet"
	"github.com/roach88/solq/internal/predicate"
	"github.com/roach88/solq/internal/search"
)

// Request is a built request document, ready to apply to a search.Query.
type Request struct {
	Query       *predicate.Node
	LocalParams *predicate.LocalParams
	Filters     []Filter
	Facets      []facet.Spec
	Sort        []string
	Rows        *int
	Start       int
	Fields      []string
	DefType     string
	Qf          []search.FieldWeight
	Params      map[string]any
}

// Filter is one fq entry.
type Filter struct {
	Node        *predicate.Node
	LocalParams *predicate.LocalParams
	Exclude     bool
}

// Apply adds the request to q and returns the refined query.
func (r *Request) Apply(q *search.Query) *search.Query {
	q = q.Search(r.Query)
	if r.LocalParams != nil {
		q = q.SearchLocalParams(r.LocalParams)
	}
	for _, f := range r.Filters {
		if f.Exclude {
			q = q.Exclude(f.Node, f.LocalParams)
		} else {
			q = q.Filter(f.Node, f.LocalParams)
		}
	}
	q = q.Facet(r.Facets...)
	if len(r.Sort) > 0 {
		q = q.OrderBy(r.Sort...)
	}
	if r.Rows != nil {
		q = q.Limit(*r.Rows)
	}
	if r.Start > 0 {
		q = q.Offset(r.Start)
	}
	if len(r.Fields) > 0 {
		q = q.Only(r.Fields...)
	}
	switch r.DefType {
	case "dismax":
		q = q.Dismax()
	case "edismax":
		q = q.Edismax()
	case "":
	default:
		q = q.SetParam("defType", r.DefType)
	}
	if len(r.Qf) > 0 {
		q = q.Qf(r.Qf...)
	}
	for _, name := range sortedKeys(r.Params) {
		v := r.Params[name]
		if list, ok := v.([]any); ok {
			q = q.SetParam(name, list...)
			continue
		}
		q = q.SetParam(name, v)
	}
	return q
}

// MapperSource supplies instance mappers by kind. *store.Store implements it.
type MapperSource interface {
	Mapper(kind string) *facet.Mapper
}

// Loader builds requests. Mapper handles are cached per kind, so facets
// naming the same kind share one handle and resolve together.
//
// The zero Loader builds requests without instance mappers.
type Loader struct {
	Mappers MapperSource

	cache map[string]*facet.Mapper
}

// NewLoader returns a loader resolving facet mappers through src.
func NewLoader(src MapperSource) *Loader {
	return &Loader{Mappers: src}
}

// LoadFile reads and builds a .yaml, .yml or .cue request document.
func (l *Loader) LoadFile(name string) (*Request, error) {
	src, err := readFile(name)
	if err != nil {
		return nil, err
	}
	return l.build(src)
}

// Parse builds a request document held in memory. filename is used in CUE
// positions only.
func (l *Loader) Parse(data []byte, format Format, filename string) (*Request, error) {
	src, err := decode(data, format, filename)
	if err != nil {
		return nil, err
	}
	return l.build(src)
}

// LoadFile reads and builds a request document without instance mappers.
func LoadFile(name string) (*Request, error) { return (&Loader{}).LoadFile(name) }

// Parse builds an in-memory request document without instance mappers.
func Parse(data []byte, format Format) (*Request, error) {
	return (&Loader{}).Parse(data, format, "request."+string(format))
}

func (l *Loader) build(src *source) (*Request, error) {
	req, err := l.buildRequest(&src.doc)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && !le.Pos.IsValid() && le.Path != "" {
			le.Pos = src.pos(parsePath(le.Path))
		}
		return nil, err
	}
	return req, nil
}

func (l *Loader) buildRequest(doc *Document) (*Request, error) {
	req := &Request{
		Sort:    doc.Sort,
		Rows:    doc.Rows,
		Start:   doc.Start,
		Fields:  doc.Fields,
		DefType: doc.DefType,
	}
	if doc.Rows != nil && *doc.Rows < 0 {
		return nil, errorf(ErrCodeInvalidValue, path{"rows"}, "rows must not be negative")
	}
	if doc.Start < 0 {
		return nil, errorf(ErrCodeInvalidValue, path{"start"}, "start must not be negative")
	}

	var err error
	if req.Query, err = buildNode(normalize(doc.Q), path{"q"}); err != nil {
		return nil, err
	}
	if req.LocalParams, err = buildLocalParams(doc.QParams, path{"q_params"}); err != nil {
		return nil, err
	}

	for i := range doc.Filters {
		f, err := buildFilter(&doc.Filters[i], path{"filters", i})
		if err != nil {
			return nil, err
		}
		req.Filters = append(req.Filters, f)
	}

	for i := range doc.Facets {
		spec, err := l.buildFacet(&doc.Facets[i], path{"facets", i})
		if err != nil {
			return nil, err
		}
		req.Facets = append(req.Facets, spec)
	}

	for i, s := range doc.Qf {
		fw, err := parseFieldWeight(s)
		if err != nil {
			return nil, errorf(ErrCodeInvalidValue, path{"qf", i}, "%v", err)
		}
		req.Qf = append(req.Qf, fw)
	}

	if len(doc.Params) > 0 {
		req.Params = make(map[string]any, len(doc.Params))
		for k, v := range doc.Params {
			req.Params[k] = normalize(v)
		}
	}
	return req, nil
}

func buildFilter(fd *FilterDoc, at path) (Filter, error) {
	if (fd.Where == nil) == (fd.Exclude == nil) {
		return Filter{}, errorf(ErrCodeInvalidValue, at, "filter needs exactly one of where or exclude")
	}
	f := Filter{Exclude: fd.Exclude != nil}
	raw, key := fd.Where, "where"
	if f.Exclude {
		raw, key = fd.Exclude, "exclude"
	}

	var err error
	if f.Node, err = buildNode(normalize(raw), at.key(key)); err != nil {
		return Filter{}, err
	}
	if f.LocalParams, err = buildLocalParams(fd.Params, at.key("params")); err != nil {
		return Filter{}, err
	}
	if len(fd.Tag) > 0 {
		if f.LocalParams, err = withParam(f.LocalParams, "tag", []string(fd.Tag)); err != nil {
			return Filter{}, errorf(ErrCodeInvalidParams, at.key("tag"), "%v", err)
		}
	}
	return f, nil
}

func (l *Loader) buildFacet(fd *FacetDoc, at path) (facet.Spec, error) {
	kinds := 0
	for _, set := range []bool{fd.Field != "", fd.Range != "", fd.Query != nil, len(fd.Pivot) > 0} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, errorf(ErrCodeInvalidFacet, at, "facet needs exactly one of field, range, query or pivot")
	}

	lp, err := buildLocalParams(fd.Params, at.key("params"))
	if err != nil {
		return nil, err
	}
	if fd.Key != "" {
		if lp, err = withParam(lp, "key", fd.Key); err != nil {
			return nil, errorf(ErrCodeInvalidParams, at.key("key"), "%v", err)
		}
	}
	if len(fd.Ex) > 0 {
		if lp, err = withParam(lp, "ex", []string(fd.Ex)); err != nil {
			return nil, errorf(ErrCodeInvalidParams, at.key("ex"), "%v", err)
		}
	}

	typ, err := codec.Lookup(fd.Type)
	if err != nil {
		return nil, errorf(ErrCodeInvalidFacet, at.key("type"), "%v", err)
	}
	opts := normalizeMap(fd.Options)

	switch {
	case fd.Field != "":
		return &facet.FieldSpec{
			Field:       fd.Field,
			LocalParams: lp,
			Type:        typ,
			Mapper:      l.mapper(fd.Mapper),
			Options:     opts,
		}, nil

	case fd.Range != "":
		if fd.Mapper != "" {
			return nil, errorf(ErrCodeInvalidFacet, at.key("mapper"), "range facets have no instances")
		}
		return &facet.RangeSpec{
			Field:       fd.Range,
			Start:       normalize(fd.Start),
			End:         normalize(fd.End),
			Gap:         normalize(fd.Gap),
			LocalParams: lp,
			Type:        typ,
			Options:     opts,
		}, nil

	case fd.Query != nil:
		n, err := buildNode(normalize(fd.Query), at.key("query"))
		if err != nil {
			return nil, err
		}
		spec, err := facet.NewQuerySpec(n, lp)
		if err != nil {
			return nil, errorf(ErrCodeInvalidFacet, at.key("query"), "%v", err)
		}
		return spec, nil
	}

	if fd.Type != "" || fd.Mapper != "" || len(fd.Options) > 0 {
		return nil, errorf(ErrCodeInvalidFacet, at, "pivot facets take type, mapper and options per level")
	}
	levels := make([]facet.PivotLevel, len(fd.Pivot))
	for i, pl := range fd.Pivot {
		lt, err := codec.Lookup(pl.Type)
		if err != nil {
			return nil, errorf(ErrCodeInvalidFacet, at.key("pivot").index(i).key("type"), "%v", err)
		}
		if pl.Field == "" {
			return nil, errorf(ErrCodeInvalidFacet, at.key("pivot").index(i), "pivot level needs a field")
		}
		levels[i] = facet.PivotLevel{
			Field:   pl.Field,
			Type:    lt,
			Mapper:  l.mapper(pl.Mapper),
			Options: normalizeMap(pl.Options),
		}
	}
	return &facet.PivotSpec{Levels: levels, LocalParams: lp}, nil
}

func (l *Loader) mapper(kind string) *facet.Mapper {
	if kind == "" {
		return nil
	}
	if l.Mappers == nil {
		slog.Debug("facet mapper ignored, no instance source", "kind", kind)
		return nil
	}
	if m, ok := l.cache[kind]; ok {
		return m
	}
	if l.cache == nil {
		l.cache = make(map[string]*facet.Mapper)
	}
	m := l.Mappers.Mapper(kind)
	l.cache[kind] = m
	return m
}

func withParam(lp *predicate.LocalParams, key string, value any) (*predicate.LocalParams, error) {
	if lp == nil {
		return predicate.NewLocalParams("", predicate.P(key, value))
	}
	return lp.With(key, value)
}

// parseFieldWeight parses "name^10" or "name".
func parseFieldWeight(s string) (search.FieldWeight, error) {
	field, weight, found := strings.Cut(strings.TrimSpace(s), "^")
	if field == "" {
		return search.FieldWeight{}, fmt.Errorf("empty qf field in %q", s)
	}
	if !found {
		return search.W(field, 0), nil
	}
	w, err := strconv.ParseFloat(weight, 64)
	if err != nil {
		return search.FieldWeight{}, fmt.Errorf("bad weight in %q", s)
	}
	return search.W(field, w), nil
}

// parsePath reverses path.String for position lookup.
func parsePath(s string) path {
	var out path
	for _, part := range strings.Split(s, ".") {
		name, rest, _ := strings.Cut(part, "[")
		if name != "" {
			out = append(out, name)
		}
		for rest != "" {
			idx, tail, _ := strings.Cut(rest, "]")
			if n, err := strconv.Atoi(idx); err == nil {
				out = append(out, n)
			}
			_, rest, _ = strings.Cut(tail, "[")
		}
	}
	return out
}

func normalizeMap(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
