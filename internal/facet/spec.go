package facet

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/solq/internal/codec"
	"github.com/roach88/solq/internal/predicate"
	"github.com/roach88/solq/internal/querytext"
)

// Kind identifies the facet family of a spec or result.
type Kind string

const (
	KindField Kind = "field"
	KindRange Kind = "range"
	KindQuery Kind = "query"
	KindPivot Kind = "pivot"
)

// Spec is a facet request.
//
// This is a sealed interface: FieldSpec, RangeSpec, QuerySpec and PivotSpec
// are the only implementations.
type Spec interface {
	// Kind returns the facet family.
	Kind() Kind

	// Key returns the name the response uses for this facet: the "key"
	// local param when set, otherwise the field, field list or query text.
	Key() string

	// Params returns the request parameters for this facet.
	Params() (url.Values, error)

	bind(b *Binding, s *Section) *Result
}

// FieldSpec requests value counts for one field.
type FieldSpec struct {
	Field       string
	LocalParams *predicate.LocalParams // typically key and ex
	Type        codec.Type             // nil means text
	Mapper      *Mapper
	Options     map[string]any // sent as f.<field>.facet.<option>
}

func (*FieldSpec) Kind() Kind { return KindField }

func (f *FieldSpec) Key() string { return keyOr(f.LocalParams, f.Field) }

// RangeSpec requests bucket counts over [Start, End) in steps of Gap.
// Gap is a string such as "+1DAY" or a []string of gaps.
type RangeSpec struct {
	Field       string
	Start       any
	End         any
	Gap         any
	LocalParams *predicate.LocalParams
	Type        codec.Type
	Options     map[string]any // sent as f.<field>.facet.range.<option>
}

func (*RangeSpec) Kind() Kind { return KindRange }

func (r *RangeSpec) Key() string { return keyOr(r.LocalParams, r.Field) }

// QuerySpec requests the count of one boolean sub-query. Build it with
// NewQuerySpec so the query text is compiled once.
type QuerySpec struct {
	query *predicate.Node
	lp    *predicate.LocalParams
	text  string
}

// NewQuerySpec compiles the facet query. The response reports the count
// under the compiled text, local params included, unless lp sets a key.
func NewQuerySpec(q *predicate.Node, lp *predicate.LocalParams) (*QuerySpec, error) {
	text, err := querytext.Compile(q, lp)
	if err != nil {
		return nil, fmt.Errorf("compile facet query: %w", err)
	}
	if text == "" {
		return nil, fmt.Errorf("compile facet query: empty query")
	}
	return &QuerySpec{query: q, lp: lp, text: text}, nil
}

func (*QuerySpec) Kind() Kind { return KindQuery }

func (q *QuerySpec) Key() string { return keyOr(q.lp, q.text) }

// Text returns the compiled facet.query parameter.
func (q *QuerySpec) Text() string { return q.text }

// Query returns the source tree.
func (q *QuerySpec) Query() *predicate.Node { return q.query }

// PivotLevel configures one field of a pivot.
type PivotLevel struct {
	Field   string
	Type    codec.Type
	Mapper  *Mapper
	Options map[string]any // sent as f.<field>.facet.<option>
}

// PivotSpec requests nested counts across Levels, outermost first.
type PivotSpec struct {
	Levels      []PivotLevel
	LocalParams *predicate.LocalParams
}

// Pivot builds a PivotSpec with plain levels for fields.
func Pivot(fields ...string) *PivotSpec {
	levels := make([]PivotLevel, len(fields))
	for i, f := range fields {
		levels[i] = PivotLevel{Field: f}
	}
	return &PivotSpec{Levels: levels}
}

func (*PivotSpec) Kind() Kind { return KindPivot }

// Name returns the comma-joined field list.
func (p *PivotSpec) Name() string {
	fields := make([]string, len(p.Levels))
	for i, l := range p.Levels {
		fields[i] = l.Field
	}
	return strings.Join(fields, ",")
}

func (p *PivotSpec) Key() string { return keyOr(p.LocalParams, p.Name()) }

func keyOr(lp *predicate.LocalParams, fallback string) string {
	if k := lp.GetString("key"); k != "" {
		return k
	}
	return fallback
}

func typeOrText(t codec.Type) codec.Type {
	if t == nil {
		return codec.Text{}
	}
	return t
}
