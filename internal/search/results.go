package search

import (
	"net/url"

	"github.com/roach88/solq/internal/facet"
)

// Results is one fetched page with its bound facets.
type Results struct {
	RequestID string
	Hits      int
	Start     int
	QTime     int
	Docs      []Document
	Params    url.Values

	facets *facet.Binding
}

func newResults(resp *Response, params url.Values, b *facet.Binding) *Results {
	return &Results{
		RequestID: resp.RequestID,
		Hits:      resp.NumFound,
		Start:     resp.Start,
		QTime:     resp.QTime,
		Docs:      resp.Docs,
		Params:    params,
		facets:    b,
	}
}

// Len returns the number of documents on the page.
func (r *Results) Len() int { return len(r.Docs) }

// Facets returns the bound facets.
func (r *Results) Facets() *facet.Binding { return r.facets }

// Facet returns the facet bound under key, or nil.
func (r *Results) Facet(key string) *facet.Result { return r.facets.Get(key) }
