// Package search builds select requests from predicate trees and facet
// specs, sends them through a Transport, and binds the responses.
//
// A Searcher owns the transport and the request defaults. Queries are
// immutable builders: every builder method returns a new Query, so a base
// query can be shared and refined freely.
//
//	s := search.New(transport, search.WithRows(20))
//	q := s.Query().
//		Search(predicate.And(predicate.Eq("name", "phone"))).
//		Filter(predicate.And(predicate.Eq("category", 3)), tag).
//		FacetField(&facet.FieldSpec{Field: "category", LocalParams: ex})
//	res, err := q.Results(ctx)
//
// A Query fetches at most once. Results, Facets and Count reuse the first
// successful response.
package search
