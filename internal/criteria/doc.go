// Package criteria loads request documents written in YAML or CUE.
//
// A request document describes one select request: the main query, filter
// queries, facets and paging. Criteria are written as lookup maps:
//
//	q:
//	  name: phone
//	filters:
//	  - where: {category__in: [1, 2]}
//	    tag: category
//	  - exclude: {discontinued: true}
//	facets:
//	  - field: category
//	    type: int
//	    ex: category
//	    key: category_all
//	    mapper: category
//	  - range: price
//	    type: float
//	    start: 0
//	    end: 120
//	    gap: 30
//	  - pivot: [category, brand]
//	sort: [-price]
//	rows: 20
//
// Lookup keys are field__op as accepted by predicate.Lookup. Map entries
// are ANDed in key order. The reserved keys $and, $or and $not combine
// nested criteria; $text adds free text and $raw adds trusted query text.
// Strings holding an RFC 3339 timestamp are read as time.Time.
package criteria
