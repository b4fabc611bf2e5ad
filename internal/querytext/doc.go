// Package querytext compiles predicate trees into the search engine's query
// syntax.
//
// The output must match the engine's parameter syntax exactly: compiled
// strings are cache keys on the remote side and are also the keys under which
// query facets come back, so equal trees always compile to equal text.
//
//	predicate.And(predicate.Eq("status", 0)).And(predicate.And(predicate.In("company_status", 0, 6)))
//
// compiles to
//
//	status:0 AND (company_status:0 OR company_status:6)
package querytext
