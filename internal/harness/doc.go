// Package harness runs request scenarios end to end.
//
// A scenario pairs a request document with a canned engine response and
// optional instance fixtures. The harness loads the fixtures into an
// in-memory store, builds the request with the store's mappers, fetches it
// through a static transport, binds the facets and evaluates assertions.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: phones_by_category
//	description: "Category facet resolves to stored categories"
//	request:
//	  q: {name: phone}
//	  facets:
//	    - {field: category, type: int, mapper: category}
//	response_file: responses/phones.json
//	instances:
//	  category:
//	    "1": {name: Phones}
//	assertions:
//	  - type: param
//	    param: facet.field
//	    values: [category]
//	  - type: facet_value
//	    facet: category
//	    value: 1
//	    count: 4
//	    instance: {name: Phones}
//
// The request is either inline (YAML) or a request_file (.yaml or .cue);
// the response is either an inline string or a response_file. Relative
// paths resolve against the scenario file.
//
// # Assertion Types
//
//   - param: the compiled parameter has exactly the given values
//   - hits: the response reports the given number of matches
//   - facet_len: the facet has the given number of values or buckets
//   - facet_value: a value (reached through path for pivots) has the given
//     count and, subset-matched, instance
//   - facet_range: the bucket starting at start has the given count
//   - facet_query: the query facet has the given count
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory store and a fixed request ID, so the
// snapshot of a scenario is byte-identical across runs and can be compared
// against a golden file.
package harness
