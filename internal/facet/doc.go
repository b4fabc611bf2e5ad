// Package facet binds raw facet sections of a search response to the facet
// specs that requested them.
//
// Four kinds of facet are supported:
//
//   - FieldSpec: value counts for one field, a flat [value, count, ...] list
//   - RangeSpec: bucket counts between start and end in steps of gap
//   - QuerySpec: the count of one boolean sub-query, keyed by its text
//   - PivotSpec: nested value counts across several fields
//
// Bind produces a Binding holding one Result per spec. Values convert their
// raw tokens with the spec's codec.Type; a token that fails conversion is
// dropped and logged, and a facet missing from the response binds to an empty
// Result.
//
// INSTANCE RESOLUTION:
//
// A spec may carry a *Mapper that turns facet values into domain objects.
// Value.Instance resolves lazily: the first access calls the mapper once with
// the deduplicated values of every Result in the binding that shares the same
// Mapper handle, pivot levels at every depth included, and stores the answer
// on all of them. Sibling facets on the same field (for example requested
// twice with different exclusion tags) therefore cost one lookup.
//
// A Binding is owned by one response and is not safe for concurrent use.
package facet
