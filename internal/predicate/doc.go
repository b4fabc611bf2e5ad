// Package predicate provides the criteria tree that query code builds and
// the query text compiler consumes.
//
// A tree is made of *Node combinators (AND/OR, optionally negated) whose
// children are one of:
//
//   - Clause: a (field, operator, value) leaf such as price >= 100
//   - *Node: a nested combinator
//   - *LocalParams: a {!type key=value} directive block
//   - Literal: raw query text, sanitized at compile time
//   - Trusted: raw query text that is already safe and is emitted verbatim
//
// SEALED INTERFACES:
//
// Child is a sealed interface using the marker method pattern. Only types in
// this package implement it, so compilers can switch over children
// exhaustively:
//
//	switch c := child.(type) {
//	case predicate.Clause:
//	case *predicate.Node:
//	case *predicate.LocalParams:
//	case predicate.Literal:
//	case predicate.Trusted:
//	}
//
// IMMUTABILITY:
//
// Nodes and LocalParams never change after construction. Combinators return
// new values that share unchanged sub-trees, so the same sub-tree can be
// reused in several filters without copying.
//
// VALIDATION:
//
// Local-parameter names and type tokens are checked when the block is built.
// Operator values are checked by Lookup and Match at construction time and
// again by the compiler, which reports a *ValueError for a malformed leaf.
package predicate
