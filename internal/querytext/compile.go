package querytext

import (
	"fmt"
	"strings"

	"github.com/roach88/solq/internal/predicate"
)

// Compile renders n as query text prefixed by lp. An empty tree compiles to
// the rendered block alone (usually "").
//
// Top-level AND clauses are joined without surrounding parentheses.
func Compile(n *predicate.Node, lp *predicate.LocalParams) (string, error) {
	prefix, err := RenderLocalParams(lp)
	if err != nil {
		return "", fmt.Errorf("compile local params: %w", err)
	}
	frags, err := compileNode(n, 0)
	if err != nil {
		return "", err
	}
	return prefix + strings.Join(frags, joiner(n.Connector())), nil
}

// CompileClauses renders the top-level clauses of n separately, one string
// per clause of a top-level AND. Any other root compiles to one string.
// Each entry is suitable as its own filter query.
func CompileClauses(n *predicate.Node) ([]string, error) {
	return compileNode(n, 0)
}

// MustCompile is like Compile but panics on error.
func MustCompile(n *predicate.Node, lp *predicate.LocalParams) string {
	s, err := Compile(n, lp)
	if err != nil {
		panic(err)
	}
	return s
}

func joiner(conn predicate.Connector) string {
	return " " + string(conn) + " "
}

// compileNode renders each child to at most one fragment and joins them.
// At depth 0 a non-negated AND returns its fragments unjoined.
func compileNode(n *predicate.Node, depth int) ([]string, error) {
	var frags []string
	for _, c := range n.Children() {
		switch child := c.(type) {
		case predicate.Clause:
			s, err := compileClause(child)
			if err != nil {
				return nil, err
			}
			frags = appendNonEmpty(frags, s)
		case *predicate.Node:
			parts, err := compileNode(child, depth+1)
			if err != nil {
				return nil, err
			}
			frags = append(frags, parts...)
		case *predicate.LocalParams:
			s, err := RenderLocalParams(child)
			if err != nil {
				return nil, err
			}
			frags = appendNonEmpty(frags, s)
		case predicate.Literal:
			frags = appendNonEmpty(frags, sanitizeText(string(child)))
		case predicate.Trusted:
			frags = appendNonEmpty(frags, string(child))
		default:
			return nil, fmt.Errorf("unsupported child type: %T", c)
		}
	}

	if depth == 0 && n.Connector() == predicate.AND && !n.Negated() {
		return frags, nil
	}
	if len(frags) == 0 {
		return nil, nil
	}

	s := strings.Join(frags, joiner(n.Connector()))
	if len(frags) > 1 {
		s = "(" + s + ")"
	}
	if n.Negated() {
		s = "NOT (" + s + ")"
	}
	return []string{s}, nil
}

func appendNonEmpty(frags []string, s string) []string {
	if s == "" {
		return frags
	}
	return append(frags, s)
}
