package predicate

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationResult contains the analysis of a criteria tree.
type ValidationResult struct {
	// Errors lists leaves that cannot compile. Compile would fail on the
	// first of them.
	Errors []error

	// Warnings lists constructs that compile but probably do not mean what
	// the author intended, such as literal text whose operators will be
	// neutralized.
	Warnings []string
}

// Valid reports whether the tree compiles.
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// Err joins all errors, or returns nil.
func (r ValidationResult) Err() error { return errors.Join(r.Errors...) }

// Validate walks the tree and reports every malformed leaf and suspicious
// construct. It is a pure function with no side effects.
func Validate(n *Node) ValidationResult {
	v := &validator{warnings: []string{}}
	v.validateNode(n, "")
	return ValidationResult{Errors: v.errors, Warnings: v.warnings}
}

// validator accumulates findings during traversal.
type validator struct {
	errors   []error
	warnings []string
}

func (v *validator) addWarning(path, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if path != "" {
		msg = path + ": " + msg
	}
	v.warnings = append(v.warnings, msg)
}

func (v *validator) validateNode(n *Node, path string) {
	if n.IsEmpty() {
		if path != "" {
			v.addWarning(path, "empty node contributes nothing")
		}
		return
	}
	for i, c := range n.children {
		childPath := fmt.Sprintf("%s/%d", path, i)
		switch child := c.(type) {
		case Clause:
			v.validateClause(child, childPath)
		case *Node:
			v.validateNode(child, childPath)
		case *LocalParams:
			v.validateLocalParams(child, childPath)
		case Literal:
			v.validateLiteral(string(child), childPath)
		case Trusted:
			// Emitted verbatim.
		default:
			v.addWarning(childPath, "unknown child type %T", c)
		}
	}
}

func (v *validator) validateClause(c Clause, path string) {
	if err := c.Validate(); err != nil {
		v.errors = append(v.errors, fmt.Errorf("%s: %w", path, err))
		return
	}
	switch val := c.Value.(type) {
	case *Node:
		v.validateNode(val, path)
	case *LocalParams:
		v.validateLocalParams(val, path)
	}
}

func (v *validator) validateLocalParams(lp *LocalParams, path string) {
	if lp.IsEmpty() {
		v.addWarning(path, "empty local params block")
		return
	}
	for _, p := range lp.params {
		switch val := p.Value.(type) {
		case *Node:
			v.validateNode(val, path+"/"+p.Key)
		case *LocalParams:
			v.validateLocalParams(val, path+"/"+p.Key)
		}
	}
}

func (v *validator) validateLiteral(s, path string) {
	if strings.TrimSpace(s) == "" {
		v.addWarning(path, "blank literal")
		return
	}
	if LowerReservedWords(s) != s || strings.ContainsAny(s, ReservedChars) {
		v.addWarning(path, "literal %q contains query syntax that will be escaped; use Trusted for pre-built query text", s)
	}
}
