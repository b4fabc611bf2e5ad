package predicate

import (
	"fmt"
	"strings"
)

// Connector joins the children of a Node.
type Connector string

const (
	AND Connector = "AND"
	OR  Connector = "OR"
)

// Child is an element of a Node.
//
// This is a sealed interface: Clause, *Node, *LocalParams, Literal and
// Trusted are the only implementations.
type Child interface {
	child() // Marker method - seals interface to this package
}

// Literal is raw query text. It is sanitized when compiled, so reserved
// words and characters in it lose their meaning.
type Literal string

func (Literal) child() {}

// Trusted is query text that is already safe, typically an already-compiled
// sub-query. It is emitted verbatim and is never escaped twice.
type Trusted string

func (Trusted) child() {}

// Node is an immutable AND/OR combinator.
//
// The zero value and nil are both the empty AND node, which compiles to no
// text and is absorbed by its parent.
type Node struct {
	connector Connector
	negated   bool
	children  []Child
}

func (*Node) child() {}

// And returns a node whose children must all match.
func And(children ...Child) *Node { return newNode(AND, false, children) }

// Or returns a node of which at least one child must match.
func Or(children ...Child) *Node { return newNode(OR, false, children) }

// Not returns a node matching when n does not.
//
// The negation is kept as a nested negated node, so Not(Not(n)) renders as
// NOT (NOT (...)) and is never collapsed.
func Not(n *Node) *Node {
	inner := newNode(AND, false, nil).add(n, AND)
	return newNode(AND, false, []Child{
		&Node{connector: inner.connector, negated: true, children: inner.children},
	})
}

func newNode(conn Connector, negated bool, children []Child) *Node {
	kept := make([]Child, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		if n, ok := c.(*Node); ok && n == nil {
			continue
		}
		if lp, ok := c.(*LocalParams); ok && lp == nil {
			continue
		}
		kept = append(kept, c)
	}
	return &Node{connector: conn, negated: negated, children: kept}
}

// Connector returns the node's connector. The empty node reports AND.
func (n *Node) Connector() Connector {
	if n == nil || n.connector == "" {
		return AND
	}
	return n.connector
}

// Negated reports whether the node is negated.
func (n *Node) Negated() bool { return n != nil && n.negated }

// Children returns a copy of the node's children.
func (n *Node) Children() []Child {
	if n == nil {
		return nil
	}
	return append([]Child(nil), n.children...)
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// IsEmpty reports whether the node has no children.
func (n *Node) IsEmpty() bool { return n.Len() == 0 }

// And combines n and others with AND. Empty operands are skipped.
func (n *Node) And(others ...*Node) *Node { return n.combine(others, AND) }

// Or combines n and others with OR. Empty operands are skipped.
func (n *Node) Or(others ...*Node) *Node { return n.combine(others, OR) }

// Not returns the negation of n.
func (n *Node) Not() *Node { return Not(n) }

func (n *Node) combine(others []*Node, conn Connector) *Node {
	acc := n
	for _, o := range others {
		switch {
		case o.IsEmpty():
			continue
		case acc.IsEmpty():
			acc = o
		default:
			acc = newNode(conn, false, nil).add(acc, conn).add(o, conn)
		}
	}
	if acc == nil {
		return And()
	}
	return acc
}

// add returns a copy of n with child appended under conn. A non-negated
// child sharing the connector, or holding a single element, contributes its
// children directly instead of a nested level.
func (n *Node) add(child *Node, conn Connector) *Node {
	out := &Node{connector: n.connector, negated: n.negated, children: n.Children()}
	if len(out.children) < 2 {
		out.connector = conn
	}
	if out.connector != conn {
		return &Node{connector: conn, children: []Child{out, child}}
	}
	if child.IsEmpty() {
		return out
	}
	if !child.negated && (child.Connector() == conn || child.Len() == 1) {
		out.children = append(out.children, child.children...)
	} else {
		out.children = append(out.children, child)
	}
	return out
}

// String returns a debug representation such as
// (AND: status=0, (NOT (AND: price__gte=100))).
func (n *Node) String() string {
	parts := make([]string, 0, n.Len())
	for _, c := range n.Children() {
		switch v := c.(type) {
		case Literal:
			parts = append(parts, fmt.Sprintf("%q", string(v)))
		case Trusted:
			parts = append(parts, fmt.Sprintf("trusted(%q)", string(v)))
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	s := fmt.Sprintf("(%s: %s)", n.Connector(), strings.Join(parts, ", "))
	if n.Negated() {
		return "(NOT " + s + ")"
	}
	return s
}
