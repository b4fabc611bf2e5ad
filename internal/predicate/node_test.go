package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_String(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{"single", And(Eq("status", 0)), "(AND: status=0)"},
		{
			"and of ands flattens",
			And(Eq("status", 0)).And(And(In("company_status", 0, 6))),
			"(AND: status=0, company_status__in=[0 6])",
		},
		{
			"or of single clauses",
			And(Eq("status", 0)).Or(And(Eq("company_status", 0))),
			"(OR: status=0, company_status=0)",
		},
		{
			"mixed connectors nest",
			And(In("category", 1, 2)).And(
				And(Eq("status", 0)).Or(And(Eq("status", 5))).Or(And(Eq("status", 1)).And(And(Eq("company_status", 6)))),
			),
			"(AND: category__in=[1 2], (OR: status=0, status=5, (AND: status=1, company_status=6)))",
		},
		{"negation", Not(And(Eq("status", 1))), "(AND: (NOT (AND: status=1)))"},
		{"literal", And(Literal("a b")), `(AND: "a b")`},
		{"trusted", And(Trusted("x:1")), `(AND: trusted("x:1"))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.String())
		})
	}
}

func TestNode_ImplementsChild(t *testing.T) {
	var c Child = And()
	switch c.(type) {
	case *Node:
		// Expected
	default:
		t.Fatal("unexpected type")
	}
}

func TestNode_NilIsEmptyAnd(t *testing.T) {
	var n *Node
	assert.True(t, n.IsEmpty())
	assert.Equal(t, AND, n.Connector())
	assert.False(t, n.Negated())
	assert.Nil(t, n.Children())
}

func TestNode_CombineSkipsEmpty(t *testing.T) {
	a := And(Eq("status", 0))

	assert.Same(t, a, a.And(And()))
	assert.Same(t, a, And().And(a))
	assert.Same(t, a, a.Or(nil))
	assert.True(t, And().And(And()).IsEmpty())
}

func TestNode_NilChildrenDropped(t *testing.T) {
	var lp *LocalParams
	var sub *Node
	n := And(nil, lp, sub, Eq("a", 1))
	assert.Equal(t, 1, n.Len())
}

func TestNode_Immutable(t *testing.T) {
	base := And(Eq("status", 0))
	combined := base.And(And(Eq("price", 10)))
	negated := base.Not()

	assert.Equal(t, 1, base.Len(), "combining must not mutate the operand")
	assert.Equal(t, 2, combined.Len())
	assert.Equal(t, 1, negated.Len())
	assert.False(t, base.Negated())

	children := combined.Children()
	children[0] = Literal("mutated")
	assert.Equal(t, Eq("status", 0), combined.Children()[0], "Children returns a copy")
}

func TestNode_DoubleNegationNotCollapsed(t *testing.T) {
	n := Not(Not(And(Eq("a", 1))))

	require.Equal(t, 1, n.Len())
	outer, ok := n.Children()[0].(*Node)
	require.True(t, ok)
	assert.True(t, outer.Negated())

	require.Equal(t, 1, outer.Len())
	inner, ok := outer.Children()[0].(*Node)
	require.True(t, ok)
	assert.True(t, inner.Negated())
}

func TestNode_NegatedChildKeptNested(t *testing.T) {
	n := And(Eq("a", 1)).And(Not(And(Eq("b", 2))))

	assert.Equal(t, "(AND: a=1, (NOT (AND: b=2)))", n.String())
}
