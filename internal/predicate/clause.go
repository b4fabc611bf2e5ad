package predicate

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Operator selects the query syntax a Clause compiles to.
type Operator string

const (
	OpDefault    Operator = ""           // field:value
	OpExact      Operator = "exact"      // field:"value"
	OpGte        Operator = "gte"        // field:[v TO *]
	OpGt         Operator = "gt"         // field:{v TO *}
	OpLte        Operator = "lte"        // field:[* TO v]
	OpLt         Operator = "lt"         // field:{* TO v}
	OpBetween    Operator = "between"    // field:{a TO b}
	OpRange      Operator = "range"      // field:[a TO b]
	OpIn         Operator = "in"         // (field:v1 OR field:v2)
	OpIsNull     Operator = "isnull"     // NOT field:[* TO *]
	OpStartsWith Operator = "startswith" // field:prefix*
)

// Operators lists every operator accepted by Lookup, in declaration order.
var Operators = []Operator{
	OpDefault, OpExact, OpGte, OpGt, OpLte, OpLt,
	OpBetween, OpRange, OpIn, OpIsNull, OpStartsWith,
}

// LookupSep separates the field from the operator in lookup keys
// ("price__gte").
const LookupSep = "__"

// Clause is a (field, operator, value) leaf.
//
// Value holds a Go value: string, bool, number, time.Time, codec.DateMath,
// Trusted, *Node, *LocalParams, Func, a Pair for between/range, a sequence
// for in, or nil.
type Clause struct {
	Field string
	Op    Operator
	Value any
}

func (Clause) child() {}

// Pair is the two-sided value of between and range. A nil side is open.
type Pair struct {
	Lo any
	Hi any
}

// Eq matches field:value.
func Eq(field string, value any) Clause { return Clause{Field: field, Value: value} }

// Exact matches field:"value".
func Exact(field string, value any) Clause { return Clause{field, OpExact, value} }

// Gte matches values greater than or equal to v.
func Gte(field string, v any) Clause { return Clause{field, OpGte, v} }

// Gt matches values strictly greater than v.
func Gt(field string, v any) Clause { return Clause{field, OpGt, v} }

// Lte matches values less than or equal to v.
func Lte(field string, v any) Clause { return Clause{field, OpLte, v} }

// Lt matches values strictly less than v.
func Lt(field string, v any) Clause { return Clause{field, OpLt, v} }

// Between matches the exclusive interval {lo TO hi}.
func Between(field string, lo, hi any) Clause { return Clause{field, OpBetween, Pair{lo, hi}} }

// Range matches the inclusive interval [lo TO hi].
func Range(field string, lo, hi any) Clause { return Clause{field, OpRange, Pair{lo, hi}} }

// In matches any of values. With no values the clause never matches.
func In(field string, values ...any) Clause {
	if values == nil {
		values = []any{}
	}
	return Clause{field, OpIn, values}
}

// IsNull matches documents without (true) or with (false) a value in field.
func IsNull(field string, null bool) Clause { return Clause{field, OpIsNull, null} }

// StartsWith matches values beginning with prefix.
func StartsWith(field string, prefix any) Clause { return Clause{field, OpStartsWith, prefix} }

// Key returns the lookup key of the clause ("price__gte", or "price" for the
// default operator).
func (c Clause) Key() string {
	if c.Op == OpDefault {
		return c.Field
	}
	return c.Field + LookupSep + string(c.Op)
}

func (c Clause) String() string {
	return fmt.Sprintf("%s=%v", c.Key(), c.Value)
}

// Validate checks that the value has the shape the operator needs.
func (c Clause) Validate() error {
	if c.Field == "" {
		return valueErrorf("", c.Op, "empty field name")
	}
	switch c.Op {
	case OpDefault, OpExact, OpGte, OpGt, OpLte, OpLt, OpStartsWith:
		return nil
	case OpBetween, OpRange:
		if _, ok := PairOf(c.Value); !ok {
			return valueErrorf(c.Field, c.Op, "value must be a pair, got %T", c.Value)
		}
	case OpIn:
		if _, ok := SequenceOf(c.Value); !ok {
			return valueErrorf(c.Field, c.Op, "value must be a sequence, got %T", c.Value)
		}
	case OpIsNull:
		if _, ok := c.Value.(bool); !ok {
			return valueErrorf(c.Field, c.Op, "value must be a bool, got %T", c.Value)
		}
	default:
		return valueErrorf(c.Field, c.Op, "unknown operator")
	}
	return nil
}

// SplitLookup splits "field__op" into its field and operator. A key without
// a known operator suffix uses the default operator.
func SplitLookup(key string) (string, Operator) {
	i := strings.LastIndex(key, LookupSep)
	if i <= 0 {
		return key, OpDefault
	}
	op := Operator(key[i+len(LookupSep):])
	for _, known := range Operators {
		if op == known && op != OpDefault {
			return key[:i], op
		}
	}
	return key, OpDefault
}

// Lookup builds a Clause from a lookup key such as "price__between" and
// validates the value for the operator.
func Lookup(key string, value any) (Clause, error) {
	field, op := SplitLookup(key)
	c := Clause{Field: field, Op: op, Value: value}
	switch op {
	case OpBetween, OpRange:
		if p, ok := PairOf(value); ok {
			c.Value = p
		}
	case OpIn:
		if seq, ok := SequenceOf(value); ok {
			c.Value = seq
		}
	}
	if err := c.Validate(); err != nil {
		return Clause{}, err
	}
	return c, nil
}

// Match builds an AND node from lookup keys, in sorted key order.
func Match(lookups map[string]any) (*Node, error) {
	keys := make([]string, 0, len(lookups))
	for k := range lookups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	children := make([]Child, 0, len(keys))
	for _, k := range keys {
		c, err := Lookup(k, lookups[k])
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return And(children...), nil
}

// PairOf returns v as a Pair when it is a Pair, *Pair, or a two-element
// slice or array.
func PairOf(v any) (Pair, bool) {
	switch p := v.(type) {
	case Pair:
		return p, true
	case *Pair:
		if p == nil {
			return Pair{}, false
		}
		return *p, true
	}
	seq, ok := SequenceOf(v)
	if !ok || len(seq) != 2 {
		return Pair{}, false
	}
	return Pair{seq[0], seq[1]}, true
}

// SequenceOf returns the elements of a slice or array. Strings and byte
// slices are scalars, not sequences.
func SequenceOf(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case string, []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
