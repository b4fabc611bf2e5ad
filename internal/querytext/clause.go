package querytext

import (
	"fmt"
	"strings"

	"github.com/roach88/solq/internal/predicate"
)

// leafFunc renders one clause.
type leafFunc func(field string, value any) (string, error)

// leafRenderer is the operator dispatch table.
func leafRenderer(op predicate.Operator) (leafFunc, bool) {
	switch op {
	case predicate.OpDefault:
		return renderDefault, true
	case predicate.OpExact:
		return renderExact, true
	case predicate.OpGte:
		return openRange("[", "*]", true), true
	case predicate.OpGt:
		return openRange("{", "*}", true), true
	case predicate.OpLte:
		return openRange("[*", "]", false), true
	case predicate.OpLt:
		return openRange("{*", "}", false), true
	case predicate.OpBetween:
		return closedRange("{", "}"), true
	case predicate.OpRange:
		return closedRange("[", "]"), true
	case predicate.OpIn:
		return renderIn, true
	case predicate.OpIsNull:
		return renderIsNull, true
	case predicate.OpStartsWith:
		return renderStartsWith, true
	}
	return nil, false
}

func compileClause(c predicate.Clause) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	render, ok := leafRenderer(c.Op)
	if !ok {
		return "", &predicate.ValueError{Field: c.Field, Op: c.Op, Message: "unknown operator"}
	}
	if c.Value == nil && c.Op != predicate.OpIsNull {
		return notPopulated(c.Field), nil
	}
	s, err := render(c.Field, c.Value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Key(), err)
	}
	return s, nil
}

func populated(field string) string    { return field + ":[* TO *]" }
func notPopulated(field string) string { return "NOT " + populated(field) }

func renderDefault(field string, value any) (string, error) {
	tok, err := encodeValue(value)
	if err != nil {
		return "", err
	}
	return field + ":" + tok.wrapped(""), nil
}

func renderExact(field string, value any) (string, error) {
	tok, err := encodeValue(value)
	if err != nil {
		return "", err
	}
	if tok.opaque {
		return field + ":" + tok.text, nil
	}
	return field + `:"` + tok.text + `"`, nil
}

func renderStartsWith(field string, value any) (string, error) {
	tok, err := encodeValue(value)
	if err != nil {
		return "", err
	}
	return field + ":" + tok.wrapped("*"), nil
}

// openRange renders gte/gt (value on the left) and lte/lt (value on the right).
func openRange(left, right string, valueFirst bool) leafFunc {
	return func(field string, value any) (string, error) {
		tok, err := encodeValue(value)
		if err != nil {
			return "", err
		}
		if valueFirst {
			return fmt.Sprintf("%s:%s%s TO %s", field, left, tok.text, right), nil
		}
		return fmt.Sprintf("%s:%s TO %s%s", field, left, tok.text, right), nil
	}
}

func closedRange(left, right string) leafFunc {
	return func(field string, value any) (string, error) {
		pair, _ := predicate.PairOf(value)
		lo, err := rangeSide(pair.Lo)
		if err != nil {
			return "", err
		}
		hi, err := rangeSide(pair.Hi)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s:%s%s TO %s%s", field, left, lo, hi, right), nil
	}
}

func rangeSide(v any) (string, error) {
	if v == nil {
		return "*", nil
	}
	tok, err := encodeValue(v)
	if err != nil {
		return "", err
	}
	return tok.text, nil
}

func renderIn(field string, value any) (string, error) {
	values, _ := predicate.SequenceOf(value)
	if len(values) == 0 {
		return "(" + populated(field) + " AND " + notPopulated(field) + ")", nil
	}
	parts := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			parts[i] = notPopulated(field)
			continue
		}
		tok, err := encodeValue(v)
		if err != nil {
			return "", err
		}
		parts[i] = field + ":" + tok.wrapped("")
	}
	return "(" + strings.Join(parts, joiner(predicate.OR)) + ")", nil
}

func renderIsNull(field string, value any) (string, error) {
	if value.(bool) {
		return notPopulated(field), nil
	}
	return populated(field), nil
}
