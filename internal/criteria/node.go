package criteria

import (
	"sort"

	"github.com/roach88/solq/internal/predicate"
)

// Reserved criteria keys.
const (
	KeyAnd  = "$and"
	KeyOr   = "$or"
	KeyNot  = "$not"
	KeyText = "$text"
	KeyRaw  = "$raw"
)

// BuildNode turns a criteria value into a predicate tree.
//
// A map ANDs its lookups in key order; a list ANDs its elements; a string
// is free text. nil is the empty tree.
func BuildNode(v any) (*predicate.Node, error) {
	return buildNode(normalize(v), nil)
}

func buildNode(v any, at path) (*predicate.Node, error) {
	switch t := v.(type) {
	case nil:
		return predicate.And(), nil
	case string:
		return predicate.And(predicate.Literal(t)), nil
	case []any:
		nodes, err := buildList(t, at)
		if err != nil {
			return nil, err
		}
		return predicate.And().And(nodes...), nil
	case map[string]any:
		return buildMap(t, at)
	}
	return nil, errorf(ErrCodeInvalidValue, at, "criteria must be a map, list or string, got %T", v)
}

func buildList(items []any, at path) ([]*predicate.Node, error) {
	nodes := make([]*predicate.Node, 0, len(items))
	for i, item := range items {
		n, err := buildNode(item, at.index(i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func buildMap(m map[string]any, at path) (*predicate.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var leaves []predicate.Child
	var nested []*predicate.Node
	for _, k := range keys {
		v, p := m[k], at.key(k)
		switch k {
		case KeyAnd, KeyOr:
			items, ok := v.([]any)
			if !ok {
				return nil, errorf(ErrCodeInvalidValue, p, "%s takes a list of criteria", k)
			}
			nodes, err := buildList(items, p)
			if err != nil {
				return nil, err
			}
			if k == KeyAnd {
				nested = append(nested, predicate.And().And(nodes...))
			} else {
				nested = append(nested, predicate.And().Or(nodes...))
			}
		case KeyNot:
			n, err := buildNode(v, p)
			if err != nil {
				return nil, err
			}
			if !n.IsEmpty() {
				nested = append(nested, n.Not())
			}
		case KeyText:
			s, ok := v.(string)
			if !ok {
				return nil, errorf(ErrCodeInvalidValue, p, "%s takes a string", k)
			}
			leaves = append(leaves, predicate.Literal(s))
		case KeyRaw:
			s, ok := v.(string)
			if !ok {
				return nil, errorf(ErrCodeInvalidValue, p, "%s takes a string", k)
			}
			leaves = append(leaves, predicate.Trusted(s))
		default:
			c, err := predicate.Lookup(k, v)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeInvalidLookup, Path: p.String(), Message: err.Error()}
			}
			leaves = append(leaves, c)
		}
	}
	return predicate.And(leaves...).And(nested...), nil
}

// buildLocalParams builds local params from a document map. String lists
// become []string so tags render comma-joined.
func buildLocalParams(m map[string]any, at path) (*predicate.LocalParams, error) {
	if len(m) == 0 {
		return nil, nil
	}
	conv := make(map[string]any, len(m))
	for k, v := range m {
		v = normalize(v)
		if list, ok := v.([]any); ok {
			strs := make([]string, len(list))
			for i, el := range list {
				s, ok := el.(string)
				if !ok {
					return nil, errorf(ErrCodeInvalidParams, at.key(k), "list values must be strings, got %T", el)
				}
				strs[i] = s
			}
			v = strs
		}
		conv[k] = v
	}
	lp, err := predicate.FromMap(conv)
	if err != nil {
		return nil, errorf(ErrCodeInvalidParams, at, "%v", err)
	}
	return lp, nil
}
