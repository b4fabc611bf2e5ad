package predicate

import (
	"fmt"
	"sort"
	"strings"
)

// TypeKey is the map key FromMap treats as the unnamed leading type token.
const TypeKey = "type"

// Param is one key=value entry of a LocalParams block. A nil Value renders
// the bare key.
type Param struct {
	Key   string
	Value any
}

// P is shorthand for Param{Key: key, Value: value}.
func P(key string, value any) Param { return Param{Key: key, Value: value} }

// LocalParams is an immutable, ordered {!type key=value ...} block.
//
// A nil *LocalParams is a valid empty block.
type LocalParams struct {
	typ    string
	params []Param
}

func (*LocalParams) child() {}

// NewLocalParams builds a block with an optional type token (empty for none)
// and params in the given order. A repeated key replaces the earlier value in
// place. Keys and the type token must not need quoting.
func NewLocalParams(typ string, params ...Param) (*LocalParams, error) {
	if typ != "" && !validName(typ) {
		return nil, valueErrorf(TypeKey, "", "invalid local params type %q", typ)
	}
	lp := &LocalParams{typ: typ}
	for _, p := range params {
		if err := lp.set(p.Key, p.Value); err != nil {
			return nil, err
		}
	}
	return lp, nil
}

// MustLocalParams is like NewLocalParams but panics on error. It is meant for
// blocks built from constants.
func MustLocalParams(typ string, params ...Param) *LocalParams {
	lp, err := NewLocalParams(typ, params...)
	if err != nil {
		panic(err)
	}
	return lp
}

// FromMap builds a block from a map. Keys are added in sorted order; the
// "type" key becomes the type token.
func FromMap(m map[string]any) (*LocalParams, error) {
	typ := ""
	if v, ok := m[TypeKey]; ok {
		s, isStr := v.(string)
		if !isStr {
			return nil, valueErrorf(TypeKey, "", "type must be a string, got %T", v)
		}
		typ = s
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		if k != TypeKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	params := make([]Param, len(keys))
	for i, k := range keys {
		params[i] = Param{k, m[k]}
	}
	return NewLocalParams(typ, params...)
}

// Tag returns {!tag=t1,t2}, the filter side of tag exclusion.
func Tag(tags ...string) (*LocalParams, error) { return NewLocalParams("", P("tag", tags)) }

// Ex returns {!ex=t1,t2}, the facet side of tag exclusion.
func Ex(tags ...string) (*LocalParams, error) { return NewLocalParams("", P("ex", tags)) }

func (lp *LocalParams) set(key string, value any) error {
	if key == TypeKey {
		s, ok := value.(string)
		if !ok || (s != "" && !validName(s)) {
			return valueErrorf(TypeKey, "", "invalid local params type %v", value)
		}
		lp.typ = s
		return nil
	}
	if !validName(key) {
		return valueErrorf(key, "", "invalid local params key %q", key)
	}
	for i := range lp.params {
		if lp.params[i].Key == key {
			lp.params[i].Value = value
			return nil
		}
	}
	lp.params = append(lp.params, Param{key, value})
	return nil
}

// Type returns the unnamed leading token, or "".
func (lp *LocalParams) Type() string {
	if lp == nil {
		return ""
	}
	return lp.typ
}

// Params returns a copy of the keyed entries in order.
func (lp *LocalParams) Params() []Param {
	if lp == nil {
		return nil
	}
	return append([]Param(nil), lp.params...)
}

// Len counts the entries, the type token included.
func (lp *LocalParams) Len() int {
	if lp == nil {
		return 0
	}
	n := len(lp.params)
	if lp.typ != "" {
		n++
	}
	return n
}

// IsEmpty reports whether the block renders to nothing.
func (lp *LocalParams) IsEmpty() bool { return lp.Len() == 0 }

// Get returns the value for key. "type" returns the type token.
func (lp *LocalParams) Get(key string) (any, bool) {
	if lp == nil {
		return nil, false
	}
	if key == TypeKey {
		return lp.typ, lp.typ != ""
	}
	for _, p := range lp.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// GetString returns the value for key formatted as a string.
func (lp *LocalParams) GetString(key string) string {
	v, ok := lp.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return s
	}
	if ss, isList := v.([]string); isList {
		return strings.Join(ss, ",")
	}
	return fmt.Sprint(v)
}

// Has reports whether key is present.
func (lp *LocalParams) Has(key string) bool {
	_, ok := lp.Get(key)
	return ok
}

// With returns a copy with key set. An existing key keeps its position.
func (lp *LocalParams) With(key string, value any) (*LocalParams, error) {
	out := lp.clone()
	if err := out.set(key, value); err != nil {
		return nil, err
	}
	return out, nil
}

// Without returns a copy with key removed.
func (lp *LocalParams) Without(key string) *LocalParams {
	out := lp.clone()
	if key == TypeKey {
		out.typ = ""
		return out
	}
	kept := out.params[:0]
	for _, p := range out.params {
		if p.Key != key {
			kept = append(kept, p)
		}
	}
	out.params = kept
	return out
}

// Merge returns a copy of lp updated with the entries of other. Keys already
// present keep their position and take other's value; a non-empty type token
// in other replaces lp's.
func (lp *LocalParams) Merge(other *LocalParams) *LocalParams {
	out := lp.clone()
	if other == nil {
		return out
	}
	if other.typ != "" {
		out.typ = other.typ
	}
	for _, p := range other.params {
		// Keys were validated when other was built.
		_ = out.set(p.Key, p.Value)
	}
	return out
}

func (lp *LocalParams) clone() *LocalParams {
	if lp == nil {
		return &LocalParams{}
	}
	return &LocalParams{typ: lp.typ, params: lp.Params()}
}

func (lp *LocalParams) String() string {
	if lp.IsEmpty() {
		return "{!}"
	}
	parts := make([]string, 0, lp.Len())
	if lp.typ != "" {
		parts = append(parts, lp.typ)
	}
	for _, p := range lp.params {
		if p.Value == nil {
			parts = append(parts, p.Key)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", p.Key, p.Value))
	}
	return "{!" + strings.Join(parts, " ") + "}"
}
