package querytext

import (
	"fmt"
	"strings"

	"github.com/roach88/solq/internal/codec"
	"github.com/roach88/solq/internal/predicate"
)

var paramQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `"`, `\"`)

// RenderLocalParams renders {!type key=value ...}, or "" for an empty block.
func RenderLocalParams(lp *predicate.LocalParams) (string, error) {
	if lp.IsEmpty() {
		return "", nil
	}
	parts := make([]string, 0, lp.Len())
	if typ := lp.Type(); typ != "" {
		parts = append(parts, typ)
	}
	for _, p := range lp.Params() {
		if p.Value == nil {
			parts = append(parts, p.Key)
			continue
		}
		v, err := renderParamValue(p.Value)
		if err != nil {
			return "", fmt.Errorf("local param %s: %w", p.Key, err)
		}
		parts = append(parts, p.Key+"="+v)
	}
	return "{!" + strings.Join(parts, " ") + "}", nil
}

// renderParamValue encodes one local-param value. Compiled sub-queries and
// trusted text keep their operators; plain strings have reserved words
// lower-cased. Numbers and booleans are never quoted.
func renderParamValue(v any) (string, error) {
	switch val := v.(type) {
	case bool:
		return codec.Boolean{}.ToWire(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return codec.Encode(val)
	case string:
		return quoteParam(predicate.LowerReservedWords(normalize(val))), nil
	case predicate.Literal:
		return quoteParam(predicate.LowerReservedWords(normalize(string(val)))), nil
	case predicate.Trusted:
		return quoteParam(string(val)), nil
	case []string:
		return quoteParam(strings.Join(val, ",")), nil
	case *predicate.Node:
		s, err := Compile(val, nil)
		if err != nil {
			return "", err
		}
		return quoteParam(s), nil
	case *predicate.LocalParams:
		s, err := RenderLocalParams(val)
		if err != nil {
			return "", err
		}
		return quoteParam(s), nil
	case predicate.Func:
		s, err := RenderFunc(val)
		if err != nil {
			return "", err
		}
		return quoteParam(s), nil
	case predicate.Funcs:
		s, err := RenderFuncs(val)
		if err != nil {
			return "", err
		}
		return quoteParam(s), nil
	}
	s, err := codec.Encode(v)
	if err != nil {
		return "", err
	}
	return quoteParam(s), nil
}

func quoteParam(s string) string {
	if !predicate.NeedsQuoting(s) {
		return s
	}
	return "'" + paramQuoter.Replace(s) + "'"
}

func normalize(s string) string {
	nfc, _ := codec.Text{}.ToWire(s)
	return nfc
}
