package querytext

import (
	"strings"

	"github.com/roach88/solq/internal/codec"
	"github.com/roach88/solq/internal/predicate"
)

// token is an encoded leaf value. Opaque tokens are complete quoted
// sub-queries and are never wrapped again.
type token struct {
	text   string
	opaque bool
}

// wrapped appends suffix and parenthesizes values containing whitespace.
func (t token) wrapped(suffix string) string {
	if !t.opaque && predicate.HasWhitespace(t.text) {
		return "(" + t.text + suffix + ")"
	}
	return t.text + suffix
}

var subqueryEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quoteSubquery wraps compiled query text as a double-quoted value.
func quoteSubquery(s string) token {
	return token{text: `"` + subqueryEscaper.Replace(s) + `"`, opaque: true}
}

// sanitizeText normalizes and escapes user text.
func sanitizeText(s string) string {
	nfc, _ := codec.Text{}.ToWire(s)
	return predicate.SanitizeInput(nfc)
}

// encodeValue converts a leaf value to query text.
func encodeValue(v any) (token, error) {
	switch val := v.(type) {
	case predicate.Trusted:
		return token{text: string(val)}, nil
	case predicate.Literal:
		return token{text: sanitizeText(string(val))}, nil
	case string:
		if codec.IsDateMath(val) {
			return token{text: val}, nil
		}
		return token{text: sanitizeText(val)}, nil
	case *predicate.Node:
		s, err := Compile(val, nil)
		if err != nil {
			return token{}, err
		}
		return quoteSubquery(s), nil
	case *predicate.LocalParams:
		s, err := RenderLocalParams(val)
		if err != nil {
			return token{}, err
		}
		return quoteSubquery(s), nil
	case predicate.Func:
		s, err := RenderFunc(val)
		if err != nil {
			return token{}, err
		}
		return token{text: s}, nil
	}
	s, err := codec.Encode(v)
	if err != nil {
		return token{}, err
	}
	return token{text: s}, nil
}
