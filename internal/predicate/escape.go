package predicate

import (
	"strings"
	"unicode"
)

// ReservedWords are the boolean keywords of the query syntax. Stand-alone
// occurrences in user text are lower-cased so they cannot act as operators.
var ReservedWords = []string{"AND", "OR", "NOT", "TO"}

// ReservedChars are the characters with syntactic meaning in query text.
const ReservedChars = `\+-&|!(){}[]^"~*?:`

var escaper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(ReservedChars))
	for _, c := range ReservedChars {
		pairs = append(pairs, string(c), `\`+string(c))
	}
	return strings.NewReplacer(pairs...)
}()

// SanitizeInput makes arbitrary user text safe to embed in a query: reserved
// words are lower-cased and reserved characters are backslash-escaped.
func SanitizeInput(s string) string {
	return escaper.Replace(LowerReservedWords(s))
}

// LowerReservedWords lower-cases every whitespace-delimited token that is a
// reserved word. Whitespace is preserved exactly.
func LowerReservedWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := s[start:end]
		if isReservedWord(tok) {
			tok = strings.ToLower(tok)
		}
		b.WriteString(tok)
		start = -1
	}

	for i, r := range s {
		if unicode.IsSpace(r) {
			flush(i)
			b.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(s))
	return b.String()
}

func isReservedWord(tok string) bool {
	for _, w := range ReservedWords {
		if tok == w {
			return true
		}
	}
	return false
}

// NeedsQuoting reports whether a local-parameter value must be quoted:
// it contains whitespace, a reserved character or a quote.
func NeedsQuoting(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\'' || strings.ContainsRune(ReservedChars, r)
	})
}

// HasWhitespace reports whether s contains any whitespace.
func HasWhitespace(s string) bool {
	return strings.ContainsFunc(s, unicode.IsSpace)
}

// validName reports whether s can be used as a local-parameter key or type
// token without quoting.
func validName(s string) bool {
	return s != "" && !NeedsQuoting(s) && !strings.ContainsAny(s, "=$")
}
