package criteria

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for request documents.
const (
	ErrCodeReadFailed    = "E201" // File could not be read
	ErrCodeParseFailed   = "E202" // YAML or CUE syntax/evaluation error
	ErrCodeUnknownFormat = "E203" // Unsupported file extension
	ErrCodeInvalidValue  = "E204" // Value of the wrong shape
	ErrCodeInvalidLookup = "E205" // Bad field__op key or operator value
	ErrCodeInvalidFacet  = "E206" // Facet entry is inconsistent
	ErrCodeInvalidParams = "E207" // Local params could not be built
)

// LoadError is a request document error. Path locates the offending entry
// ("facets[1].type"); Pos is set for CUE documents.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	where := e.Path
	if e.Pos.IsValid() {
		where = fmt.Sprintf("%s:%d:%d", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
		if e.Path != "" {
			where += " " + e.Path
		}
	}
	if where == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", where, e.Code, e.Message)
}

// path addresses an entry of a document. Elements are field names (string)
// or list indices (int).
type path []any

func (p path) key(k string) path { return append(append(path(nil), p...), k) }

func (p path) index(i int) path { return append(append(path(nil), p...), i) }

func (p path) String() string {
	var b strings.Builder
	for _, el := range p {
		switch v := el.(type) {
		case int:
			b.WriteString("[" + strconv.Itoa(v) + "]")
		case string:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		}
	}
	return b.String()
}

func (p path) cuePath() cue.Path {
	sels := make([]cue.Selector, 0, len(p))
	for _, el := range p {
		switch v := el.(type) {
		case int:
			sels = append(sels, cue.Index(v))
		case string:
			sels = append(sels, cue.Str(v))
		}
	}
	return cue.MakePath(sels...)
}

func errorf(code string, at path, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Path: at.String(), Message: fmt.Sprintf(format, args...)}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeParseFailed, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Code: ErrCodeParseFailed, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
