package predicate

import (
	"errors"
	"fmt"
)

// ValueError reports a malformed operator argument or local-parameter entry.
type ValueError struct {
	Field   string   // field or local-param key, may be empty
	Op      Operator // operator, empty for local params
	Message string
}

func (e *ValueError) Error() string {
	switch {
	case e.Field != "" && e.Op != "":
		return fmt.Sprintf("%s__%s: %s", e.Field, e.Op, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	default:
		return e.Message
	}
}

// IsValueError reports whether err is, or wraps, a ValueError.
func IsValueError(err error) bool {
	var ve *ValueError
	return errors.As(err, &ve)
}

func valueErrorf(field string, op Operator, format string, args ...any) *ValueError {
	return &ValueError{Field: field, Op: op, Message: fmt.Sprintf(format, args...)}
}
