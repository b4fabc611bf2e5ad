package codec

import (
	"time"
)

// Encode renders a non-text Go value as a wire token without a declared type.
//
// Strings are deliberately not handled here: text needs the query sanitizer,
// which belongs to the compiler. Encode covers booleans, integers, floats,
// timestamps and date math.
func Encode(v any) (string, error) {
	switch val := v.(type) {
	case bool:
		return Boolean{}.ToWire(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Long{}.ToWire(val)
	case float32, float64:
		return Float{}.ToWire(val)
	case time.Time, *time.Time:
		return DateTime{}.ToWire(val)
	case DateMath:
		return string(val), nil
	}
	return "", convErr("wire token", v, ErrUnsupportedValue)
}
