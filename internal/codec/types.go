package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// WireTimeLayout is the absolute timestamp layout the engine accepts.
const WireTimeLayout = "2006-01-02T15:04:05Z"

// Type converts between wire tokens and native values for one field type.
type Type interface {
	// Name returns the type name used in request documents ("int", "float", ...).
	Name() string

	// ToWire renders a native value as a wire token.
	ToWire(v any) (string, error)

	// ToNative parses a wire token into the native value.
	ToNative(s string) (any, error)
}

// Integer is a signed 32-bit integer. Native values are int.
type Integer struct{}

func (Integer) Name() string { return "int" }

func (t Integer) ToWire(v any) (string, error) {
	n, err := asInt64(t.Name(), v)
	if err != nil {
		return "", err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return "", convErr(t.Name(), v, errors.New("out of 32-bit range"))
	}
	return strconv.FormatInt(n, 10), nil
}

func (t Integer) ToNative(s string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return nil, convErr(t.Name(), s, err)
	}
	return int(n), nil
}

// Long is a signed 64-bit integer with optional inclusive bounds.
// Native values are int64.
type Long struct {
	Min *int64
	Max *int64
}

func (Long) Name() string { return "long" }

func (t Long) ToWire(v any) (string, error) {
	n, err := asInt64(t.Name(), v)
	if err != nil {
		return "", err
	}
	if err := t.check(n, v); err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

func (t Long) ToNative(s string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, convErr(t.Name(), s, err)
	}
	if err := t.check(n, s); err != nil {
		return nil, err
	}
	return n, nil
}

func (t Long) check(n int64, input any) error {
	if t.Min != nil && n < *t.Min {
		return convErr(t.Name(), input, fmt.Errorf("below minimum %d", *t.Min))
	}
	if t.Max != nil && n > *t.Max {
		return convErr(t.Name(), input, fmt.Errorf("above maximum %d", *t.Max))
	}
	return nil
}

// Float is a 64-bit float. When Precision is set, native values are rounded
// to that many decimal places.
type Float struct {
	Precision *int
}

func (Float) Name() string { return "float" }

func (t Float) ToWire(v any) (string, error) {
	f, err := asFloat64(t.Name(), v)
	if err != nil {
		return "", err
	}
	return FormatFloat(t.round(f)), nil
}

func (t Float) ToNative(s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, convErr(t.Name(), s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, convErr(t.Name(), s, errors.New("not a finite number"))
	}
	return t.round(f), nil
}

func (t Float) round(f float64) float64 {
	if t.Precision == nil {
		return f
	}
	p := math.Pow(10, float64(*t.Precision))
	return math.Round(f*p) / p
}

// Boolean accepts only the literal tokens "true" and "false".
type Boolean struct{}

func (Boolean) Name() string { return "bool" }

func (t Boolean) ToWire(v any) (string, error) {
	switch b := v.(type) {
	case bool:
		return strconv.FormatBool(b), nil
	case string:
		if _, err := t.ToNative(b); err != nil {
			return "", err
		}
		return b, nil
	}
	return "", convErr(t.Name(), v, ErrUnsupportedValue)
}

func (t Boolean) ToNative(s string) (any, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return nil, convErr(t.Name(), s, nil)
}

// DateTime accepts NOW-relative date math or an absolute ISO timestamp.
type DateTime struct{}

func (DateTime) Name() string { return "datetime" }

func (t DateTime) ToWire(v any) (string, error) {
	switch d := v.(type) {
	case time.Time:
		return d.UTC().Format(WireTimeLayout), nil
	case *time.Time:
		if d == nil {
			break
		}
		return d.UTC().Format(WireTimeLayout), nil
	case DateMath:
		if !IsDateMath(string(d)) {
			return "", convErr(t.Name(), v, errors.New("malformed date math"))
		}
		return string(d), nil
	case string:
		if IsDateMath(d) {
			return d, nil
		}
		ts, err := time.Parse(time.RFC3339Nano, d)
		if err != nil {
			return "", convErr(t.Name(), v, err)
		}
		return ts.UTC().Format(WireTimeLayout), nil
	}
	return "", convErr(t.Name(), v, ErrUnsupportedValue)
}

func (t DateTime) ToNative(s string) (any, error) {
	if IsDateMath(s) {
		return DateMath(s), nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, convErr(t.Name(), s, err)
	}
	return ts.UTC(), nil
}

// Text is a plain string, normalized to NFC in both directions so that
// equal strings produce equal query text.
type Text struct{}

func (Text) Name() string { return "text" }

func (t Text) ToWire(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return norm.NFC.String(s), nil
	case []byte:
		return norm.NFC.String(string(s)), nil
	case fmt.Stringer:
		return norm.NFC.String(s.String()), nil
	}
	return "", convErr(t.Name(), v, ErrUnsupportedValue)
}

func (Text) ToNative(s string) (any, error) {
	return norm.NFC.String(s), nil
}

// Lookup resolves a type name as written in request documents.
func Lookup(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "string", "str":
		return Text{}, nil
	case "int", "integer":
		return Integer{}, nil
	case "long", "int64":
		return Long{}, nil
	case "float", "double":
		return Float{}, nil
	case "bool", "boolean":
		return Boolean{}, nil
	case "datetime", "date":
		return DateTime{}, nil
	}
	return nil, fmt.Errorf("unknown field type %q", name)
}

// FormatFloat renders f the way the engine parses it: plain decimal notation
// for ordinary magnitudes, exponent notation for very small or large ones.
func FormatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func asInt64(typ string, v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return uintToInt64(typ, uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return uintToInt64(typ, n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, convErr(typ, v, err)
		}
		return i, nil
	}
	return 0, convErr(typ, v, ErrUnsupportedValue)
}

func uintToInt64(typ string, n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, convErr(typ, n, errors.New("out of 64-bit range"))
	}
	return int64(n), nil
}

func asFloat64(typ string, v any) (float64, error) {
	switch f := v.(type) {
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, convErr(typ, v, errors.New("not a finite number"))
		}
		return f, nil
	case float32:
		return asFloat64(typ, float64(f))
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return 0, convErr(typ, v, err)
		}
		return asFloat64(typ, p)
	}
	n, err := asInt64(typ, v)
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}
