// Package codec converts values between their wire tokens and native Go values.
//
// Every Type is symmetric: ToWire renders a native value as the token the
// search engine expects, ToNative parses a token coming back in a response.
// The predicate compiler uses the outbound direction; the facet engine uses
// the inbound direction on facet keys and range bucket labels.
//
// Native representations:
//
//	Integer   int     (signed 32-bit range)
//	Long      int64   (signed 64-bit range, optional bounds)
//	Float     float64 (optional rounding precision)
//	Boolean   bool    (tokens "true" and "false" only)
//	DateTime  time.Time, or DateMath for NOW-relative expressions
//	Text      string  (NFC normalized)
//
// All conversion failures are reported as *ConversionError.
package codec
