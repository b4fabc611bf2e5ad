package facet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Section is the decoded facet_counts object of a response.
type Section struct {
	Queries map[string]any        `json:"facet_queries,omitempty"`
	Fields  map[string][]any      `json:"facet_fields,omitempty"`
	Ranges  map[string]RawRange   `json:"facet_ranges,omitempty"`
	Pivots  map[string][]RawPivot `json:"facet_pivot,omitempty"`
}

// RawRange is one entry of facet_ranges.
//
// Counts alternates bucket start and count. It may carry one extra trailing
// element, the end of the last bucket.
type RawRange struct {
	Start  any   `json:"start,omitempty"`
	End    any   `json:"end,omitempty"`
	Gap    any   `json:"gap,omitempty"`
	Counts []any `json:"counts"`
}

// RawPivot is one node of a facet_pivot tree.
type RawPivot struct {
	Field string     `json:"field"`
	Value any        `json:"value"`
	Count any        `json:"count"`
	Pivot []RawPivot `json:"pivot,omitempty"`
}

// ParseSection decodes a facet_counts object. Numbers are kept as
// json.Number so integer tokens survive unchanged.
func ParseSection(data []byte) (*Section, error) {
	var s Section
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return &s, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode facet section: %w", err)
	}
	return &s, nil
}

// rawToken renders a decoded JSON scalar as the wire token the codec parses.
func rawToken(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}

// rawCount converts a decoded count to int. Counts are non-negative
// integers; anything else is malformed.
func rawCount(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, t >= 0
	case int64:
		return int(t), t >= 0
	case float64:
		if t < 0 || t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		n, err := strconv.ParseInt(t.String(), 10, 64)
		return int(n), err == nil && n >= 0
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil && n >= 0
	}
	return 0, false
}
