package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/solq/internal/facet"
)

// KeyOf returns the stored key for a facet value: strings verbatim,
// everything else as its wire token.
func KeyOf(v any) (string, error) {
	key, err := facet.ParamString(v)
	if err != nil {
		return "", fmt.Errorf("instance key: %w", err)
	}
	return key, nil
}

// marshalPayload converts a payload to JSON TEXT for storage.
// Map keys are sorted by encoding/json; HTML escaping is disabled so the
// stored text matches the input.
func marshalPayload(payload any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalPayload parses JSON TEXT. Numbers decode as json.Number to
// avoid float64 precision loss for values > 2^53.
func unmarshalPayload(data string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return v, nil
}
