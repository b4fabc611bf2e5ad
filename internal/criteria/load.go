package criteria

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// Format is a request document syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatOf returns the format for a file name by extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", &LoadError{Code: ErrCodeUnknownFormat, Message: fmt.Sprintf("unsupported request document %q (want .yaml, .yml or .cue)", name)}
}

// source is a decoded document plus a way to locate its entries.
type source struct {
	doc Document
	pos func(at path) token.Pos
}

func noPos(path) token.Pos { return token.NoPos }

func readFile(name string) (*source, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error()}
	}
	return decode(data, format, name)
}

func decode(data []byte, format Format, filename string) (*source, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(data)
	case FormatCUE:
		return decodeCUE(data, filename)
	}
	return nil, &LoadError{Code: ErrCodeUnknownFormat, Message: fmt.Sprintf("unknown format %q", format)}
}

// decodeYAML parses with strict field validation, so typos such as
// "filter:" for "filters:" are rejected.
func decodeYAML(data []byte) (*source, error) {
	src := &source{pos: noPos}
	if len(bytes.TrimSpace(data)) == 0 {
		return src, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&src.doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parse YAML: %v", err)}
	}
	return src, nil
}

// decodeCUE evaluates the document, requires it to be concrete, and
// decodes its JSON form. Entry positions come from the evaluated value.
func decodeCUE(data []byte, filename string) (*source, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	src := &source{pos: func(at path) token.Pos {
		return v.LookupPath(at.cuePath()).Pos()
	}}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&src.doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("decode CUE document: %v", err), Pos: v.Pos()}
	}
	return src, nil
}

// normalize converts decoded scalars to the Go values the predicate and
// codec packages expect: json.Number becomes int or float64, RFC 3339
// strings become time.Time, and lists and maps are converted recursively.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			if n >= math.MinInt && n <= math.MaxInt {
				return int(n)
			}
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts.UTC()
		}
		return t
	case time.Time:
		return t.UTC()
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = normalize(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = normalize(el)
		}
		return out
	}
	return v
}
