package querytext

import (
	"strings"

	"github.com/roach88/solq/internal/codec"
	"github.com/roach88/solq/internal/predicate"
)

var funcLiteralEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// RenderFunc renders name(arg1,arg2)^weight. String arguments are field
// names unless they contain whitespace or syntax, in which case they are
// emitted as double-quoted literals.
func RenderFunc(f predicate.Func) (string, error) {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		s, err := renderFuncArg(a)
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	s := f.Name + "(" + strings.Join(args, ",") + ")"
	if f.Weight != 0 {
		s += "^" + codec.FormatFloat(f.Weight)
	}
	return s, nil
}

// RenderFuncs renders a space-separated function list.
func RenderFuncs(fs predicate.Funcs) (string, error) {
	parts := make([]string, len(fs))
	for i, f := range fs {
		s, err := RenderFunc(f)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, " "), nil
}

func renderFuncArg(a any) (string, error) {
	switch v := a.(type) {
	case predicate.Func:
		return RenderFunc(v)
	case predicate.Trusted:
		return string(v), nil
	case string:
		if codec.IsDateMath(v) {
			return v, nil
		}
		if v == "" || predicate.HasWhitespace(v) || strings.ContainsAny(v, `,()"'`) {
			return `"` + funcLiteralEscaper.Replace(normalize(v)) + `"`, nil
		}
		return normalize(v), nil
	case *predicate.Node:
		s, err := Compile(v, nil)
		if err != nil {
			return "", err
		}
		return `"` + funcLiteralEscaper.Replace(s) + `"`, nil
	}
	return codec.Encode(a)
}
