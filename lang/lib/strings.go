package lib

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ardnew/plet/lang/value"
)

// Strings defines string conversion and inspection functions.
func Strings(env *value.Env) {
	env.DefineNative("lower", caseMapper(cases.Lower(language.Und)))
	env.DefineNative("upper", caseMapper(cases.Upper(language.Und)))
	env.DefineNative("title", caseMapper(cases.Title(language.Und)))
	env.DefineNative("starts_with", affixTest(strings.HasPrefix))
	env.DefineNative("ends_with", affixTest(strings.HasSuffix))
	env.DefineNative("replace", replace)
	env.DefineNative("symbol", toSymbol)
	env.DefineNative("json", toJSON)
	env.DefineNative("yaml", toYAML)
	env.DefineNative("split", split)
	env.DefineNative("join", join)
	env.DefineNative("trim", trim)
	env.DefineNative("lipsum", lipsum)
}

func caseMapper(c cases.Caser) value.NativeFunc {
	return func(args []value.Value, env *value.Env) value.Value {
		if !env.CheckArgs(1, args) {
			return value.Nil{}
		}

		s, ok := arg[value.String](0, value.KindString, args, env)
		if !ok {
			return value.Nil{}
		}

		return value.String(c.String(string(s)))
	}
}

func affixTest(test func(s, affix string) bool) value.NativeFunc {
	return func(args []value.Value, env *value.Env) value.Value {
		if !env.CheckArgs(2, args) {
			return value.Nil{}
		}

		s, ok := arg[value.String](0, value.KindString, args, env)
		if !ok {
			return value.Nil{}
		}

		affix, ok := arg[value.String](1, value.KindString, args, env)
		if !ok {
			return value.Nil{}
		}

		return value.Bool(test(string(s), string(affix)))
	}
}

// replace substitutes the first occurrence of a needle.
func replace(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(3, args) {
		return value.Nil{}
	}

	var parts [3]value.String

	for i := range parts {
		s, ok := arg[value.String](i, value.KindString, args, env)
		if !ok {
			return value.Nil{}
		}

		parts[i] = s
	}

	if parts[1] == "" {
		return parts[0]
	}

	return value.String(strings.Replace(string(parts[0]), string(parts[1]), string(parts[2]), 1))
}

func toSymbol(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	s, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	return sym(env, string(s))
}

func toJSON(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	var buf bytes.Buffer
	EncodeJSON(&buf, args[0])

	return value.String(buf.String())
}

// EncodeJSON writes v as compact JSON. Object members keep their order and
// non-string keys are encoded as the JSON text of the key. Times are UTC
// RFC 3339 strings, functions are the string "(function)" and NaN or
// infinite floats are null.
func EncodeJSON(buf *bytes.Buffer, v value.Value) {
	switch v := v.(type) {
	case value.Nil:
		buf.WriteString("null")
	case value.True:
		buf.WriteString("true")
	case value.Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case value.Float:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			buf.WriteString("null")

			break
		}

		buf.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
	case value.Symbol:
		quoteJSON(buf, v.Name())
	case value.String:
		quoteJSON(buf, string(v))
	case value.Time:
		quoteJSON(buf, v.UTC().Format(time.RFC3339))
	case *value.Array:
		buf.WriteByte('[')

		for i, item := range v.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}

			EncodeJSON(buf, item)
		}

		buf.WriteByte(']')
	case *value.Object:
		buf.WriteByte('{')

		first := true

		for key, item := range v.All() {
			if !first {
				buf.WriteByte(',')
			}

			first = false

			switch key := key.(type) {
			case value.String, value.Symbol:
				EncodeJSON(buf, key)
			default:
				var kb bytes.Buffer
				EncodeJSON(&kb, key)
				quoteJSON(buf, kb.String())
			}

			buf.WriteByte(':')
			EncodeJSON(buf, item)
		}

		buf.WriteByte('}')
	default:
		quoteJSON(buf, "(function)")
	}
}

func quoteJSON(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)

	// Encode terminates each value with a newline.
	buf.Truncate(buf.Len() - 1)
}

func toYAML(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	out, err := yaml.Marshal(value.ToYAML(args[0]))
	if err != nil {
		env.Errorf("yaml encoding error: %s", err)

		return value.Nil{}
	}

	return value.String(out)
}

func split(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(1, 2, args) {
		return value.Nil{}
	}

	s, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	sep, ok := optArg(1, value.KindString, value.String(""), args, env)
	if !ok {
		return value.Nil{}
	}

	var parts []string
	if len(args) < 2 {
		parts = strings.Fields(string(s))
	} else {
		parts = strings.Split(string(s), string(sep))
	}

	out := value.NewArray(env.Arena, len(parts))
	for _, p := range parts {
		out.Push(value.String(p))
	}

	return out
}

func join(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(1, 2, args) {
		return value.Nil{}
	}

	arr, ok := arg[*value.Array](0, value.KindArray, args, env)
	if !ok {
		return value.Nil{}
	}

	sep, ok := optArg(1, value.KindString, value.String(""), args, env)
	if !ok {
		return value.Nil{}
	}

	var sb strings.Builder

	for i, item := range arr.Items() {
		if i > 0 {
			sb.WriteString(string(sep))
		}

		value.WriteString(&sb, item)
	}

	return value.String(sb.String())
}

// trim removes leading and trailing white space, or the given characters.
func trim(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(1, 2, args) {
		return value.Nil{}
	}

	s, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	if len(args) < 2 {
		return value.String(strings.TrimSpace(string(s)))
	}

	cutset, ok := arg[value.String](1, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	return value.String(strings.Trim(string(s), string(cutset)))
}

func lipsum(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	n, ok := arg[value.Int](0, value.KindInt, args, env)
	if !ok {
		return value.Nil{}
	}

	return value.String(LipsumWords(NewLipsumRand(), int(n)))
}
