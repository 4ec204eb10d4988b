package interp

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/lexer"
	"github.com/ardnew/plet/lang/parser"
	"github.com/ardnew/plet/lang/value"
	"github.com/ardnew/plet/log"
)

func newEnv(t testing.TB) *value.Env {
	t.Helper()

	s := value.NewSession(log.Make(nil))
	t.Cleanup(s.Close)

	env := value.NewEnv(s, arena.New())
	env.DefineName("nil", value.Nil{})
	env.DefineName("false", value.Nil{})
	env.DefineName("true", value.True{})
	env.DefineNative("map", mapNative)

	return env
}

// mapNative applies args[1] to each item of the array args[0].
func mapNative(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(2, args) {
		return value.Nil{}
	}

	src, isArr := args[0].(*value.Array)
	if !isArr {
		env.ArgTypeError(0, value.KindArray, args)

		return value.Nil{}
	}

	out := value.NewArray(env.Arena, src.Len())

	for i, item := range src.Items() {
		v, ok := Apply(args[1], []value.Value{item, value.Int(i)}, env)
		if !ok {
			return value.Nil{}
		}

		out.Push(v)
	}

	return out
}

func run(t *testing.T, env *value.Env, mode lexer.Mode, src string) (value.Value, error) {
	t.Helper()

	r := lexer.Open(strings.NewReader(src), "test.plet", env.Session.Symbols)
	m := parser.Parse(r.ReadAll(mode), "test.plet")

	return Eval(m, env)
}

func eval(t *testing.T, src string) value.Value {
	t.Helper()

	v, err := run(t, newEnv(t), lexer.ModeExpression, src)
	if err != nil {
		t.Fatalf("%q: %v", src, err)
	}

	return v
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want value.Value
	}{
		{"1 == 1", value.True{}},
		{"1 == 2", value.Nil{}},
		{"1 != 2", value.True{}},
		{"1 + 2 * 3", value.Int(7)},
		{"7 / 2", value.Int(3)},
		{"7 % 4", value.Int(3)},
		{"1 + 0.5", value.Float(1.5)},
		{"-(2 - 5)", value.Int(3)},
		{"'a' + 1", value.String("a1")},
		{"'b' > 'a'", value.True{}},
		{"2 <= 1.5", value.Nil{}},
		{"not 0", value.True{}},
		{"nil or 'x'", value.String("x")},
		{"'y' or 'x'", value.String("y")},
		{"1 and 2", value.Int(2)},
		{"0 and 2", value.Nil{}},
		{"[1, 2] == [1, 2]", value.True{}},
		{"{a: 1, b: 2} == {b: 2, a: 1}", value.True{}},
		{"([1] + [2])[1]", value.Int(2)},
		{"({a: 1} + {a: 2, b: 3}).a", value.Int(2)},
		{"'abc'[1]", value.Int('b')},
		{"{a: 1}['missing']", value.Nil{}},
		{"x = 2\nx += 3\nx", value.Int(5)},
		{"o = {n: 1}\no.n *= 4\no.n", value.Int(4)},
		{"a = [1, 2]\na[0] = 9\na[0]", value.Int(9)},
		{"if 0 then 'a' else 'b' end if", value.String("b")},
		{"switch 2\ncase 1 'one'\ncase 2 'two'\ndefault 'many'\nend switch", value.String("two")},
		{"undefined?", value.Nil{}},
		{"nothing?.field", value.Nil{}},
		{"{}.missing?", value.Nil{}},
		{`"n={1 + 1}"`, value.String("n=2")},
		{`x = 5` + "\n" + `"{x}"`, value.String("5")},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := eval(t, tt.src); !value.Equals(got, tt.want) {
				t.Errorf("got %s %q, want %s %q",
					value.TypeName(got), value.ToString(got),
					value.TypeName(tt.want), value.ToString(tt.want))
			}
		})
	}
}

func TestClosureApply(t *testing.T) {
	env := newEnv(t)

	f, err := run(t, env, lexer.ModeExpression, "fn(x) { x }")
	if err != nil {
		t.Fatal(err)
	}

	if v, ok := Apply(f, []value.Value{value.Int(5)}, env); !ok || v != value.Int(5) {
		t.Errorf("f(5) = %v, %v", v, ok)
	}

	if v, ok := Apply(f, nil, env); !ok || !value.IsNil(v) {
		t.Errorf("f() = %v, %v", v, ok)
	}
}

func TestClosures(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want value.Value
	}{
		{"arrow", "inc = fn(x) -> x + 1\ninc(1)", value.Int(2)},
		{"captured by value", "n = 1\nf = fn() -> n\nn = 2\nf()", value.Int(1)},
		{"captured array handle", "a = [1]\nf = fn() -> a[0]\na[0] = 2\nf()", value.Int(2)},
		{"captured object handle", "o = {n: 1}\nf = fn() -> o.n\no.n = 2\nf()", value.Int(2)},
		{"recursion", "fn fact(n)\n  if n <= 1 then return 1 end if\n  return n * fact(n - 1)\nend fn\nfact(5)", value.Int(120)},
		{"return object", "f = fn() -> {a: 1}\nf().a", value.Int(1)},
		{"pipe", "double = fn(x) -> x * 2\n3 | double", value.Int(6)},
		{"map", "map([1, 2], fn(x, i) -> x + i)", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eval(t, tt.src)
			if tt.want == nil {
				tt.want = value.ArrayOf(nil, value.Int(1), value.Int(3))
			}

			if !value.Equals(got, tt.want) {
				t.Errorf("got %s %q", value.TypeName(got), value.ToString(got))
			}
		})
	}
}

func TestClosureOutlivesModuleArena(t *testing.T) {
	env := newEnv(t)
	mod := arena.New()
	menv := value.NewEnv(env.Session, mod)
	menv.DefineName("suffix", value.String("!"))

	f, err := run(t, menv, lexer.ModeExpression, "fn(s) -> s + suffix")
	if err != nil {
		t.Fatal(err)
	}

	mod.Delete()

	if v, ok := Apply(f, []value.Value{value.String("hi")}, env); !ok || v != value.String("hi!") {
		t.Errorf("f('hi') = %v, %v", v, ok)
	}
}

func TestLoops(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"array", "{for x in [1, 2, 3]}{x},{end for}", "1,2,3,"},
		{"key", "{for i, x in ['a', 'b']}{i}{x}{end for}", "0a1b"},
		{"object", "{for k, v in {a: 1, b: 2}}{k}={v};{end for}", "a=1;b=2;"},
		{"string bytes", "{for c in 'AB'}{c} {end for}", "65 66 "},
		{"else", "{for x in []}x{else}empty{end for}", "empty"},
		{"break", "{for x in [1, 2, 3]}{if x == 2}{break}{end if}{x}{end for}", "1"},
		{"continue", "{for x in [1, 2, 3]}{if x == 2}{continue}{end if}{x}{end for}", "13"},
		{"break outer", "{for a in [1, 2]}{for b in [1, 2]}{a}{b}{break 2}{end for}{end for}", "11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := run(t, newEnv(t), lexer.ModeTemplate, tt.src)
			if err != nil {
				t.Fatal(err)
			}

			if got := value.ToString(v); got != tt.want {
				t.Errorf("output %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExports(t *testing.T) {
	env := newEnv(t)

	_, err := run(t, env, lexer.ModeExpression, "export a = 1\nb = 2\nexport b\nc = 3")
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for sym := range env.Exports() {
		names = append(names, sym.Name())
	}

	if got := strings.Join(names, ","); got != "a,b" {
		t.Errorf("exports = %s", got)
	}
}

func TestContainerOutlivesModuleArena(t *testing.T) {
	env := newEnv(t)
	mod := arena.New()
	menv := value.NewEnv(env.Session, mod)

	// data is bound after f is created, so f finds it through menv.
	f, err := run(t, menv, lexer.ModeExpression, "f = fn() -> data\ndata = {}\nf")
	if err != nil {
		t.Fatal(err)
	}

	mod.Delete()

	v, ok := Apply(f, nil, env)
	if !ok {
		t.Fatal("f() failed")
	}

	obj, isObj := v.(*value.Object)
	if !isObj {
		t.Fatalf("f() = %s", value.TypeName(v))
	}

	n := 2 * value.InitialCapacity
	for i := range n {
		obj.Put(value.Int(i), value.Int(i))
	}

	if obj.Len() != n {
		t.Errorf("len = %d, want %d", obj.Len(), n)
	}
}

func TestApplyOrder(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"undefined callee", "g(h)", []string{"1:1: error: undefined function: g"}},
		{"callee expression", "[x][0](y)", []string{
			"1:2: error: undefined variable: x",
			"1:8: error: undefined variable: y",
			"value of type nil is not a function",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, newEnv(t), lexer.ModeExpression, tt.src)

			var diags lang.Diagnostics
			if !errors.As(err, &diags) {
				t.Fatalf("error %v is not diagnostics", err)
			}

			if len(diags) != len(tt.want) {
				t.Fatalf("diagnostics = %q", diags.Error())
			}

			for i, want := range tt.want {
				if got := diags[i].Error(); !strings.Contains(got, want) {
					t.Errorf("diagnostic %d = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"undefined variable", "x + 1", "test.plet:1:1: error: undefined variable: x"},
		{"undefined function", "f(1)", "undefined function: f"},
		{"not a function", "x = 1\nx()", "value of type int is not a function"},
		{"index type", "[1]['a']", "value of type string is not a valid array index"},
		{"index range", "[1][3]", "array index out of range: 3"},
		{"string range", "'a'[-1]", "string index out of range: -1"},
		{"not indexable", "1[0]", "value of type int is not indexable"},
		{"not an object", "(1).a", "value of type int is not an object"},
		{"missing property", "{a: 1}.b", "undefined object property: b"},
		{"bad operands", "[] - 1", "'-'-operator undefined for types array and int"},
		{"division by zero", "1 / 0", "division by zero"},
		{"comparison", "'a' < 1", "'<'-operator undefined for types string and int"},
		{"not iterable", "for x in 5 x end for", "value of type int is not iterable"},
		{"break outside loop", "break", "unexpected break outside of loop"},
		{"break level", "for x in [1] break 3 end for", "expected an integer between 1 and 1"},
		{"compound undefined", "y += 1", "undefined variable: y"},
		{"invalid target", "1 = 2", "left side of assignment is invalid"},
		{"native arg error", "map(1, 2)", "test.plet:1:5: error: unexpected argument of type int, array expected"},
		{"native arity", "map()", "too few arguments for function, 2 expected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := run(t, newEnv(t), lexer.ModeExpression, tt.src)

			var diags lang.Diagnostics
			if !errors.As(err, &diags) {
				t.Fatalf("error %v is not diagnostics", err)
			}

			if !strings.Contains(diags.Error(), tt.want) {
				t.Errorf("diagnostics %q do not contain %q", diags.Error(), tt.want)
			}

			if v == nil {
				t.Error("nil interface returned")
			}
		})
	}
}

func TestErrorInsideLibraryCall(t *testing.T) {
	env := newEnv(t)
	src := "xs = [1, 2]\nys = map(xs, fn(x) -> x + y)\nys"

	v, err := run(t, env, lexer.ModeExpression, src)

	var diags lang.Diagnostics
	if !errors.As(err, &diags) {
		t.Fatalf("error = %v", err)
	}

	// The failed lookup also makes the addition fail; map stops after the
	// first element.
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %v", diags)
	}

	d := diags[0]
	if d.Message != "undefined variable: y" || d.Start.Line != 2 || d.Start.Column != 27 {
		t.Errorf("diagnostic = %s", d.Error())
	}

	if !value.IsNil(v) {
		t.Errorf("map result = %v, want nil", v)
	}
}

func TestParseErrorsPreventEvaluation(t *testing.T) {
	env := newEnv(t)

	_, err := run(t, env, lexer.ModeExpression, "x = (1")
	if !errors.Is(err, lang.ErrModuleFailed) {
		t.Errorf("err = %v", err)
	}

	if _, found := env.LookupName("x"); found {
		t.Error("module was evaluated")
	}
}
