package interp

import (
	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/value"
)

// Eval interprets the root of m in env. A module with parse errors is not
// evaluated. When evaluation reports errors, the value is returned together
// with the [lang.Diagnostics] reported while it ran.
func Eval(m *ast.Module, env *value.Env) (value.Value, error) {
	if m.Failed() {
		return value.Nil{}, lang.ErrModuleFailed.Wrap(m.Diags.Errors())
	}

	if m.File != "" {
		env.File = m.File
	}

	mark := len(env.Session.Diagnostics())
	r := Interpret(m.Root, env)

	if errs := env.Session.Since(mark).Errors(); len(errs) > 0 {
		return orNil(r.Value), errs
	}

	return orNil(r.Value), nil
}
