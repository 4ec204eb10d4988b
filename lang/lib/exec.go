package lib

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/plet/lang/value"
)

// Exec defines functions for running shell commands.
func Exec(env *value.Env) {
	env.DefineNative("shell_escape", shellEscape)
	env.DefineNative("exec", execCommand)
}

// ShellQuote wraps s in single quotes for /bin/sh. Embedded quotes are
// escaped between quoted runs and NUL bytes are dropped.
func ShellQuote(s string) string {
	var sb strings.Builder

	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')

	for i := range len(s) {
		switch c := s[i]; c {
		case 0:
		case '\'':
			sb.WriteString(`'\''`)
		default:
			sb.WriteByte(c)
		}
	}

	sb.WriteByte('\'')

	return sb.String()
}

func shellWord(v value.Value) string {
	switch v := v.(type) {
	case value.String:
		return ShellQuote(string(v))
	case value.Symbol:
		return ShellQuote(v.Name())
	}

	return ShellQuote(value.ToString(v))
}

func shellEscape(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	return value.String(shellWord(args[0]))
}

// commandPath returns PATH with SRC_ROOT/bin in front, so a site can ship
// its own helper programs.
func commandPath(env *value.Env) string {
	path := os.Getenv("PATH")

	root := env.String("SRC_ROOT")
	if root == "" {
		return path
	}

	return mung.Make(
		mung.WithSubjectItems(path),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(filepath.Join(root, "bin")),
	).String()
}

// execCommand runs a shell command with the remaining arguments appended as
// quoted words and returns what it wrote to stdout.
func execCommand(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(1, -1, args) {
		return value.Nil{}
	}

	command, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	var sb strings.Builder

	sb.WriteString(string(command))

	for _, a := range args[1:] {
		sb.WriteByte(' ')
		sb.WriteString(shellWord(a))
	}

	cmd := exec.Command("/bin/sh", "-c", sb.String())
	cmd.Env = append(os.Environ(), "PATH="+commandPath(env))
	cmd.Stderr = os.Stderr

	if dir := env.String("SRC_ROOT"); dir != "" {
		cmd.Dir = dir
	}

	var out bytes.Buffer

	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		var exit *exec.ExitError
		if !errors.As(err, &exit) {
			env.Errorf("unable to fork: %s", err)

			return value.Nil{}
		}

		env.Warnf("command exited with status %d", exit.ExitCode())
	}

	return value.String(out.String())
}
