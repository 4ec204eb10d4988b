package ast

import (
	"io"
	"strconv"
	"strings"
)

// Fprint writes an indented outline of the tree rooted at n to w, one node
// per line with its span.
func Fprint(w io.Writer, n Node) error {
	var sb strings.Builder

	dump(&sb, n, 0)

	_, err := io.WriteString(w, sb.String())

	return err
}

// Dump returns the outline written by [Fprint].
func Dump(n Node) string {
	var sb strings.Builder

	dump(&sb, n, 0)

	return sb.String()
}

func dump(sb *strings.Builder, n Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))

	if n == nil {
		sb.WriteString("<nil>\n")

		return
	}

	sb.WriteString(n.Kind().String())

	if label := describe(n); label != "" {
		sb.WriteByte(' ')
		sb.WriteString(label)
	}

	b := n.Bounds()
	sb.WriteString(" @")
	sb.WriteString(b.Start.String())
	sb.WriteByte('\n')

	for _, c := range Children(n) {
		dump(sb, c, depth+1)
	}
}

func describe(n Node) string {
	switch n := n.(type) {
	case *Name:
		return n.Sym.Name()
	case *Int:
		return strconv.FormatInt(n.Value, 10)
	case *Float:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *String:
		return strconv.Quote(n.Value)
	case *Dot:
		return "." + n.Name.Name()
	case *Prefix:
		return n.Op.String()
	case *Infix:
		return n.Op.String()
	case *Assign:
		if n.Op == OpNone {
			return "="
		}

		return n.Op.String() + "="
	case *Fn:
		names := make([]string, len(n.Params))
		for i, p := range n.Params {
			names[i] = p.Name()
		}

		return "(" + strings.Join(names, ", ") + ")"
	case *For:
		if n.Key.IsZero() {
			return n.Value.Name()
		}

		return n.Key.Name() + ", " + n.Value.Name()
	case *Export:
		return n.Name.Name()
	case *Break:
		return strconv.FormatInt(n.Level, 10)
	case *Continue:
		return strconv.FormatInt(n.Level, 10)
	}

	return ""
}
