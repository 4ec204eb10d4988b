package ast

import (
	"fmt"
	"strconv"
)

// Literal converts an object-notation tree into plain Go values without
// evaluating it. Objects become map[string]any with keys in their string
// form, lists become []any, and the names true, false, nil and null map to
// their Go equivalents.
func Literal(n Node) (any, error) {
	switch n := n.(type) {
	case *Int:
		return n.Value, nil
	case *Float:
		return n.Value, nil
	case *String:
		return n.Value, nil

	case *Name:
		switch n.Sym.Name() {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "nil", "null":
			return nil, nil
		}

	case *Prefix:
		if n.Op == OpNeg {
			switch v := n.Operand.(type) {
			case *Int:
				return -v.Value, nil
			case *Float:
				return -v.Value, nil
			}
		}

	case *List:
		out := make([]any, 0, len(n.Items))

		for _, item := range n.Items {
			v, err := Literal(item)
			if err != nil {
				return nil, err
			}

			out = append(out, v)
		}

		return out, nil

	case *Object:
		out := make(map[string]any, len(n.Props))

		for _, prop := range n.Props {
			key, err := literalKey(prop.Key)
			if err != nil {
				return nil, err
			}

			v, err := Literal(prop.Value)
			if err != nil {
				return nil, err
			}

			out[key] = v
		}

		return out, nil
	}

	if n == nil {
		return nil, nil
	}

	b := n.Bounds()

	return nil, fmt.Errorf("%s: %s is not a literal value", b.Start, n.Kind())
}

func literalKey(n Node) (string, error) {
	switch k := n.(type) {
	case *Name:
		return k.Sym.Name(), nil
	case *String:
		return k.Value, nil
	case *Int:
		return strconv.FormatInt(k.Value, 10), nil
	}

	v, err := Literal(n)
	if err != nil {
		return "", err
	}

	return fmt.Sprint(v), nil
}
