package ast

import "github.com/ardnew/plet/lang/symbol"

// Children returns the direct child nodes of n in source order, skipping
// absent optional children.
func Children(n Node) []Node {
	var out []Node

	add := func(cs ...Node) {
		for _, c := range cs {
			if c != nil {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *List:
		add(n.Items...)
	case *Object:
		for _, p := range n.Props {
			add(p.Key, p.Value)
		}
	case *Apply:
		add(n.Callee)
		add(n.Args...)
	case *Subscript:
		add(n.Target, n.Index)
	case *Dot:
		add(n.Target)
	case *Prefix:
		add(n.Operand)
	case *Infix:
		add(n.Left, n.Right)
	case *Fn:
		add(n.Body)
	case *If:
		add(n.Cond, n.Then, n.Else)
	case *For:
		add(n.Collection, n.Body, n.Else)
	case *Switch:
		add(n.Subject)

		for _, c := range n.Cases {
			add(c.Match, c.Body)
		}

		add(n.Default)
	case *Assign:
		add(n.Target, n.Value)
	case *Block:
		add(n.Items...)
	case *Export:
		add(n.Value)
	case *Suppress:
		add(n.Operand)
	case *Return:
		add(n.Value)
	}

	return out
}

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// each node. Children are skipped when f returns false.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}

	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// FreeVariables returns, in order of first use, the names referenced in body
// that are not among params. Object literal keys are not references.
func FreeVariables(params []symbol.Symbol, body Node) []symbol.Symbol {
	bound := make(map[symbol.Symbol]bool, len(params))
	for _, p := range params {
		bound[p] = true
	}

	var free []symbol.Symbol

	use := func(s symbol.Symbol) {
		if !bound[s] {
			bound[s] = true
			free = append(free, s)
		}
	}

	var visit func(Node) bool

	visit = func(n Node) bool {
		switch n := n.(type) {
		case *Name:
			use(n.Sym)
		case *Export:
			if n.Value == nil {
				use(n.Name)
			}
		case *Object:
			for _, p := range n.Props {
				if _, ok := p.Key.(*Name); !ok {
					Inspect(p.Key, visit)
				}

				Inspect(p.Value, visit)
			}

			return false
		case *Fn:
			for _, s := range n.Free {
				use(s)
			}

			return false
		}

		return true
	}

	Inspect(body, visit)

	return free
}
