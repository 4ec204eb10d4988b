// Package ast declares the syntax tree produced by the parser.
//
// Node is a closed sum type: every implementation lives in this package and
// reports its [Kind]. Nodes own their children exclusively. A tree that must
// outlive its module, such as the body of a closure, is duplicated with
// [Copy].
package ast

import (
	"fmt"
	"strconv"

	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/symbol"
	"github.com/ardnew/plet/lang/token"
)

// Kind identifies the concrete type of a [Node].
type Kind uint8

const (
	KindName      Kind = iota // name
	KindInt                   // int
	KindFloat                 // float
	KindString                // string
	KindList                  // list
	KindObject                // object
	KindApply                 // apply
	KindSubscript             // subscript
	KindDot                   // dot
	KindPrefix                // prefix
	KindInfix                 // infix
	KindFn                    // fn
	KindIf                    // if
	KindFor                   // for
	KindSwitch                // switch
	KindAssign                // assign
	KindBlock                 // block
	KindExport                // export
	KindSuppress              // suppress
	KindReturn                // return
	KindBreak                 // break
	KindContinue              // continue
)

var kindNames = [...]string{
	"name", "int", "float", "string", "list", "object", "apply", "subscript",
	"dot", "prefix", "infix", "fn", "if", "for", "switch", "assign", "block",
	"export", "suppress", "return", "break", "continue",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Span is the source range of a node.
type Span struct {
	Start token.Pos
	End   token.Pos
}

// Bounds returns s. It lets every node expose its span through embedding.
func (s Span) Bounds() Span { return s }

// Node is any syntax tree node.
type Node interface {
	Bounds() Span
	Kind() Kind
}

// PrefixOp is a unary operator.
type PrefixOp uint8

const (
	OpNot PrefixOp = iota
	OpNeg
)

func (o PrefixOp) String() string {
	if o == OpNot {
		return "not"
	}

	return "-"
}

// InfixOp is a binary operator. OpNone marks a plain assignment.
type InfixOp uint8

const (
	OpNone InfixOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpAnd
	OpOr
)

var infixNames = [...]string{
	OpNone: "=", OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=", OpEq: "==", OpNe: "!=",
	OpAnd: "and", OpOr: "or",
}

func (o InfixOp) String() string {
	if int(o) < len(infixNames) {
		return infixNames[o]
	}

	return "InfixOp(" + strconv.Itoa(int(o)) + ")"
}

type (
	// Name is a variable reference.
	Name struct {
		Sym symbol.Symbol
		Span
	}

	// Int is an integer literal.
	Int struct {
		Span
		Value int64
	}

	// Float is a floating-point literal.
	Float struct {
		Span
		Value float64
	}

	// String is a string literal or a run of template text.
	String struct {
		Value string
		Span
	}

	// List is an array literal.
	List struct {
		Items []Node
		Span
	}

	// Property is one key/value pair of an object literal. A Name key is
	// taken literally as a symbol; any other key is evaluated.
	Property struct {
		Key   Node
		Value Node
	}

	// Object is an object literal.
	Object struct {
		Props []Property
		Span
	}

	// Apply is a function call.
	Apply struct {
		Callee Node
		Args   []Node
		Span
	}

	// Subscript is an index expression target[index].
	Subscript struct {
		Target Node
		Index  Node
		Span
	}

	// Dot is a property access target.name.
	Dot struct {
		Target Node
		Name   symbol.Symbol
		Span
	}

	Prefix struct {
		Operand Node
		Span
		Op PrefixOp
	}

	Infix struct {
		Left  Node
		Right Node
		Span
		Op InfixOp
	}

	// Fn is a function literal. Free lists the names the body references
	// that are not parameters.
	Fn struct {
		Body   Node
		Params []symbol.Symbol
		Free   []symbol.Symbol
		Span
	}

	// If is a conditional. Else may be nil.
	If struct {
		Cond Node
		Then Node
		Else Node
		Span
	}

	// For is a loop. Key is the zero symbol when only values are bound,
	// and Else runs when the collection is empty.
	For struct {
		Collection Node
		Body       Node
		Else       Node
		Key        symbol.Symbol
		Value      symbol.Symbol
		Span
	}

	Case struct {
		Match Node
		Body  Node
	}

	Switch struct {
		Subject Node
		Default Node
		Cases   []Case
		Span
	}

	// Assign stores Value into Target, combining with the existing value
	// when Op is not OpNone.
	Assign struct {
		Target Node
		Value  Node
		Span
		Op InfixOp
	}

	// Block is a sequence of statements and template text. Quote marks an
	// interpolated string literal, which always evaluates to a string.
	Block struct {
		Items []Node
		Span
		Quote bool
	}

	// Export binds a name and records it in the module's export list.
	// A nil Value exports the name's current binding.
	Export struct {
		Value Node
		Name  symbol.Symbol
		Span
	}

	// Suppress silences lookup errors in its operand.
	Suppress struct {
		Operand Node
		Span
	}

	// Return leaves the enclosing function or module. Value may be nil.
	Return struct {
		Value Node
		Span
	}

	Break struct {
		Span
		Level int64
	}

	Continue struct {
		Span
		Level int64
	}
)

func (*Name) Kind() Kind      { return KindName }
func (*Int) Kind() Kind       { return KindInt }
func (*Float) Kind() Kind     { return KindFloat }
func (*String) Kind() Kind    { return KindString }
func (*List) Kind() Kind      { return KindList }
func (*Object) Kind() Kind    { return KindObject }
func (*Apply) Kind() Kind     { return KindApply }
func (*Subscript) Kind() Kind { return KindSubscript }
func (*Dot) Kind() Kind       { return KindDot }
func (*Prefix) Kind() Kind    { return KindPrefix }
func (*Infix) Kind() Kind     { return KindInfix }
func (*Fn) Kind() Kind        { return KindFn }
func (*If) Kind() Kind        { return KindIf }
func (*For) Kind() Kind       { return KindFor }
func (*Switch) Kind() Kind    { return KindSwitch }
func (*Assign) Kind() Kind    { return KindAssign }
func (*Block) Kind() Kind     { return KindBlock }
func (*Export) Kind() Kind    { return KindExport }
func (*Suppress) Kind() Kind  { return KindSuppress }
func (*Return) Kind() Kind    { return KindReturn }
func (*Break) Kind() Kind     { return KindBreak }
func (*Continue) Kind() Kind  { return KindContinue }

// Module is a parsed source file.
type Module struct {
	Root  Node
	File  string
	Diags lang.Diagnostics
}

// Failed reports whether parsing produced an error. A failed module must not
// be evaluated.
func (m *Module) Failed() bool {
	for _, d := range m.Diags {
		if d.Severity == lang.SeverityError {
			return true
		}
	}

	return false
}

// Errorf records an error diagnostic spanning start to end.
func (m *Module) Errorf(start, end token.Pos, format string, args ...any) {
	m.Diags = append(m.Diags, lang.Diagnostic{
		File:     m.File,
		Message:  fmt.Sprintf(format, args...),
		Start:    start,
		End:      end,
		Severity: lang.SeverityError,
	})
}
