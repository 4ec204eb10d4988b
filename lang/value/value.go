// Package value implements the runtime values of the language together with
// the environments they are bound in.
//
// Value is a closed sum type. Scalars (Nil, True, Int, Float, Symbol, String
// and Time) are immutable Go values. Arrays and objects are mutable
// containers whose storage is drawn from an [arena.Arena]. Functions are
// either host natives or closures over a deep copy of their syntax tree.
package value

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ardnew/plet/lang/symbol"
)

// Kind identifies the type of a [Value].
type Kind uint8

const (
	KindNil Kind = iota
	KindTrue
	KindInt
	KindFloat
	KindSymbol
	KindString
	KindArray
	KindObject
	KindTime
	KindNative
	KindClosure
)

var kindNames = [...]string{
	KindNil:     "nil",
	KindTrue:    "true",
	KindInt:     "int",
	KindFloat:   "float",
	KindSymbol:  "symbol",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
	KindTime:    "time",
	KindNative:  "function",
	KindClosure: "function",
}

// String returns the type name used in diagnostics. Natives and closures
// are both "function".
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is any runtime value.
type Value interface {
	Kind() Kind
}

type (
	// Nil is the absent value. The name false is also bound to Nil.
	Nil struct{}

	// True is the only non-nil boolean.
	True struct{}

	Int int64

	Float float64

	// Symbol is an interned name used as an object key.
	Symbol struct{ symbol.Symbol }

	// String is an immutable byte string.
	String string

	// Time is an instant with second precision.
	Time struct{ time.Time }
)

func (Nil) Kind() Kind    { return KindNil }
func (True) Kind() Kind   { return KindTrue }
func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (Symbol) Kind() Kind { return KindSymbol }
func (String) Kind() Kind { return KindString }
func (Time) Kind() Kind   { return KindTime }

// Bool converts b to True or Nil.
func Bool(b bool) Value {
	if b {
		return True{}
	}

	return Nil{}
}

// TypeName returns the diagnostic name of v's type.
func TypeName(v Value) string {
	if v == nil {
		return KindNil.String()
	}

	return v.Kind().String()
}

// IsNil reports whether v is Nil or a nil interface.
func IsNil(v Value) bool {
	return v == nil || v.Kind() == KindNil
}

// Truthy reports whether v counts as true in a condition. Nil, zero numbers
// and empty strings, arrays and objects are false; everything else is true.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case nil, Nil:
		return false
	case Int:
		return v != 0
	case Float:
		return v != 0
	case String:
		return len(v) > 0
	case *Array:
		return v.Len() > 0
	case *Object:
		return v.Len() > 0
	default:
		return true
	}
}

// Equals reports deep equality. Values of different kinds are never equal,
// so Int(1) differs from Float(1). Strings, arrays and objects compare by
// content; object comparison ignores insertion order. Natives and closures
// compare by identity.
func Equals(a, b Value) bool {
	if a == nil {
		a = Nil{}
	}

	if b == nil {
		b = Nil{}
	}

	if a.Kind() != b.Kind() {
		return false
	}

	switch a := a.(type) {
	case Nil, True:
		return true
	case Int:
		return a == b.(Int)
	case Float:
		// NaN equals itself so that equality stays reflexive.
		f := b.(Float)

		return a == f || (math.IsNaN(float64(a)) && math.IsNaN(float64(f)))
	case Symbol:
		return a == b.(Symbol)
	case String:
		return a == b.(String)
	case Time:
		return a.Equal(b.(Time).Time)
	case *Array:
		return a.equals(b.(*Array))
	case *Object:
		return a.equals(b.(*Object))
	case *Native:
		return a == b.(*Native)
	case *Closure:
		return a == b.(*Closure)
	}

	return false
}

// Compare orders two numbers, two strings or two times. It returns -1, 0
// or +1, and false when the operands are not comparable. Ints and floats
// compare numerically with each other.
func Compare(a, b Value) (int, bool) {
	switch a := a.(type) {
	case Int:
		switch b := b.(type) {
		case Int:
			return cmp3(a < b, a > b), true
		case Float:
			return cmp3(Float(a) < b, Float(a) > b), true
		}
	case Float:
		switch b := b.(type) {
		case Int:
			return cmp3(a < Float(b), a > Float(b)), true
		case Float:
			return cmp3(a < b, a > b), true
		}
	case String:
		if b, ok := b.(String); ok {
			return strings.Compare(string(a), string(b)), true
		}
	case Time:
		if b, ok := b.(Time); ok {
			return a.Compare(b.Time), true
		}
	}

	return 0, false
}

func cmp3(lt, gt bool) int {
	switch {
	case lt:
		return -1
	case gt:
		return 1
	default:
		return 0
	}
}

// TimeLayout is the layout of a time converted to a string.
const TimeLayout = "2006-01-02T15:04:05-0700"

// ToString returns the text a value contributes to template output.
// Nil, arrays, objects and functions contribute nothing.
func ToString(v Value) string {
	var sb strings.Builder

	WriteString(&sb, v)

	return sb.String()
}

// WriteString appends the output form of v to sb.
func WriteString(sb *strings.Builder, v Value) {
	switch v := v.(type) {
	case True:
		sb.WriteString("true")
	case Int:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
	case Symbol:
		sb.WriteString(v.Name())
	case String:
		sb.WriteString(string(v))
	case Time:
		sb.WriteString(v.Local().Format(TimeLayout))
	}
}
