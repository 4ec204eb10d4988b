// Package token defines the lexical tokens of the language and the stream
// abstraction the parser consumes them through.
package token

import (
	"fmt"
	"strconv"

	"github.com/ardnew/plet/lang/symbol"
)

// Kind identifies the lexical class of a token.
type Kind uint8

const (
	Name       Kind = iota // name
	Keyword                // keyword
	Operator               // operator
	String                 // string
	Int                    // integer
	Float                  // float
	Text                   // text
	Newline                // newline
	EndQuote               // end quote
	StartQuote             // start quote
	Punct                  // punctuation
	EOF                    // eof
)

var kindNames = [...]string{
	Name:       "name",
	Keyword:    "keyword",
	Operator:   "operator",
	String:     "string",
	Int:        "integer",
	Float:      "float",
	Text:       "text",
	Newline:    "newline",
	EndQuote:   "end quote",
	StartQuote: "start quote",
	Punct:      "punctuation",
	EOF:        "eof",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Pos is a 1-based line and column. Columns count bytes.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// IsValid reports whether p refers to a source location.
func (p Pos) IsValid() bool { return p.Line > 0 }

// Token is a lexeme with its source span and decoded payload.
//
// Text holds the decoded bytes of String and Text tokens and the spelling of
// Keyword, Operator and Punct tokens. Name tokens carry an interned Sym.
// A token with a non-empty Err is an error token: it keeps its kind and span
// and describes what was malformed.
type Token struct {
	Start Pos
	End   Pos
	Text  string
	Err   string
	Sym   symbol.Symbol
	Int   int64
	Float float64
	Kind  Kind
}

// Is reports whether t has kind k and, for spelled kinds, the given text.
func (t Token) Is(k Kind, text string) bool {
	return t.Kind == k && t.Text == text
}

// Describe renders t for diagnostics, e.g. "keyword 'end'".
func (t Token) Describe() string {
	switch t.Kind {
	case Name:
		return "name '" + t.Sym.Name() + "'"
	case Keyword, Operator, Punct:
		return t.Kind.String() + " '" + t.Text + "'"
	case Int:
		return "integer " + strconv.FormatInt(t.Int, 10)
	default:
		return t.Kind.String()
	}
}

func (t Token) String() string {
	switch t.Kind {
	case Name:
		return "Name(" + t.Sym.Name() + ")"
	case Keyword, Operator, Punct:
		return t.Kind.String() + "(" + t.Text + ")"
	case String, Text:
		return t.Kind.String() + "(" + strconv.Quote(t.Text) + ")"
	case Int:
		return "Int(" + strconv.FormatInt(t.Int, 10) + ")"
	case Float:
		return "Float(" + strconv.FormatFloat(t.Float, 'g', -1, 64) + ")"
	default:
		return t.Kind.String()
	}
}
