package parser

import (
	"bytes"
	"strings"

	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/lexer"
	"github.com/ardnew/plet/lang/symbol"
	"github.com/ardnew/plet/lang/token"
)

// ParseObjectNotation reads a single literal value: an object, list, string,
// number or one of the names true, false, nil and null. JSON documents are
// valid object notation. When expectEOF is set, anything after the value
// other than newlines is an error.
func ParseObjectNotation(tokens token.Stream, file string, expectEOF bool) *ast.Module {
	p := newParser(tokens, file)

	p.skipNewlines()
	p.module.Root = p.parseDatum()

	if expectEOF {
		p.skipNewlines()

		if p.peek().Kind != token.EOF {
			p.unexpected("end of input")
		}

		p.pop()
	}

	return p.module
}

func (p *parser) skipNewlines() {
	for p.peek().Kind == token.Newline {
		p.pop()
	}
}

func isLiteralName(name string) bool {
	switch name {
	case "true", "false", "nil", "null":
		return true
	}

	return false
}

func (p *parser) parseDatum() ast.Node {
	t := p.peek()

	switch t.Kind {
	case token.Int:
		p.pop()

		return &ast.Int{Value: t.Int, Span: span(t)}

	case token.Float:
		p.pop()

		return &ast.Float{Value: t.Float, Span: span(t)}

	case token.String:
		p.pop()

		return &ast.String{Value: t.Text, Span: span(t)}

	case token.StartQuote:
		return p.parseQuotedString()

	case token.Name:
		if isLiteralName(t.Sym.Name()) {
			p.pop()

			return &ast.Name{Sym: t.Sym, Span: span(t)}
		}

	case token.Operator:
		if t.Text == "-" {
			p.pop()

			switch n := p.peek(); n.Kind {
			case token.Int:
				p.pop()

				return &ast.Int{Value: -n.Int, Span: p.from(t.Start)}
			case token.Float:
				p.pop()

				return &ast.Float{Value: -n.Float, Span: p.from(t.Start)}
			}

			p.unexpected("a number")

			return &ast.Int{Span: span(t)}
		}

	case token.Punct:
		switch t.Text {
		case "[":
			p.pop()

			n := &ast.List{}
			for !p.isPunct("]") {
				n.Items = append(n.Items, p.parseDatum())

				if !p.isOp(",") {
					break
				}

				p.pop()
			}

			p.expectPunct("]")
			n.Span = p.from(t.Start)

			return n

		case "{":
			return p.parseObject(p.parseDatumKey, p.parseDatum)
		}
	}

	p.unexpected("a value")

	if t.Kind != token.EOF && !p.atBlockEnd() {
		p.pop()
	}

	return &ast.Name{Span: span(t)}
}

func (p *parser) parseDatumKey() ast.Node {
	switch t := p.peek(); t.Kind {
	case token.Name:
		p.pop()

		return &ast.Name{Sym: t.Sym, Span: span(t)}
	case token.Keyword:
		// Keywords are not interned, so they can only be string keys.
		p.pop()

		return &ast.String{Value: t.Text, Span: span(t)}
	}

	return p.parseDatum()
}

// parseQuotedString reads a "..." string that has no interpolation.
func (p *parser) parseQuotedString() ast.Node {
	start := p.pop().Start

	var sb strings.Builder

	for p.peek().Kind == token.Text {
		sb.WriteString(p.pop().Text)
	}

	if p.peek().Kind == token.EndQuote {
		p.pop()
	} else {
		p.unexpected("end quote")
	}

	return &ast.String{Value: sb.String(), Span: p.from(start)}
}

// SplitFrontMatter separates a leading object-notation block from the rest
// of a content file. When src does not start with '{' after blank lines, the
// returned module is nil and body is src unchanged. Otherwise the module holds
// the parsed object (check [ast.Module.Failed]) and body is the content after
// its closing brace, minus one line break.
func SplitFrontMatter(src []byte, file string, symbols *symbol.Table) (*ast.Module, []byte) {
	trimmed := bytes.TrimLeft(src, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, src
	}

	r := lexer.Open(bytes.NewReader(src), file, symbols)
	m := ParseObjectNotation(r.Stream(lexer.ModeExpression), file, false)

	if m.Failed() || m.Root == nil {
		return m, src
	}

	body := src[offset(src, m.Root.Bounds().End):]
	if b, ok := bytes.CutPrefix(body, []byte("\r\n")); ok {
		return m, b
	}

	if b, ok := bytes.CutPrefix(body, []byte("\n")); ok {
		return m, b
	}

	return m, body
}

// offset converts a 1-based position into a byte offset within src.
func offset(src []byte, pos token.Pos) int {
	i := 0

	for line := 1; line < pos.Line; line++ {
		nl := bytes.IndexByte(src[i:], '\n')
		if nl < 0 {
			return len(src)
		}

		i += nl + 1
	}

	return min(i+pos.Column-1, len(src))
}
