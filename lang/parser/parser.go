// Package parser builds syntax trees from token streams.
//
// The parser is recursive descent with a single token of lookahead. It never
// stops at the first error: each problem is recorded as a diagnostic on the
// returned module, which is then flagged as failed.
package parser

import (
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/symbol"
	"github.com/ardnew/plet/lang/token"
)

type parser struct {
	tokens   token.Stream
	module   *ast.Module
	end      token.Pos
	eofError bool
}

func newParser(tokens token.Stream, file string) *parser {
	return &parser{
		tokens: tokens,
		module: &ast.Module{File: file},
		end:    token.Pos{Line: 1, Column: 1},
	}
}

// Parse reads a whole template or script from tokens.
func Parse(tokens token.Stream, file string) *ast.Module {
	p := newParser(tokens, file)
	root := &ast.Block{Span: ast.Span{Start: p.peek().Start}}

	for {
		b := p.parseBlock()
		root.Items = append(root.Items, b.Items...)

		if p.peek().Kind == token.EOF {
			break
		}

		p.unexpected("end of input")
		p.pop()
	}

	p.pop()
	root.End = p.end
	p.module.Root = root

	return p.module
}

var assignOps = map[string]ast.InfixOp{
	"=":  ast.OpNone,
	"+=": ast.OpAdd,
	"-=": ast.OpSub,
	"*=": ast.OpMul,
	"/=": ast.OpDiv,
}

var compareOps = map[string]ast.InfixOp{
	"<":  ast.OpLt,
	"<=": ast.OpLe,
	">":  ast.OpGt,
	">=": ast.OpGe,
	"==": ast.OpEq,
	"!=": ast.OpNe,
}

func (p *parser) peek() token.Token { return p.tokens.Peek() }

func (p *parser) pop() token.Token {
	t := p.tokens.Pop()

	if t.Err != "" && !(t.Kind == token.EOF && p.eofError) {
		p.module.Errorf(t.Start, t.End, "%s", t.Err)
		p.eofError = p.eofError || t.Kind == token.EOF
	}

	if t.End.IsValid() {
		p.end = t.End
	}

	return t
}

func (p *parser) isKeyword(text string) bool { return p.peek().Is(token.Keyword, text) }
func (p *parser) isOp(text string) bool      { return p.peek().Is(token.Operator, text) }
func (p *parser) isPunct(text string) bool   { return p.peek().Is(token.Punct, text) }

func (p *parser) unexpected(want string) {
	t := p.peek()
	p.module.Errorf(t.Start, t.End, "unexpected %s, expected %s", t.Describe(), want)
}

func (p *parser) expectPunct(text string) bool {
	if p.isPunct(text) {
		p.pop()

		return true
	}

	p.unexpected("'" + text + "'")

	return false
}

func (p *parser) expectOp(text string) bool {
	if p.isOp(text) {
		p.pop()

		return true
	}

	p.unexpected("'" + text + "'")

	return false
}

func (p *parser) expectKeyword(text string) bool {
	if p.isKeyword(text) {
		p.pop()

		return true
	}

	p.unexpected("'" + text + "'")

	return false
}

func (p *parser) expectEnd(keyword string) {
	if !p.isKeyword("end") {
		p.unexpected("'end " + keyword + "'")

		return
	}

	p.pop()
	p.expectKeyword(keyword)
}

func (p *parser) expectName() symbol.Symbol {
	if t := p.peek(); t.Kind == token.Name {
		p.pop()

		return t.Sym
	}

	p.unexpected("name")

	return symbol.Symbol{}
}

func span(t token.Token) ast.Span { return ast.Span{Start: t.Start, End: t.End} }

func (p *parser) from(start token.Pos) ast.Span {
	return ast.Span{Start: start, End: p.end}
}

// atBlockEnd reports whether the next token closes the current block.
func (p *parser) atBlockEnd() bool {
	t := p.peek()

	switch t.Kind {
	case token.EOF, token.EndQuote:
		return true
	case token.Keyword:
		switch t.Text {
		case "end", "else", "case", "default":
			return true
		}
	case token.Punct:
		switch t.Text {
		case ")", "]", "}":
			return true
		}
	}

	return false
}

// atStatementEnd reports whether no expression follows on this line.
func (p *parser) atStatementEnd() bool {
	k := p.peek().Kind

	return k == token.Newline || k == token.Text || p.atBlockEnd()
}

func (p *parser) parseBlock() *ast.Block {
	b := &ast.Block{Span: ast.Span{Start: p.peek().Start}}

	for !p.atBlockEnd() {
		switch t := p.peek(); t.Kind {
		case token.Newline:
			p.pop()

		case token.Text:
			p.pop()

			if t.Text != "" {
				b.Items = append(b.Items, &ast.String{Value: t.Text, Span: span(t)})
			}

		default:
			b.Items = append(b.Items, p.parseStatement())
		}
	}

	b.End = p.end

	return b
}

func (p *parser) parseStatement() ast.Node {
	t := p.peek()

	if t.Kind == token.Keyword {
		switch t.Text {
		case "export":
			p.pop()

			n := &ast.Export{Name: p.expectName()}
			if p.isOp("=") {
				p.pop()
				n.Value = p.parseExpression()
			}

			n.Span = p.from(t.Start)

			return n

		case "return":
			p.pop()

			n := &ast.Return{}
			if !p.atStatementEnd() {
				n.Value = p.parseExpression()
			}

			n.Span = p.from(t.Start)

			return n

		case "break", "continue":
			p.pop()

			level := int64(1)
			if l := p.peek(); l.Kind == token.Int {
				p.pop()
				level = l.Int
			}

			if t.Text == "break" {
				return &ast.Break{Level: level, Span: p.from(t.Start)}
			}

			return &ast.Continue{Level: level, Span: p.from(t.Start)}
		}
	}

	target := p.parseExpression()

	if op := p.peek(); op.Kind == token.Operator {
		if kind, ok := assignOps[op.Text]; ok {
			p.pop()

			value := p.parseExpression()

			return &ast.Assign{
				Target: target,
				Value:  value,
				Op:     kind,
				Span:   p.from(target.Bounds().Start),
			}
		}
	}

	return target
}

func (p *parser) parseExpression() ast.Node {
	left := p.parseOr()

	for p.isOp("|") {
		p.pop()

		right := p.parsePostfix()
		if call, ok := right.(*ast.Apply); ok {
			call.Args = append([]ast.Node{left}, call.Args...)
			call.Start = left.Bounds().Start
			left = call

			continue
		}

		left = &ast.Apply{
			Callee: right,
			Args:   []ast.Node{left},
			Span:   p.from(left.Bounds().Start),
		}
	}

	return left
}

func (p *parser) infix(op ast.InfixOp, left, right ast.Node) ast.Node {
	return &ast.Infix{
		Op:    op,
		Left:  left,
		Right: right,
		Span:  p.from(left.Bounds().Start),
	}
}

func (p *parser) parseOr() ast.Node {
	left := p.parseAnd()
	for p.isKeyword("or") {
		p.pop()
		left = p.infix(ast.OpOr, left, p.parseAnd())
	}

	return left
}

func (p *parser) parseAnd() ast.Node {
	left := p.parseNot()
	for p.isKeyword("and") {
		p.pop()
		left = p.infix(ast.OpAnd, left, p.parseNot())
	}

	return left
}

func (p *parser) parseNot() ast.Node {
	if p.isKeyword("not") {
		start := p.pop().Start
		operand := p.parseNot()

		return &ast.Prefix{Op: ast.OpNot, Operand: operand, Span: p.from(start)}
	}

	return p.parseCompare()
}

func (p *parser) parseCompare() ast.Node {
	left := p.parseSum()

	if t := p.peek(); t.Kind == token.Operator {
		if op, ok := compareOps[t.Text]; ok {
			p.pop()

			return p.infix(op, left, p.parseSum())
		}
	}

	return left
}

func (p *parser) parseSum() ast.Node {
	left := p.parseProduct()

	for {
		switch {
		case p.isOp("+"):
			p.pop()
			left = p.infix(ast.OpAdd, left, p.parseProduct())
		case p.isOp("-"):
			p.pop()
			left = p.infix(ast.OpSub, left, p.parseProduct())
		default:
			return left
		}
	}
}

func (p *parser) parseProduct() ast.Node {
	left := p.parseUnary()

	for {
		switch {
		case p.isOp("*"):
			p.pop()
			left = p.infix(ast.OpMul, left, p.parseUnary())
		case p.isOp("/"):
			p.pop()
			left = p.infix(ast.OpDiv, left, p.parseUnary())
		case p.isOp("%"):
			p.pop()
			left = p.infix(ast.OpMod, left, p.parseUnary())
		default:
			return left
		}
	}
}

func (p *parser) parseUnary() ast.Node {
	if p.isOp("-") {
		start := p.pop().Start
		operand := p.parseUnary()

		return &ast.Prefix{Op: ast.OpNeg, Operand: operand, Span: p.from(start)}
	}

	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Node {
	n := p.parsePrimary()

	for {
		start := n.Bounds().Start

		switch {
		case p.isPunct("("):
			p.pop()
			args := p.parseItems(")")
			n = &ast.Apply{Callee: n, Args: args, Span: p.from(start)}

		case p.isPunct("["):
			p.pop()
			index := p.parseExpression()
			p.expectPunct("]")
			n = &ast.Subscript{Target: n, Index: index, Span: p.from(start)}

		case p.isOp("."):
			p.pop()
			name := p.expectName()
			n = &ast.Dot{Target: n, Name: name, Span: p.from(start)}

		case p.isOp("?"):
			p.pop()
			n = &ast.Suppress{Operand: n, Span: p.from(start)}

		default:
			return n
		}
	}
}

// parseItems reads comma-separated expressions up to and including closer.
// A trailing comma is allowed.
func (p *parser) parseItems(closer string) []ast.Node {
	var items []ast.Node

	for !p.isPunct(closer) {
		items = append(items, p.parseExpression())

		if !p.isOp(",") {
			break
		}

		p.pop()
	}

	p.expectPunct(closer)

	return items
}

func (p *parser) parsePrimary() ast.Node {
	t := p.peek()

	switch t.Kind {
	case token.Name:
		p.pop()

		return &ast.Name{Sym: t.Sym, Span: span(t)}

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
		p.pop()

		b := p.parseBlock()
		b.Quote = true

		if p.peek().Kind == token.EndQuote {
			p.pop()
		} else {
			p.unexpected("end quote")
		}

		b.Span = p.from(t.Start)

		return b

	case token.Punct:
		switch t.Text {
		case "[":
			p.pop()
			items := p.parseItems("]")

			return &ast.List{Items: items, Span: p.from(t.Start)}

		case "{":
			return p.parseObject(p.parseKey, p.parseExpression)

		case "(":
			p.pop()
			n := p.parseExpression()
			p.expectPunct(")")

			return n
		}

	case token.Keyword:
		switch t.Text {
		case "do":
			p.pop()

			b := p.parseBlock()
			p.expectEnd("do")
			b.Span = p.from(t.Start)

			return b

		case "fn":
			return p.parseFn()
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "switch":
			return p.parseSwitch()
		}
	}

	p.unexpected("an expression")

	if !p.atStatementEnd() {
		p.pop()
	}

	return &ast.Block{Span: span(t)}
}

// parseKey reads an object key. A bare name is a literal symbol key.
func (p *parser) parseKey() ast.Node {
	if t := p.peek(); t.Kind == token.Name {
		p.pop()

		return &ast.Name{Sym: t.Sym, Span: span(t)}
	}

	return p.parsePrimary()
}

func (p *parser) parseObject(key, value func() ast.Node) ast.Node {
	start := p.pop().Start
	n := &ast.Object{}

	for !p.isPunct("}") {
		k := key()
		p.expectOp(":")
		n.Props = append(n.Props, ast.Property{Key: k, Value: value()})

		if !p.isOp(",") {
			break
		}

		p.pop()
	}

	p.expectPunct("}")
	n.Span = p.from(start)

	return n
}

func (p *parser) parseParams() []symbol.Symbol {
	var params []symbol.Symbol

	p.expectPunct("(")

	for !p.isPunct(")") {
		params = append(params, p.expectName())

		if !p.isOp(",") {
			break
		}

		p.pop()
	}

	p.expectPunct(")")

	return params
}

// parseFn reads a function literal, or a named definition which is
// shorthand for assigning the literal to the name.
func (p *parser) parseFn() ast.Node {
	start := p.pop().Start

	var name *ast.Name
	if t := p.peek(); t.Kind == token.Name {
		p.pop()
		name = &ast.Name{Sym: t.Sym, Span: span(t)}
	}

	fn := &ast.Fn{Params: p.parseParams()}

	switch k := p.peek().Kind; {
	case p.isOp("->"):
		p.pop()
		fn.Body = p.parseExpression()

	case p.isPunct("{"):
		p.pop()
		fn.Body = p.parseBlock()
		p.expectPunct("}")

	case k == token.Newline || k == token.Text || name != nil:
		fn.Body = p.parseBlock()
		p.expectEnd("fn")

	default:
		fn.Body = p.parseExpression()
	}

	fn.Free = ast.FreeVariables(fn.Params, fn.Body)
	fn.Span = p.from(start)

	if name == nil {
		return fn
	}

	return &ast.Assign{Target: name, Value: fn, Op: ast.OpNone, Span: fn.Span}
}

func (p *parser) parseIf() ast.Node {
	start := p.pop().Start
	n := p.parseIfBody(start)
	p.expectEnd("if")
	n.End = p.end

	return n
}

func (p *parser) parseIfBody(start token.Pos) *ast.If {
	n := &ast.If{Cond: p.parseExpression()}

	if p.isKeyword("then") {
		p.pop()
	}

	n.Then = p.parseBlock()

	if p.isKeyword("else") {
		p.pop()

		if p.isKeyword("if") {
			n.Else = p.parseIfBody(p.pop().Start)
		} else {
			n.Else = p.parseBlock()
		}
	}

	n.Span = p.from(start)

	return n
}

func (p *parser) parseFor() ast.Node {
	start := p.pop().Start
	n := &ast.For{Value: p.expectName()}

	if p.isOp(",") {
		p.pop()
		n.Key, n.Value = n.Value, p.expectName()
	}

	p.expectKeyword("in")
	n.Collection = p.parseExpression()
	n.Body = p.parseBlock()

	if p.isKeyword("else") {
		p.pop()
		n.Else = p.parseBlock()
	}

	p.expectEnd("for")
	n.Span = p.from(start)

	return n
}

func (p *parser) parseSwitch() ast.Node {
	start := p.pop().Start
	n := &ast.Switch{Subject: p.parseExpression()}

	for k := p.peek().Kind; k == token.Newline || k == token.Text; k = p.peek().Kind {
		p.pop()
	}

	for p.isKeyword("case") {
		p.pop()

		match := p.parseExpression()
		n.Cases = append(n.Cases, ast.Case{Match: match, Body: p.parseBlock()})
	}

	if p.isKeyword("default") {
		p.pop()
		n.Default = p.parseBlock()
	}

	p.expectEnd("switch")
	n.Span = p.from(start)

	return n
}
