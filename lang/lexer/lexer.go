// Package lexer converts a byte stream into a stream of tokens.
//
// The lexer has two dialects. In template mode a file is literal text with
// commands delimited by braces; in expression mode the whole file is one
// command. Both track 1-based line and column positions and report malformed
// input as error tokens instead of aborting the stream.
package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/symbol"
	"github.com/ardnew/plet/lang/token"
)

// Mode selects the dialect of the input.
type Mode uint8

const (
	// ModeTemplate reads literal text interrupted by {commands}.
	ModeTemplate Mode = iota
	// ModeExpression reads the whole input as one command.
	ModeExpression
)

func (m Mode) String() string {
	if m == ModeExpression {
		return "expression"
	}

	return "template"
}

// MaxErrors is the number of errors after which the lexer gives up.
const MaxErrors = 20

// eof is the lookahead value past the end of input.
const eof = -1

// lookahead is the size of the byte ring buffer.
const lookahead = 3

var keywords = map[string]struct{}{
	"if": {}, "then": {}, "else": {}, "for": {}, "in": {}, "switch": {},
	"case": {}, "default": {}, "end": {}, "fn": {}, "and": {}, "or": {},
	"not": {}, "do": {}, "export": {}, "return": {}, "break": {},
	"continue": {},
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool {
	_, ok := keywords[name]

	return ok
}

// Reader tokenizes one source.
type Reader struct {
	src      *bufio.Reader
	symbols  *symbol.Table
	file     string
	stack    []byte
	errors   lang.Diagnostics
	ring     [lookahead]int
	head     int
	buffered int
	pos      token.Pos
	mode     Mode
	done     bool
}

// Open returns a Reader over r. The file name is used in diagnostics and
// names are interned in symbols.
func Open(r io.Reader, file string, symbols *symbol.Table) *Reader {
	return &Reader{
		src:     bufio.NewReader(r),
		symbols: symbols,
		file:    file,
		pos:     token.Pos{Line: 1, Column: 1},
	}
}

// File returns the file name given to [Open].
func (r *Reader) File() string { return r.file }

// Errors returns the diagnostics reported so far.
func (r *Reader) Errors() lang.Diagnostics { return r.errors }

// ReadAll reads every remaining token in the given mode into a buffer.
func (r *Reader) ReadAll(mode Mode) *token.Buffer {
	r.reset(mode)

	var tokens []token.Token

	for {
		t := r.next()
		tokens = append(tokens, t)

		if t.Kind == token.EOF {
			return token.NewBuffer(tokens)
		}
	}
}

// Stream returns a stream that reads tokens in the given mode on demand.
func (r *Reader) Stream(mode Mode) token.Stream {
	r.reset(mode)

	return &stream{r: r}
}

type stream struct {
	r      *Reader
	tok    token.Token
	peeked bool
}

func (s *stream) Peek() token.Token {
	if !s.peeked {
		s.tok = s.r.next()
		s.peeked = true
	}

	return s.tok
}

func (s *stream) Pop() token.Token {
	t := s.Peek()
	if t.Kind != token.EOF {
		s.peeked = false
	}

	return t
}

func (r *Reader) reset(mode Mode) {
	r.mode = mode
	r.stack = r.stack[:0]
	r.done = false

	if mode == ModeExpression {
		r.push('{')
	}
}

// peek returns the n-th byte ahead (1-based) without consuming it.
func (r *Reader) peek(n int) int {
	for r.buffered < n {
		c := eof
		if b, err := r.src.ReadByte(); err == nil {
			c = int(b)
		}

		r.ring[(r.head+r.buffered)%lookahead] = c
		r.buffered++
	}

	return r.ring[(r.head+n-1)%lookahead]
}

// pop consumes one byte and advances the position.
func (r *Reader) pop() int {
	c := r.peek(1)
	if c == eof {
		return eof
	}

	r.head = (r.head + 1) % lookahead
	r.buffered--

	if c == '\n' {
		r.pos.Line++
		r.pos.Column = 1
	} else {
		r.pos.Column++
	}

	return c
}

func (r *Reader) push(c byte) { r.stack = append(r.stack, c) }

func (r *Reader) top() byte {
	if len(r.stack) == 0 {
		return 0
	}

	return r.stack[len(r.stack)-1]
}

func (r *Reader) popStack() byte {
	c := r.top()
	if len(r.stack) > 0 {
		r.stack = r.stack[:len(r.stack)-1]
	}

	return c
}

func (r *Reader) create(kind token.Kind) token.Token {
	return token.Token{Kind: kind, Start: r.pos}
}

func (r *Reader) fail(t *token.Token, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if t.Err == "" {
		t.Err = msg
	}

	r.errors = append(r.errors, lang.Diagnostic{
		File:    r.file,
		Message: msg,
		Start:   t.Start,
		End:     r.pos,
	})
}

func (r *Reader) eofToken() token.Token {
	r.done = true
	t := r.create(token.EOF)
	t.End = r.pos

	return t
}

func (r *Reader) next() token.Token {
	if r.done {
		return r.eofToken()
	}

	if len(r.errors) > MaxErrors {
		t := r.create(token.EOF)
		r.fail(&t, "too many errors")
		r.done = true

		return t
	}

	if r.peek(1) == eof {
		return r.eofToken()
	}

	if top := r.top(); top == 0 || top == '"' {
		return r.readText(top)
	}

	return r.readCommand()
}

func (r *Reader) skipComment() {
	for r.peek(1) != eof {
		if r.pop() == '#' && r.peek(1) == '}' {
			r.pop()

			return
		}
	}
}

func (r *Reader) readText(top byte) token.Token {
	t := r.create(token.Text)

	var sb strings.Builder

	for {
		c := r.peek(1)

		if c == eof {
			break
		}

		if c == '{' {
			r.pop()

			if r.peek(1) == '#' {
				r.pop()
				r.skipComment()
			} else {
				r.push('{')
			}

			break
		}

		if top == '"' && c == '\\' {
			r.pop()
			r.readEscape(&sb, &t)

			continue
		}

		if top == '"' && c == '"' {
			// Left for the command reader to emit as an end quote.
			r.popStack()
			r.push('$')

			break
		}

		sb.WriteByte(byte(r.pop()))
	}

	t.Text = sb.String()
	t.End = r.pos

	return t
}

func (r *Reader) skipSpace(newlines bool) {
	for {
		switch c := r.peek(1); {
		case c == ' ' || c == '\t' || c == '\r' || (newlines && c == '\n'):
			r.pop()

		case c == '#':
			for c := r.peek(1); c != eof && c != '\n'; c = r.peek(1) {
				r.pop()
			}

		default:
			return
		}
	}
}

func (r *Reader) readCommand() token.Token {
	top := r.top()
	n := len(r.stack)
	command := top == '{' && (n == 1 || r.stack[n-2] == '"')

	r.skipSpace(n > 1)

	c := r.peek(1)

	switch {
	case c == eof:
		return r.eofToken()

	case c == '\n':
		t := r.create(token.Newline)
		r.pop()
		t.End = r.pos

		return t

	case c == '}' && command && !(r.mode == ModeExpression && n == 1):
		r.pop()
		r.popStack()

		return r.next()

	case c == '\'':
		return r.readString()

	case c == '"' && top == '$':
		t := r.create(token.EndQuote)
		r.pop()
		r.popStack()
		t.End = r.pos

		return t

	case c == '"':
		if r.peek(2) == '"' && r.peek(3) == '"' {
			return r.readVerbatim()
		}

		t := r.create(token.StartQuote)
		r.pop()
		r.push('"')
		t.End = r.pos

		return t

	case c == '(' || c == '[' || c == '{':
		t := r.create(token.Punct)
		r.pop()

		if c == '{' && r.peek(1) == '#' {
			r.pop()
			r.skipComment()

			return r.next()
		}

		r.push(byte(c))
		t.Text = string(rune(c))
		t.End = r.pos

		return t

	case c == ')' || c == ']' || c == '}':
		t := r.create(token.Punct)
		r.pop()
		t.Text = string(rune(c))
		t.End = r.pos

		if r.mode == ModeExpression && n == 1 {
			r.fail(&t, "unexpected '%c'", c)

			return t
		}

		if want := closer(r.popStack()); byte(c) != want {
			r.fail(&t, "unexpected '%c', expected '%c'", c, want)
		}

		return t

	case isOperator(c):
		return r.readOperator()

	case isDigit(c):
		return r.readNumber()

	case isNameChar(c):
		return r.readName()

	default:
		t := r.create(token.Punct)
		r.pop()
		t.Text = string(rune(c))
		t.End = r.pos
		r.fail(&t, "unexpected character '%c'", c)

		return t
	}
}

func closer(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	case '$':
		return '"'
	default:
		return '}'
	}
}

func isOperator(c int) bool {
	return c >= 0 && strings.IndexByte("+-*/%!<>=|.,:?", byte(c)) >= 0
}

func isDigit(c int) bool { return c >= '0' && c <= '9' }

func isNameChar(c int) bool {
	return c == '_' || isDigit(c) ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isHex(c int) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (r *Reader) readOperator() token.Token {
	t := r.create(token.Operator)
	c := r.pop()
	op := string(rune(c))

	switch next := r.peek(1); {
	case c == '-' && (next == '=' || next == '>'):
		op += string(rune(r.pop()))

	case next == '=' && strings.IndexByte("+*/<>=!", byte(c)) >= 0:
		op += string(rune(r.pop()))
	}

	t.Text = op
	t.End = r.pos

	return t
}

func (r *Reader) readName() token.Token {
	t := r.create(token.Name)

	var sb strings.Builder

	for isNameChar(r.peek(1)) {
		sb.WriteByte(byte(r.pop()))
	}

	name := sb.String()
	t.End = r.pos

	if IsKeyword(name) {
		t.Kind = token.Keyword
		t.Text = name

		return t
	}

	t.Sym = r.symbols.Intern(name)

	return t
}

func (r *Reader) digits(sb *strings.Builder) {
	for isDigit(r.peek(1)) {
		sb.WriteByte(byte(r.pop()))
	}
}

func (r *Reader) readNumber() token.Token {
	t := r.create(token.Int)

	var sb strings.Builder

	r.digits(&sb)

	if c := r.peek(1); c == '.' || c == 'e' || c == 'E' {
		t.Kind = token.Float

		if c == '.' {
			sb.WriteByte(byte(r.pop()))
			r.digits(&sb)
		}

		if c := r.peek(1); c == 'e' || c == 'E' {
			sb.WriteByte(byte(r.pop()))

			if c := r.peek(1); c == '+' || c == '-' {
				sb.WriteByte(byte(r.pop()))
			}

			r.digits(&sb)
		}
	}

	t.End = r.pos
	text := strings.TrimSuffix(sb.String(), ".")

	if t.Kind == token.Float {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			r.fail(&t, "invalid float literal: %s", sb.String())
		}

		t.Float = f

		return t
	}

	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		r.fail(&t, "integer literal out of range: %s", text)
	}

	t.Int = i

	return t
}

func (r *Reader) readHex(n int) (rune, bool) {
	var v rune

	for range n {
		c := r.peek(1)
		if !isHex(c) {
			return 0, false
		}

		r.pop()

		d, _ := strconv.ParseUint(string(rune(c)), 16, 8)
		v = v<<4 | rune(d)
	}

	return v, true
}

// readEscape decodes the escape sequence after a consumed backslash.
func (r *Reader) readEscape(sb *strings.Builder, t *token.Token) {
	c := r.pop()

	switch c {
	case '"', '\'', '\\', '/', '{', '}':
		sb.WriteByte(byte(c))
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')

	case 'x':
		v, ok := r.readHex(2)
		if !ok {
			r.fail(t, "invalid hexadecimal escape sequence")

			return
		}

		sb.WriteByte(byte(v))

	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}

		v, ok := r.readHex(n)
		if !ok || !utf8.ValidRune(v) {
			r.fail(t, "invalid unicode escape sequence")

			return
		}

		sb.WriteRune(v)

	case eof:
		r.fail(t, "unexpected end of input in escape sequence")

	default:
		r.fail(t, "undefined escape sequence: '\\%c'", c)
	}
}

func (r *Reader) readString() token.Token {
	t := r.create(token.String)
	r.pop()

	var sb strings.Builder

	for {
		c := r.peek(1)

		if c == eof {
			r.fail(&t, "missing end of string literal, string literal started on line %s", t.Start)

			break
		}

		r.pop()

		if c == '\'' {
			break
		}

		if c == '\\' {
			r.readEscape(&sb, &t)

			continue
		}

		sb.WriteByte(byte(c))
	}

	t.Text = sb.String()
	t.End = r.pos

	return t
}

func (r *Reader) readVerbatim() token.Token {
	t := r.create(token.String)
	r.pop()
	r.pop()
	r.pop()

	var sb strings.Builder

	for {
		c := r.peek(1)

		if c == eof {
			r.fail(&t, "missing end of string literal, string literal started on line %s", t.Start)

			break
		}

		if c == '"' && r.peek(2) == '"' && r.peek(3) == '"' {
			r.pop()
			r.pop()
			r.pop()

			break
		}

		sb.WriteByte(byte(r.pop()))
	}

	t.Text = sb.String()
	t.End = r.pos

	return t
}
