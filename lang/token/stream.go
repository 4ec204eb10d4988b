package token

// Stream yields tokens one at a time. Once exhausted, Peek and Pop keep
// returning an EOF token.
type Stream interface {
	Peek() Token
	Pop() Token
}

// Buffer is a [Stream] over a materialized slice of tokens.
type Buffer struct {
	tokens []Token
	next   int
}

// NewBuffer returns a stream over tokens. If tokens does not end with EOF,
// one is synthesized after the last token.
func NewBuffer(tokens []Token) *Buffer {
	if n := len(tokens); n == 0 || tokens[n-1].Kind != EOF {
		eof := Token{Kind: EOF}
		if n > 0 {
			eof.Start, eof.End = tokens[n-1].End, tokens[n-1].End
		}

		tokens = append(tokens, eof)
	}

	return &Buffer{tokens: tokens}
}

// Peek returns the next token without consuming it.
func (b *Buffer) Peek() Token { return b.tokens[b.next] }

// Pop consumes and returns the next token.
func (b *Buffer) Pop() Token {
	t := b.tokens[b.next]
	if b.next < len(b.tokens)-1 {
		b.next++
	}

	return t
}

// Tokens returns every token in the buffer, including the final EOF.
func (b *Buffer) Tokens() []Token { return b.tokens }

// Reset rewinds the buffer to its first token.
func (b *Buffer) Reset() { b.next = 0 }
