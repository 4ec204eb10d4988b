package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/plet/lang/value"
)

// signatureHintStyle styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // member chain of the function (e.g., "site.link")
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// detectFunctionCall analyzes the input to determine if the cursor is inside
// a function call's parameter list. It returns the function name, current
// argument index, and whether we're inside a call.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Scan backward from cursor to find the opening paren of a function call.
	// Track nested parens so we find the correct one.
	parenDepth := 0
	openParenPos := -1

	for i := cursor - 1; i >= 0; i-- {
		ch, size := utf8.DecodeLastRuneInString(input[:i+1])

		switch ch {
		case ')':
			parenDepth++
		case '(':
			if parenDepth == 0 {
				openParenPos = i

				goto foundOpenParen
			}

			parenDepth--
		}

		// Move to start of this rune
		if i > 0 {
			i -= (size - 1)
		}
	}

foundOpenParen:
	if openParenPos == -1 {
		return functionCall{inCall: false}
	}

	// Extract function name before the '('
	// Walk backward collecting identifier characters and dots
	nameEnd := openParenPos
	nameStart := openParenPos

	for nameStart > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:nameStart])

		// Function names are member chains of identifiers.
		if r == '.' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			nameStart -= size
		} else {
			break
		}
	}

	funcName := strings.TrimSpace(input[nameStart:nameEnd])
	if funcName == "" {
		return functionCall{inCall: false}
	}

	// Count arguments by counting commas at depth 0 in the parameter list
	argIndex := 0
	depth := 0

	for i := openParenPos + 1; i < cursor; i++ {
		ch, size := utf8.DecodeRuneInString(input[i:])

		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}

		i += size - 1
	}

	return functionCall{
		name:     funcName,
		argIndex: argIndex,
		inCall:   true,
	}
}

// getSignature returns the signature of the function named by a member
// chain in env, with the names of its parameters. Native functions do not
// declare parameters, so only their name is known. Returns an empty
// signature when name is not a function.
func getSignature(env *value.Env, name string) (signature string, params []string) {
	v, ok := resolvePath(env, name)
	if !ok {
		return "", nil
	}

	switch v := v.(type) {
	case *value.Closure:
		params = paramNames(v)

		return name + "(" + strings.Join(params, ", ") + ")", params

	case *value.Native:
		return name + "(...)", []string{"..."}
	}

	return "", nil
}

// paramNames returns the parameter names of a closure.
func paramNames(c *value.Closure) []string {
	names := make([]string, len(c.Params))
	for i, sym := range c.Params {
		names[i] = sym.Name()
	}

	return names
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	// Parse signature: "funcName(param1, param2, ...)"
	openParen := strings.Index(signature, "(")
	if openParen == -1 {
		return signatureStyle.Render(signature)
	}

	funcName := signature[:openParen]

	closeParen := strings.LastIndex(signature, ")")
	if closeParen == -1 {
		return signatureStyle.Render(signature)
	}

	// If no parameters, just render the signature
	if len(params) == 0 {
		return signatureNameStyle.Render(funcName) +
			signatureStyle.Render("()")
	}

	// Build the signature with highlighted current parameter
	var b strings.Builder
	b.WriteString(signatureNameStyle.Render(funcName))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		// Check if this is a variadic parameter
		isVariadic := strings.HasPrefix(param, "...")

		// Highlight the current parameter
		// For variadic parameters, highlight if we're at or beyond that index
		if (isVariadic && currentArgIdx >= i) ||
			(!isVariadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
