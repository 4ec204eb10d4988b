package repl

import (
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/plet/lang/value"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "load", "clear", "quit"}

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes: whitespace, the member-access dot, and operator or punctuation
// characters of the language.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'\'', '"':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input. Returns an empty word when the cursor sits on a
// boundary (after a space, between dots, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the dot-separated member chain leading up to the word
// starting at wordStart. For input "x + site.pages.fi" with the word "fi",
// the parent path is "site.pages". Returns "" for top-level words.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:])
}

// resolvePath looks up a dot-separated member chain in env.
func resolvePath(env *value.Env, path string) (value.Value, bool) {
	segments := strings.Split(path, ".")

	v, ok := env.LookupName(segments[0])
	if !ok {
		return nil, false
	}

	for _, seg := range segments[1:] {
		obj, isObj := v.(*value.Object)
		if !isObj {
			return nil, false
		}

		if v, ok = obj.Field(seg); !ok {
			return nil, false
		}
	}

	return v, true
}

// childCandidates returns the names that complete a word below parent. For
// an empty parent these are the names visible in env; otherwise they are the
// keys of the object the parent path resolves to.
func childCandidates(env *value.Env, parent string) []string {
	if parent == "" {
		names := env.Names()
		slices.Sort(names)

		return names
	}

	v, ok := resolvePath(env, parent)
	if !ok {
		return nil
	}

	obj, ok := v.(*value.Object)
	if !ok {
		return nil
	}

	names := make([]string, 0, obj.Len())

	for k := range obj.All() {
		names = append(names, value.ToString(k))
	}

	return names
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. When the current word is empty at the top level, it returns nil
// matches. When the word is empty after a dot (member access), it returns all
// children as matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		parent := parentPath(input, wordStart)
		candidates = childCandidates(m.env, parent)

		// Show every member right after a dot, but nothing on an empty top-level
		// word so the hint line stays visible.
		if word == "" {
			if parent == "" || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. The selected candidate (when tabbing) uses
// the selected style.
func (m model) renderCandidateBar() string {
	if len(m.matches) == 0 || m.width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range m.matches {
		selected := m.tabActive && i == m.suggIdx
		rendered := m.renderCandidate(match, selected)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > m.width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Functions are displayed with a "()" suffix.
func (m model) renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := suggestionStyle.Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = selectedStyle.Bold(true)
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if m.isFunction(match.Str) {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// isFunction reports whether the member chain ending in name, relative to
// the parent path of the word being completed, is a function.
func (m model) isFunction(name string) bool {
	path := name
	if parent := parentPath(m.input.Value(), m.wordStart); parent != "" {
		path = parent + "." + name
	}

	v, ok := resolvePath(m.env, path)
	if !ok {
		return false
	}

	k := v.Kind()

	return k == value.KindNative || k == value.KindClosure
}

// preview is a short description of v for the list command.
func preview(v value.Value) string {
	switch v := v.(type) {
	case *value.Native:
		return "native function"
	case *value.Closure:
		return "fn(" + strings.Join(paramNames(v), ", ") + ")"
	case *value.Array:
		return "[" + itemCount(v.Len()) + "]"
	case *value.Object:
		return "{" + itemCount(v.Len()) + "}"
	}

	s := format(v)
	if utf8.RuneCountInString(s) > 40 {
		r := []rune(s)

		return string(r[:37]) + "..."
	}

	return s
}

func itemCount(n int) string {
	if n == 1 {
		return "1 item"
	}

	return strconv.Itoa(n) + " items"
}
