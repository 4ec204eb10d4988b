package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/ast"
	"github.com/ardnew/plet/lang/value"
	"github.com/ardnew/plet/log"
)

// editDoneMsg is sent when the edited script parsed successfully.
type editDoneMsg struct {
	source string
	module *ast.Module
}

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a parse
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-parse error.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

const helpMessage = `
: Commands (press Esc to toggle mode):

  help       Print this message
  list       List the names defined in the session
  edit       Edit the session script in $EDITOR and run it
  load FILE  Run a script file in the session
  clear      Clear screen
  quit       Exit REPL

Usage:
  Type an expression or statement to evaluate it
  Assignments persist for the rest of the session
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C on empty line or Ctrl+D to exit`

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// echo formats the echo line of submitted input in the given mode.
func echo(mode inputMode, input string) string {
	if mode == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
	}

	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc          func() context.Context
	input            textinput.Model
	eval             *Evaluator
	env              *value.Env
	script           []string // eval-mode lines that ran without error
	logger           log.Logger
	history          *History
	historyIdx       int
	matches          fuzzy.Matches // current fuzzy match results
	candidates       []string      // backing candidate list
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	width            int           // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	evalText         string
	evalCursor       int
	ctrlText         string
	ctrlCursor       int
}

// Run starts the REPL. The script files are run in the session before the
// prompt is shown; an error in any of them aborts the REPL. Input history is
// kept in historyPath.
func Run(
	ctx context.Context,
	files []string,
	historyPath string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(ctx, "repl start",
		slog.String("history", historyPath),
		slog.Int("files", len(files)),
	)

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	e, err := NewEvaluator(dir)
	if err != nil {
		return err
	}
	defer e.Close()

	for _, file := range files {
		_, warnings, err := e.Load(file)
		for _, w := range warnings {
			logger.WarnContext(ctx, w.Message, log.Location(w.File, w.Start.Line, w.Start.Column)...)
		}

		if err != nil {
			return err
		}

		logger.TraceContext(ctx, "repl loaded script", slog.String("file", file))
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.String("error", err.Error()))
	}

	logger.TraceContext(ctx, "repl history loaded", slog.Int("entry_count", history.Len()))

	p := tea.NewProgram(newModel(ctx, e, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	e *Evaluator,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		eval:       e,
		env:        e.Env(),
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		v, warnings, err := m.eval.Run(msg.module)
		if err == nil {
			m.script = strings.Split(strings.TrimRight(msg.source, "\n"), "\n")
		}

		m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
			slog.Int("lines", len(m.script)),
			slog.Bool("success", err == nil),
		)

		return m, tea.Sequence(result(v, warnings, err)...)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		return m, tea.Println(hintStyle.Render("edit discarded"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	funcCall := detectFunctionCall(input, m.input.Position())

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		hint := "Type an expression or press Esc for commands"
		if m.mode == modeCtrl {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case funcCall.inCall && m.mode == modeEval:
		if signature, params := getSignature(m.env, funcCall.name); signature != "" {
			b.WriteString(renderSignatureHint(signature, params, funcCall.argIndex))
		} else {
			b.WriteString(m.renderCandidateBar())
		}

	default:
		b.WriteString(m.renderCandidateBar())
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress", slog.String("key", msg.String()))

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		m.altNavActive = false

		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1)

	case tea.KeyShiftTab:
		return m.cycle(-1)

	case tea.KeyUp:
		if msg.Alt {
			return m.historyCtrl(-1)
		}

		return m.historyPrev()

	case tea.KeyDown:
		if msg.Alt {
			return m.historyCtrl(1)
		}

		return m.historyNext()

	case tea.KeyShiftUp:
		m, _ = m.historySeek(-1, m.mode)

		return m, nil

	case tea.KeyShiftDown:
		var found bool

		m, found = m.historySeek(1, m.mode)
		if !found && m.historyIdx < m.history.Len() {
			m.historyIdx = m.history.Len()
			m.setInput("")
		}

		return m, nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		if m.mode == modeEval {
			return m.switchToMode(modeCtrl), nil
		}

		return m.switchToMode(modeEval), nil

	case tea.KeyRunes:
		// Space accepts the candidate being cycled.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Editing and cursor keys never auto-confirm a completion.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping at either end. A single
// candidate is completed immediately.
func (m model) cycle(step int) (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	n := len(m.matches)

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n
	case step < 0:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = n - 1
	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also confirms the completion when exactly one
// candidate remains and the typed word already equals it.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	if m.input.Value()[m.wordStart:m.wordEnd] == candidate {
		replaceCurrentWord(m, candidate)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

// setInput replaces the input text and moves the cursor to its end.
func (m *model) setInput(s string) {
	m.input.SetValue(s)
	m.input.SetCursor(len(s))
	refreshMatches(m, false)
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.evalText, m.evalCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.String("error", err.Error()))
	}

	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	if m.mode == modeCtrl {
		return m.executeCommand(input)
	}

	v, warnings, err := m.eval.Eval(input)
	if err == nil {
		m.script = append(m.script, input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval",
		slog.String("input", input),
		slog.String("type", value.TypeName(v)),
		slog.Bool("success", err == nil),
	)

	return m, tea.Sequence(append([]tea.Cmd{tea.Println(echo(modeEval, input))},
		result(v, warnings, err)...)...)
}

// result returns the commands printing the outcome of an evaluation. Nil
// values print nothing.
func result(v value.Value, warnings lang.Diagnostics, err error) []tea.Cmd {
	var cmds []tea.Cmd

	for _, w := range warnings {
		cmds = append(cmds, tea.Println(warnStyle.Render("warning: "+w.Message)))
	}

	var ds lang.Diagnostics

	switch {
	case errors.As(err, &ds):
		for _, d := range ds {
			cmds = append(cmds, tea.Println(errorStyle.Render("error: "+d.Message)))
		}
	case err != nil:
		cmds = append(cmds, tea.Println(errorStyle.Render("error: "+err.Error())))
	case v != nil && v.Kind() != value.KindNil:
		cmds = append(cmds, tea.Println(resultStyle.Render(format(v))))
	}

	return cmds
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	echoCmd := tea.Println(echo(modeCtrl, input))

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", name),
		slog.String("arg", arg),
	)

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echoCmd, tea.Println(helpMessage))

	case "l", "list":
		return m, tea.Sequence(echoCmd, tea.Println(m.list()))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.edit())

	case "load":
		if arg == "" {
			return m, tea.Sequence(echoCmd,
				tea.Println(errorStyle.Render("usage: load FILE")))
		}

		v, warnings, err := m.eval.Load(arg)

		return m, tea.Sequence(append([]tea.Cmd{echoCmd}, result(v, warnings, err)...)...)

	default:
		return m, tea.Sequence(echoCmd,
			tea.Println(errorStyle.Render("unknown command: "+name+" (try 'help')")))
	}
}

// edit opens the session script in the user's editor. The edited script is
// run in the session once it parses.
func (m model) edit() tea.Cmd {
	src := strings.Join(m.script, "\n")
	if src != "" {
		src += "\n"
	}

	cmd := &editCommand{
		ctxFunc: m.ctxFunc,
		parse:   m.eval.Parse,
		logger:  m.logger,
		source:  src,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.module == nil:
			return editCancelledMsg{}
		}

		return editDoneMsg{source: cmd.source, module: cmd.module}
	})
}

// list describes every name visible in the session.
func (m model) list() string {
	names := childCandidates(m.env, "")

	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	var b strings.Builder

	for _, name := range names {
		v, _ := m.env.LookupName(name)
		fmt.Fprintf(&b, "  %-*s %s\n", width, name, hintStyle.Render(preview(v)))
	}

	return b.String()
}

// showEntry replaces the input with history entry i, switching to its mode.
func (m model) showEntry(i int) (model, bool) {
	entry, err := m.history.Entry(i)
	if err != nil {
		return m, false
	}

	if m.mode != entry.Mode {
		m = m.switchToMode(entry.Mode)
	}

	m.historyIdx = i
	m.setInput(entry.Line)

	return m, true
}

func (m model) historyPrev() (model, tea.Cmd) {
	if m.historyIdx > 0 {
		m, _ = m.showEntry(m.historyIdx - 1)
	}

	return m, nil
}

func (m model) historyNext() (model, tea.Cmd) {
	if m.historyIdx < m.history.Len()-1 {
		m, _ = m.showEntry(m.historyIdx + 1)

		return m, nil
	}

	m.historyIdx = m.history.Len()
	m.setInput("")

	return m, nil
}

// historySeek moves to the nearest entry in the given direction that was
// entered in mode.
func (m model) historySeek(step int, mode inputMode) (model, bool) {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		if entry, err := m.history.Entry(i); err == nil && entry.Mode == mode {
			return m.showEntry(i)
		}
	}

	return m, false
}

// historyCtrl navigates the command history from either mode. Running off
// either end restores the mode and input that were current before.
func (m model) historyCtrl(step int) (model, tea.Cmd) {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()

		if m.mode != modeCtrl {
			m = m.switchToMode(modeCtrl)
		}
	}

	m, found := m.historySeek(step, modeCtrl)
	if found {
		return m, nil
	}

	m.altNavActive = false
	if m.altNavOrigMode != m.mode {
		m = m.switchToMode(m.altNavOrigMode)
	}

	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m, nil
}

// switchToMode switches to the given mode, saving the input of the current
// mode and restoring the saved input of the new one.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == modeEval {
		m.evalText = m.input.Value()
		m.evalCursor = m.input.Position()
	} else {
		m.ctrlText = m.input.Value()
		m.ctrlCursor = m.input.Position()
	}

	m.mode = mode
	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m
}
