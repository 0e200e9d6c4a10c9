// Package debugger is an interactive terminal stepper for paul programs.
package debugger

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zurustar/paul/pkg/opcode"
	"github.com/zurustar/paul/pkg/vm"
)

// ContinueBudget is the most instructions a single continue executes.
const ContinueBudget = 100_000

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	currentStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	labelStyle = lipgloss.NewStyle().Foreground(accentColor)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)

	okStyle = lipgloss.NewStyle().Foreground(successColor)

	errorStyle = lipgloss.NewStyle().Foreground(errorColor)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)
)

// Model is the bubbletea model driving one VM.
type Model struct {
	title   string
	program opcode.Program
	opts    []vm.Option
	machine *vm.VM

	listing viewport.Model
	help    help.Model
	status  string

	width    int
	height   int
	quitting bool
}

// New creates a debugger paused before the first instruction of program.
// The options are applied to every VM the debugger creates.
func New(title string, program opcode.Program, opts ...vm.Option) Model {
	m := Model{
		title:   title,
		program: program,
		opts:    opts,
		listing: viewport.New(40, 20),
		help:    help.New(),
		width:   80,
		height:  24,
	}
	m.restart()
	return m
}

// Run shows the debugger on out, reading keys from in, until the user quits.
func Run(title string, program opcode.Program, in io.Reader, out io.Writer, opts ...vm.Option) error {
	p := tea.NewProgram(New(title, program, opts...),
		tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Machine returns the VM being stepped.
func (m Model) Machine() *vm.VM {
	return m.machine
}

// Status returns the text of the status line.
func (m Model) Status() string {
	return m.status
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool {
	return m.quitting
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()

		case key.Matches(msg, keys.Step):
			m.step()

		case key.Matches(msg, keys.Continue):
			m.cont()

		case key.Matches(msg, keys.Restart):
			m.restart()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) restart() {
	m.machine = vm.New(m.program, m.opts...)
	m.status = fmt.Sprintf("ready, %d instructions", len(m.program))
	m.refresh()
}

func (m *Model) step() {
	if m.machine.Halted() {
		m.status = "program has halted, press r to restart"
		return
	}
	if err := m.machine.Step(); err != nil {
		m.status = "error: " + err.Error()
	} else {
		m.status = m.progress()
	}
	m.refresh()
}

func (m *Model) cont() {
	if m.machine.Halted() {
		m.status = "program has halted, press r to restart"
		return
	}
	for i := 0; i < ContinueBudget && !m.machine.Halted(); i++ {
		if err := m.machine.Step(); err != nil {
			m.status = "error: " + err.Error()
			m.refresh()
			return
		}
	}
	if m.machine.Halted() {
		m.status = m.progress()
	} else {
		m.status = fmt.Sprintf("paused after %d steps, press c to keep going", m.machine.Steps())
	}
	m.refresh()
}

func (m *Model) progress() string {
	if m.machine.Halted() {
		return fmt.Sprintf("halted after %d steps", m.machine.Steps())
	}
	return fmt.Sprintf("step %d, pc %d", m.machine.Steps(), m.machine.PC())
}

func (m *Model) resize() {
	// header, blank line, status and help
	reserved := 4
	if m.help.ShowAll {
		reserved += 2
	}
	m.listing.Width = max(m.width/2, 20)
	m.listing.Height = max(m.height-reserved, 3)
	m.refresh()
}

// refresh re-renders the listing and scrolls it so the PC stays in view.
func (m *Model) refresh() {
	m.listing.SetContent(m.renderListing())
	pc := m.machine.PC()
	if pc < m.listing.YOffset || pc >= m.listing.YOffset+m.listing.Height {
		m.listing.SetYOffset(max(pc-m.listing.Height/2, 0))
	}
}

func (m Model) renderListing() string {
	var b strings.Builder
	pc := m.machine.PC()
	for i, inst := range m.program {
		line := fmt.Sprintf("%4d  ", i)
		switch {
		case inst.IsLabel():
			line += labelStyle.Render(inst.String())
		case i == pc && !m.machine.Halted():
			line = currentStyle.Render(fmt.Sprintf("%4d> %s", i, inst))
		default:
			line += "  " + inst.String()
		}
		b.WriteString(line)
		if i < len(m.program)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderState() string {
	var sections []string

	stack := m.machine.Stack()
	lines := []string{panelTitleStyle.Render("Stack")}
	if len(stack) == 0 {
		lines = append(lines, mutedStyle.Render("(empty)"))
	}
	for i := len(stack) - 1; i >= 0; i-- {
		lines = append(lines, fmt.Sprintf("%d", stack[i]))
	}
	sections = append(sections, panelStyle.Render(strings.Join(lines, "\n")))

	frames := m.machine.CallStack()
	lines = []string{panelTitleStyle.Render("Calls")}
	if len(frames) == 0 {
		lines = append(lines, mutedStyle.Render("(main)"))
	}
	for i := len(frames) - 1; i >= 0; i-- {
		lines = append(lines, fmt.Sprintf("%s -> %d", frames[i].Function, frames[i].ReturnPC))
	}
	sections = append(sections, panelStyle.Render(strings.Join(lines, "\n")))

	memory := m.machine.Memory()
	lines = []string{panelTitleStyle.Render("Memory")}
	if len(memory) == 0 {
		lines = append(lines, mutedStyle.Render("(empty)"))
	}
	for _, name := range slices.Sorted(maps.Keys(memory)) {
		lines = append(lines, fmt.Sprintf("%s = %d", name, memory[name]))
	}
	sections = append(sections, panelStyle.Render(strings.Join(lines, "\n")))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("paul debugger") + " " + mutedStyle.Render(m.title) + "\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.listing.View(), "  ", m.renderState()))
	b.WriteString("\n")

	switch {
	case m.machine.Err() != nil:
		b.WriteString(errorStyle.Render(m.status))
	case m.machine.Halted():
		b.WriteString(okStyle.Render(m.status))
	default:
		b.WriteString(mutedStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}
