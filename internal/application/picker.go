// Package application is the terminal front end of the contact selector.
//
// The picker shows the same two lists as the web page: unselected contacts
// filtered by the search box on the left, selected contacts in selection
// order on the right. All transitions go through core.State.
package application

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/contactsel/internal/core"
)

// Exporter turns selected contacts into workbook bytes.
type Exporter interface {
	Encode(rows []core.ExportRow) ([]byte, error)
}

type pane int

const (
	paneUnselected pane = iota
	paneSelected
)

// chromeLines is the number of rows View uses outside the two list bodies.
const chromeLines = 10

// ExportedMsg reports the outcome of an export started with "x".
type ExportedMsg struct {
	Path  string
	Count int
	Err   error
}

// Model is the bubbletea model for the picker.
type Model struct {
	state    core.State
	exporter Exporter
	output   string

	search    textinput.Model
	searching bool
	focus     pane
	cursor    [2]int

	status    string
	statusErr bool

	width, height int
}

// New creates a picker over state. Exports are written to output.
func New(state core.State, exporter Exporter, output string) Model {
	ti := textinput.New()
	ti.Placeholder = "Search name or phone"
	ti.Prompt = "/ "
	ti.CharLimit = 256
	ti.SetValue(state.Query())

	return Model{
		state:    state,
		exporter: exporter,
		output:   output,
		search:   ti,
	}
}

// State returns the current selection state.
func (m Model) State() core.State { return m.state }

// Status returns the last status line shown under the lists.
func (m Model) Status() string { return m.status }

// Searching reports whether the search input has focus.
func (m Model) Searching() bool { return m.searching }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = max(msg.Width/2-6, 10)
		return m, nil

	case ExportedMsg:
		if msg.Err != nil {
			m.setError(msg.Err)
			return m, nil
		}
		m.status = fmt.Sprintf("Exported %d contacts to %s", msg.Count, msg.Path)
		m.statusErr = false
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.search.SetValue("")
		m.applyQuery()
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter", "tab":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyQuery()
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		m.searching = true
		m.focus = paneUnselected
		return m, m.search.Focus()
	case "tab", "left", "right", "h", "l":
		if m.focus == paneUnselected {
			m.focus = paneSelected
		} else {
			m.focus = paneUnselected
		}
	case "up", "k":
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}
	case "down", "j":
		if m.cursor[m.focus] < len(m.list(m.focus))-1 {
			m.cursor[m.focus]++
		}
	case " ", "space", "enter":
		m.toggle()
	case "x":
		return m.export()
	}
	return m, nil
}

// list returns the contacts shown in p.
func (m Model) list(p pane) []core.Contact {
	if p == paneSelected {
		return m.state.Selected()
	}
	return m.state.Visible()
}

func (m *Model) toggle() {
	items := m.list(m.focus)
	if len(items) == 0 {
		return
	}
	c := items[m.cursor[m.focus]]

	var (
		next core.State
		err  error
	)
	if m.focus == paneUnselected {
		next, err = m.state.Select("", c.ID)
	} else {
		next, err = m.state.Deselect("", c.ID)
	}
	if err != nil {
		m.setError(err)
		return
	}
	m.state = next
	m.status = ""
	m.clampCursors()
}

func (m Model) export() (tea.Model, tea.Cmd) {
	rows, err := m.state.Export()
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.status = "Exporting..."
	m.statusErr = false
	return m, exportCmd(m.exporter, rows, m.output)
}

func exportCmd(exporter Exporter, rows []core.ExportRow, path string) tea.Cmd {
	return func() tea.Msg {
		if exporter == nil {
			return ExportedMsg{Path: path, Err: errors.New("no exporter configured")}
		}
		data, err := exporter.Encode(rows)
		if err != nil {
			return ExportedMsg{Path: path, Err: err}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return ExportedMsg{Path: path, Err: fmt.Errorf("write %s: %w", path, err)}
		}
		return ExportedMsg{Path: path, Count: len(rows)}
	}
}

func (m *Model) applyQuery() {
	m.state = m.state.SetQuery(m.search.Value())
	m.clampCursors()
}

func (m *Model) clampCursors() {
	for _, p := range []pane{paneUnselected, paneSelected} {
		n := len(m.list(p))
		if m.cursor[p] >= n {
			m.cursor[p] = max(n-1, 0)
		}
	}
}

func (m *Model) setError(err error) {
	msg := core.MapError(err)
	if msg.Code == "ERR000" {
		m.status = err.Error()
	} else {
		m.status = msg.Message
	}
	m.statusErr = true
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Contact Selector"))
	if src := m.state.Source(); src != "" {
		b.WriteString("  " + helpStyle.Render(src))
	}
	b.WriteString("\n\n")

	b.WriteString(counterStyle.Render(fmt.Sprintf("Selected Contacts: %d / %d", m.state.SelectedCount(), m.state.Total())))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	left := m.renderPane(paneUnselected, "Unselected Contacts")
	right := m.renderPane(paneSelected, "Selected Contacts")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")

	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(statusStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help()))
	return b.String()
}

func (m Model) help() string {
	if m.searching {
		return "enter keep search • esc clear search"
	}
	keys := "space toggle • tab switch list • / search"
	if m.state.CanExport() {
		keys += " • x export"
	}
	return keys + " • q quit"
}

func (m Model) renderPane(p pane, title string) string {
	items := m.list(p)

	var b strings.Builder
	b.WriteString(paneTitleStyle.Render(fmt.Sprintf("%s (%d)", title, len(items))))
	b.WriteString("\n")

	if len(items) == 0 {
		b.WriteString(emptyStyle.Render("No contacts"))
	}

	start, end := window(len(items), m.cursor[p], m.bodyHeight())
	for i := start; i < end; i++ {
		line := items[i].Label()
		if p == m.focus && i == m.cursor[p] && !m.searching {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render("  " + line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	style := paneStyle
	if p == m.focus {
		style = focusedPaneStyle
	}
	if m.width > 0 {
		style = style.Width(max(m.width/2-4, 20))
	}
	return style.Render(b.String())
}

// bodyHeight is the number of list rows that fit; 0 means no limit.
func (m Model) bodyHeight() int {
	if m.height == 0 {
		return 0
	}
	return max(m.height-chromeLines, 1)
}

// window returns the [start, end) slice of n rows of height size that keeps
// cursor visible.
func window(n, cursor, size int) (int, int) {
	if size <= 0 || n <= size {
		return 0, n
	}
	start := cursor - size/2
	start = max(start, 0)
	start = min(start, n-size)
	return start, start + size
}

// Run starts the picker on the terminal and returns the final state.
func Run(state core.State, exporter Exporter, output string) (core.State, error) {
	final, err := tea.NewProgram(New(state, exporter, output), tea.WithAltScreen()).Run()
	if err != nil {
		return state, err
	}
	return final.(Model).State(), nil
}
