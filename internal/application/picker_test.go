package application

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/contactsel/internal/core"
)

type fakeExporter struct {
	rows []core.ExportRow
	err  error
}

func (f *fakeExporter) Encode(rows []core.ExportRow) ([]byte, error) {
	f.rows = rows
	if f.err != nil {
		return nil, f.err
	}
	return []byte("xlsx"), nil
}

func sampleState() core.State {
	return core.State{}.ImportAll("imp-1", "contacts.csv", []core.Row{
		{"Name": "Ada", "Phone 1 - Value": "111"},
		{"Name": "Bob", "Phone 1 - Value": "222"},
		{"First Name": "Cy", "Last Name": "Young"},
	})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

func names(contacts []core.Contact) []string {
	out := make([]string, len(contacts))
	for i, c := range contacts {
		out[i] = c.DisplayName()
	}
	return out
}

func TestPickerToggle(t *testing.T) {
	m := New(sampleState(), &fakeExporter{}, "")

	m, _ = press(t, m, "down", "space")
	assert.Equal(t, []string{"Bob"}, names(m.State().Selected()))
	assert.Equal(t, []string{"Ada", "Cy Young"}, names(m.State().Unselected()))
	require.NoError(t, m.State().Verify())

	// Deselect appends to the end of the unselected list.
	m, _ = press(t, m, "tab", "enter")
	assert.Empty(t, m.State().Selected())
	assert.Equal(t, []string{"Ada", "Cy Young", "Bob"}, names(m.State().Unselected()))
	require.NoError(t, m.State().Verify())
}

func TestPickerToggleEmptyPaneIsNoop(t *testing.T) {
	m := New(sampleState(), &fakeExporter{}, "")

	m, _ = press(t, m, "tab", "space")
	assert.Empty(t, m.State().Selected())
	assert.Len(t, m.State().Unselected(), 3)
	assert.Empty(t, m.Status())
}

func TestPickerCursorClampsAfterToggle(t *testing.T) {
	m := New(sampleState(), &fakeExporter{}, "")

	m, _ = press(t, m, "down", "down", "down", "space", "space", "space")
	assert.Equal(t, []string{"Cy Young", "Bob", "Ada"}, names(m.State().Selected()))
	assert.Empty(t, m.State().Unselected())
}

func TestPickerSearch(t *testing.T) {
	m := New(sampleState(), &fakeExporter{}, "")

	m, _ = press(t, m, "/")
	require.True(t, m.Searching())

	m, _ = press(t, m, "b", "O")
	assert.Equal(t, "bO", m.State().Query())
	assert.Equal(t, []string{"Bob"}, names(m.State().Visible()))

	// Command keys are text while searching.
	m, _ = press(t, m, "x")
	assert.True(t, m.Searching())
	assert.Empty(t, m.Status())

	m, _ = press(t, m, "enter")
	assert.False(t, m.Searching())
	assert.Equal(t, "bOx", m.State().Query())
	assert.Empty(t, m.State().Visible())

	m, _ = press(t, m, "/", "esc")
	assert.False(t, m.Searching())
	assert.Empty(t, m.State().Query())
	assert.Len(t, m.State().Visible(), 3)
}

func TestPickerSearchSelectsVisibleContact(t *testing.T) {
	m := New(sampleState(), &fakeExporter{}, "")

	m, _ = press(t, m, "/", "y", "o", "u", "enter", "space")
	assert.Equal(t, []string{"Cy Young"}, names(m.State().Selected()))

	// The selected pane ignores the query.
	assert.Contains(t, m.View(), "Cy Young")
}

func TestPickerExportNothingSelected(t *testing.T) {
	exp := &fakeExporter{}
	m := New(sampleState(), exp, filepath.Join(t.TempDir(), "out.xlsx"))

	m, cmd := press(t, m, "x")
	assert.Nil(t, cmd)
	assert.Equal(t, "Select at least one contact to export", m.Status())
	assert.Nil(t, exp.rows)
	assert.NotContains(t, m.View(), "x export")
}

func TestPickerExport(t *testing.T) {
	exp := &fakeExporter{}
	out := filepath.Join(t.TempDir(), "selected_contacts.xlsx")
	m := New(sampleState(), exp, out)

	m, _ = press(t, m, "down", "down", "space", "space")
	m, cmd := press(t, m, "x")
	require.NotNil(t, cmd)

	msg := cmd()
	done, ok := msg.(ExportedMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.Equal(t, 2, done.Count)

	assert.Equal(t, []core.ExportRow{
		{Name: "Cy Young", Phone1: "N/A", Phone2: "N/A"},
		{Name: "Bob", Phone1: "222", Phone2: "N/A"},
	}, exp.rows)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(data))

	next, _ := m.Update(msg)
	m = next.(Model)
	assert.Contains(t, m.Status(), "Exported 2 contacts")
}

func TestPickerExportError(t *testing.T) {
	exp := &fakeExporter{err: errors.New("disk full")}
	m := New(sampleState(), exp, filepath.Join(t.TempDir(), "out.xlsx"))

	m, _ = press(t, m, "space")
	m, cmd := press(t, m, "x")
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, "disk full", m.Status())
}

func TestPickerQuit(t *testing.T) {
	m := New(sampleState(), &fakeExporter{}, "")

	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	// "q" is text while searching.
	m, _ = press(t, m, "/", "q")
	assert.Equal(t, "q", m.State().Query())
}

func TestPickerView(t *testing.T) {
	m := New(sampleState(), &fakeExporter{}, "")
	m, _ = press(t, m, "space")

	view := m.View()
	assert.Contains(t, view, "Selected Contacts: 1 / 3")
	assert.Contains(t, view, "Unselected Contacts (2)")
	assert.Contains(t, view, "Bob - 222 - N/A")
	assert.Contains(t, view, "Ada - 111 - N/A")
	assert.Contains(t, view, "contacts.csv")
}

func TestPickerViewEmpty(t *testing.T) {
	m := New(core.State{}, &fakeExporter{}, "")
	assert.Contains(t, m.View(), "No contacts")
	assert.Contains(t, m.View(), "Selected Contacts: 0 / 0")
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name               string
		n, cursor, size    int
		wantStart, wantEnd int
	}{
		{"no limit", 5, 3, 0, 0, 5},
		{"fits", 3, 2, 5, 0, 3},
		{"cursor at top", 10, 0, 4, 0, 4},
		{"cursor in middle", 10, 5, 4, 3, 7},
		{"cursor at bottom", 10, 9, 4, 6, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := window(tt.n, tt.cursor, tt.size)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}
