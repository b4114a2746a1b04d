// Package browse is an interactive terminal browser for a review dataset.
// It drives the same Workspace the web dashboard uses, so paging, filtering
// and sorting behave identically in both frontends.
package browse

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/linkboard/internal/core"
)

type mode int

const (
	modeTable mode = iota
	modeSearch
	modeMenu
)

// statusMsg reports the result of a background action.
type statusMsg string

// errMsg reports a failed background action.
type errMsg struct{ err error }

// Model is the bubbletea model for the dataset browser.
type Model struct {
	ws         *core.Workspace
	exportPath string

	mode   mode
	search textinput.Model

	root   *Menu
	menu   *Menu
	cursor int

	status string
	err    error
}

// New returns a browser over rows loaded from source. Exports are written
// to exportPath.
func New(source string, rows []core.Row, exportPath string) Model {
	ws := core.NewWorkspace()
	ws.Load(source, rows)
	return NewWithWorkspace(ws, exportPath)
}

// NewWithWorkspace returns a browser over an existing workspace.
func NewWithWorkspace(ws *core.Workspace, exportPath string) Model {
	ti := textinput.New()
	ti.Placeholder = "search review text"
	ti.CharLimit = 200

	if exportPath == "" {
		exportPath = core.ExportFileName
	}

	root := buildMenu(ws.Options())
	return Model{
		ws:         ws,
		exportPath: exportPath,
		search:     ti,
		root:       root,
		menu:       root,
	}
}

// Workspace returns the workspace the browser drives.
func (m Model) Workspace() *core.Workspace {
	return m.ws
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.status, m.err = string(msg), nil
		return m, nil
	case errMsg:
		m.status, m.err = "", msg.err
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeMenu:
			return m.updateMenu(msg)
		default:
			return m.updateTable(msg)
		}
	}
	return m, nil
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "esc":
		return m, tea.Quit
	case "right", "l", "n":
		m.ws.NextPage()
	case "left", "h", "p":
		m.ws.PrevPage()
	case "home", "g":
		m.ws.SetPage(1)
	case "end", "G":
		m.ws.SetPage(m.ws.View().TotalPages)
	case "/":
		m.mode = modeSearch
		m.search.SetValue(m.ws.Criteria().Search)
		return m, m.search.Focus()
	case "m":
		m.mode = modeMenu
		m.menu, m.cursor = m.root, 0
	case "r":
		return m, m.reset()
	case "e":
		return m, m.export()
	case "1", "2", "3", "4", "5":
		return m, m.toggleSort(core.SortKeys[key[0]-'1'])
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := m.search.Value()
		m.mode = modeTable
		m.search.Blur()
		return m, m.setFilter(func(c *core.Criteria) { c.Search = value })
	case "esc":
		m.mode = modeTable
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "esc", "m":
		m.mode = modeTable
	case "enter":
		item := m.menu.Items[m.cursor]
		switch {
		case item.Label == "Back":
			if m.menu.Parent == nil {
				m.mode = modeTable
				return m, nil
			}
			m.menu, m.cursor = m.menu.Parent, 0
		case item.Submenu != nil:
			m.menu, m.cursor = item.Submenu, 0
		case item.Action != nil:
			m.mode = modeTable
			m.menu, m.cursor = m.root, 0
			return m, item.Action(&m)
		}
	}
	return m, nil
}

// setFilter edits the current criteria and applies them on page 1.
func (m *Model) setFilter(edit func(*core.Criteria)) tea.Cmd {
	c := m.ws.Criteria()
	edit(&c)
	v := m.ws.Apply(c)
	return status(fmt.Sprintf("%d matching reviews", v.Aggregates.Total))
}

func (m *Model) toggleSort(key core.SortKey) tea.Cmd {
	c := m.ws.ToggleSort(key).Criteria
	return status(fmt.Sprintf("sorted by %s %s", c.SortKey, c.SortDir))
}

func (m *Model) reset() tea.Cmd {
	m.ws.Reset()
	return status("filters cleared")
}

// export writes the filtered view to the export path.
func (m *Model) export() tea.Cmd {
	rows := m.ws.View().Filtered
	path := m.exportPath
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return errMsg{err}
		}
		if err := core.WriteExport(f, rows); err != nil {
			f.Close()
			return errMsg{err}
		}
		if err := f.Close(); err != nil {
			return errMsg{err}
		}
		return statusMsg(fmt.Sprintf("exported %d rows to %s", len(rows), path))
	}
}

func status(s string) tea.Cmd {
	return func() tea.Msg { return statusMsg(s) }
}

func (m Model) View() string {
	v := m.ws.View()
	source, _ := m.ws.Source()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sentiment browser") + "  " + dimStyle.Render(source) + "\n")
	b.WriteString(RenderSummary(v) + "\n")
	b.WriteString(dimStyle.Render(describeCriteria(v.Criteria)) + "\n\n")

	if v.Aggregates.Total == 0 {
		b.WriteString(dimStyle.Render("No reviews match the current filters.") + "\n")
	} else {
		b.WriteString(RenderTable(v) + "\n")
	}
	b.WriteString(fmt.Sprintf("Page %s of %d\n", RenderPageStrip(v), v.TotalPages))

	switch m.mode {
	case modeSearch:
		b.WriteString("\n" + m.search.View() + "\n")
		b.WriteString(dimStyle.Render("enter apply • esc cancel") + "\n")
	case modeMenu:
		b.WriteString("\n" + m.renderMenu() + "\n")
		b.WriteString(dimStyle.Render("↑/↓ move • enter select • esc close") + "\n")
	default:
		b.WriteString("\n" + dimStyle.Render("←/→ page • / search • 1-5 sort • m menu • r reset • e export • q quit") + "\n")
	}

	if m.err != nil {
		b.WriteString(negative.Render("Error: "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}
	return b.String()
}

func (m Model) renderMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.menu.Title) + "\n")
	for i, item := range m.menu.Items {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "+item.Label) + "\n")
			continue
		}
		b.WriteString("  " + item.Label + "\n")
	}
	return menuStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// Run starts the browser in the alternate screen and blocks until it exits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
