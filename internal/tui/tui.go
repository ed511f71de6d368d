package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/todos"
)

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	ID      int
	Text    string
	Done    bool
	Editing bool
}

func (i listItem) Title() string       { return i.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Text }

// Single-line delegate.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	box := mutedStyle.Render(boxUnchecked)
	text := it.Text
	if it.Done {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	if it.Editing {
		text = accentStyle.Render(editMarker) + " " + text
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s %s", prefix, box, mutedStyle.Render(fmt.Sprintf("#%d", it.ID)), text)
}

// Model is the interactive list. Every key that changes the list is
// forwarded to the store immediately, so quitting never loses work.
type Model struct {
	store *todos.Store
	list  list.Model
	ti    textinput.Model

	adding   bool
	editing  bool
	editID   int
	inputErr string
	status   string

	width, height int
}

var (
	addBind    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind   = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	toggleBind = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteBind = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
)

// New builds the model for an already hydrated store.
func New(s *todos.Store) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	extra := func() []key.Binding { return []key.Binding{addBind, editBind, toggleBind, deleteBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{store: s, list: l, ti: ti, width: 80, height: 24}
	m.resize()
	m.refresh()
	return m
}

// Run starts the program on the alternate screen.
func Run(s *todos.Store) error {
	_, err := tea.NewProgram(New(s), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		m.resize()
		return m, nil
	}
	if m.adding || m.editing {
		return m.updateInput(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch km.String() {
	case "q", "esc", "ctrl+c":
		if km.String() == "esc" && m.list.FilterState() == list.FilterApplied {
			break
		}
		return m, tea.Quit
	case " ":
		if it, ok := m.selected(); ok {
			m.report(m.store.ToggleCompleted(it.ID))
		}
		return m, nil
	case "d":
		if it, ok := m.selected(); ok {
			m.report(m.store.DeleteByID(it.ID))
		}
		return m, nil
	case "a":
		m.adding = true
		m.inputErr = ""
		m.ti.SetValue("")
		m.ti.Placeholder = "New item text..."
		m.resize()
		return m, m.ti.Focus()
	case "e":
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.report(m.store.SetEditMode(it.ID, true))
		m.editing = true
		m.editID = it.ID
		m.inputErr = ""
		m.ti.SetValue(it.Text)
		m.ti.CursorEnd()
		m.ti.Placeholder = "Edit item text..."
		m.resize()
		return m, m.ti.Focus()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			text := m.ti.Value()
			if strings.TrimSpace(text) == "" {
				m.inputErr = "Text cannot be empty"
				return m, nil
			}
			if m.adding {
				m.report(m.store.Add(text))
				m.list.Select(len(m.list.Items()) - 1)
			} else {
				m.report(m.store.UpdateText(m.editID, text))
			}
			m.closeInput()
			return m, nil
		case "ctrl+c":
			if m.editing {
				_ = m.store.SetEditMode(m.editID, false)
			}
			m.closeInput()
			return m, tea.Quit
		case "esc":
			if m.editing {
				m.report(m.store.SetEditMode(m.editID, false))
			}
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.adding = false
	m.editing = false
	m.editID = 0
	m.inputErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

func (m *Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

// report rebuilds the list from the store and shows err, if any, in the
// status line. A failed save still changed the in-memory list.
func (m *Model) report(err error) {
	m.status = ""
	if err != nil {
		m.status = "not saved: " + err.Error()
	}
	m.refresh()
	m.resize()
}

func (m *Model) refresh() {
	items := m.store.Items()
	li := make([]list.Item, 0, len(items))
	for _, it := range items {
		li = append(li, toListItem(it))
	}
	if m.list.FilterState() != list.Unfiltered {
		m.list.ResetFilter()
	}
	idx := m.list.Index()
	m.list.SetItems(li)
	if idx >= len(li) {
		idx = len(li) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}

	done, pending := model.Stats(items)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), len(items),
	)
}

func (m *Model) resize() {
	h := m.height - 4
	if m.adding || m.editing {
		h = m.height - 7
	}
	if m.status != "" {
		h--
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
}

func toListItem(it model.Item) listItem {
	return listItem{ID: it.ID, Text: it.Text, Done: it.Completed, Editing: it.EditMode}
}

func (m Model) View() string {
	content := m.list.View()
	if m.adding || m.editing {
		title := "Add new item"
		if m.editing {
			title = fmt.Sprintf("Edit item #%d", m.editID)
		}
		if m.inputErr != "" {
			title += " · " + errorStyle.Render(m.inputErr)
		}
		content += "\n" + frameStyle.Render(title+"\n"+m.ti.View())
	}
	if m.status != "" {
		content += "\n" + errorStyle.Render(m.status)
	}
	return frameStyle.Render(content)
}
