package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// stackItem adapts a stack name to the bubbles list model.
type stackItem string

func (i stackItem) Title() string       { return string(i) }
func (i stackItem) Description() string { return "" }
func (i stackItem) FilterValue() string { return string(i) }

// pickerModel is a minimal single-select list. Enter confirms, q or ctrl+c
// cancels with an empty choice.
type pickerModel struct {
	list   list.Model
	choice string
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(stackItem); ok {
				m.choice = string(item)
			}
			return m, tea.Quit
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return m.list.View()
}

// pickStack shows an interactive picker over the given stack names and
// returns the selection, or "" if the user cancelled.
func pickStack(names []string) (string, error) {
	items := make([]list.Item, len(names))
	for i, n := range names {
		items[i] = stackItem(n)
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false

	l := list.New(items, delegate, 40, len(names)+6)
	l.Title = "Select the active stack"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	final, err := tea.NewProgram(pickerModel{list: l}).Run()
	if err != nil {
		return "", fmt.Errorf("running stack picker: %w", err)
	}
	return final.(pickerModel).choice, nil
}
