package commands

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ConflictResolution is the user's choice when a destination path already
// exists for an upload target or a ">" output-redirection target.
type ConflictResolution int

const (
	ResolutionOverwrite ConflictResolution = iota
	ResolutionSkip
)

// ResolveConflict prompts interactively when destPath already exists.
// AGFS has no server-side "suggest a free name" operation, so the only
// choices are overwrite or skip.
func ResolveConflict(destPath string) (bool, error) {
	p := tea.NewProgram(newConflictModel(destPath))
	m, err := p.Run()
	if err != nil {
		return false, err
	}

	model := m.(conflictModel)
	if model.canceled {
		return false, fmt.Errorf("operation canceled")
	}
	return model.choice == ResolutionOverwrite, nil
}

type item struct {
	title, desc string
	choice      ConflictResolution
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

type conflictModel struct {
	list     list.Model
	choice   ConflictResolution
	canceled bool
	path     string
}

func newConflictModel(path string) conflictModel {
	items := []list.Item{
		item{title: "Overwrite", desc: "Replace the existing file", choice: ResolutionOverwrite},
		item{title: "Skip", desc: "Leave the existing file untouched", choice: ResolutionSkip},
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%s already exists", path)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetHeight(8)

	return conflictModel{list: l, path: path}
}

func (m conflictModel) Init() tea.Cmd {
	return nil
}

func (m conflictModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.canceled = true
			return m, tea.Quit
		case "enter":
			if i, ok := m.list.SelectedItem().(item); ok {
				m.choice = i.choice
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m conflictModel) View() string {
	return "\n" + m.list.View()
}
