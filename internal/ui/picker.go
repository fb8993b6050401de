package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PickerItem represents a selectable item in the picker.
type PickerItem struct {
	Label string // Display text
	Value string // Selection value
	Desc  string // Optional secondary text
}

type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Cancel key.Binding
}

var pickerKeys = pickerKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "down")),
	Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
}

const maxPickerItems = 12

// Picker is a filtered list the user picks one item from. It runs as its
// own bubbletea program and quits once a choice is made.
type Picker struct {
	title    string
	items    []PickerItem
	filtered []PickerItem
	input    textinput.Model
	cursor   int
	width    int

	chosen    string
	cancelled bool
}

// NewPicker creates a picker over items.
func NewPicker(title string, items []PickerItem) *Picker {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 128

	p := &Picker{title: title, items: items, input: ti, width: 60}
	p.filter()
	return p
}

func (p *Picker) Init() tea.Cmd { return textinput.Blink }

// Update handles input for the picker.
func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		return p, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, pickerKeys.Cancel):
			p.cancelled = true
			return p, tea.Quit
		case key.Matches(msg, pickerKeys.Select):
			if len(p.filtered) > 0 && p.cursor < len(p.filtered) {
				p.chosen = p.filtered[p.cursor].Value
				return p, tea.Quit
			}
			return p, nil
		case key.Matches(msg, pickerKeys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
			return p, nil
		case key.Matches(msg, pickerKeys.Down):
			if p.cursor < len(p.filtered)-1 {
				p.cursor++
			}
			return p, nil
		}
	}

	// Forward other keys to text input
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.filter()
	return p, cmd
}

// View renders the picker.
func (p *Picker) View() string {
	if p.chosen != "" || p.cancelled {
		return ""
	}

	boxWidth := p.width - 4
	if boxWidth > 70 {
		boxWidth = 70
	}
	if boxWidth < 30 {
		boxWidth = 30
	}
	innerWidth := boxWidth - 4

	var b strings.Builder
	p.input.Width = innerWidth - 3
	b.WriteString(p.input.View())
	b.WriteString("\n\n")

	visible := maxPickerItems
	if visible > len(p.filtered) {
		visible = len(p.filtered)
	}
	start := 0
	if p.cursor >= visible {
		start = p.cursor - visible + 1
	}
	end := start + visible
	if end > len(p.filtered) {
		end = len(p.filtered)
	}

	selectedStyle := lipgloss.NewStyle().Foreground(Primary).Bold(true)
	for i := start; i < end; i++ {
		item := p.filtered[i]
		label := item.Label
		if item.Desc != "" {
			label += "  " + DimStyle.Render(item.Desc)
		}
		if i == p.cursor {
			b.WriteString(selectedStyle.Render("> ") + label)
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n")
	}
	if len(p.filtered) == 0 {
		b.WriteString(DimStyle.Render("  No matches"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(DimStyle.Render(fmt.Sprintf("(%d/%d)  enter:select  esc:cancel", len(p.filtered), len(p.items))))

	return Panel(TitleStyle.UnsetMarginBottom().Render(p.title), b.String(), boxWidth, Primary)
}

// Chosen returns the selected value, or "" when the picker was cancelled.
func (p *Picker) Chosen() string { return p.chosen }

func (p *Picker) filter() {
	query := strings.ToLower(p.input.Value())
	if query == "" {
		p.filtered = p.items
	} else {
		p.filtered = nil
		for _, item := range p.items {
			if fuzzyMatch(strings.ToLower(item.Label+" "+item.Desc), query) {
				p.filtered = append(p.filtered, item)
			}
		}
	}
	if p.cursor >= len(p.filtered) {
		p.cursor = len(p.filtered) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// fuzzyMatch checks if all characters in query appear in s in order.
func fuzzyMatch(s, query string) bool {
	qi := 0
	for i := 0; i < len(s) && qi < len(query); i++ {
		if s[i] == query[qi] {
			qi++
		}
	}
	return qi == len(query)
}

// Pick runs a picker on the given terminal streams and returns the chosen
// value. ok is false when the user cancelled.
func Pick(title string, items []PickerItem, in io.Reader, out io.Writer) (value string, ok bool, err error) {
	p := NewPicker(title, items)
	m, err := tea.NewProgram(p, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return "", false, err
	}
	chosen := m.(*Picker).Chosen()
	return chosen, chosen != "", nil
}
