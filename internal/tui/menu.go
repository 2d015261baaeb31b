package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type menuChoice struct {
	label  string
	screen Screen
	quit   bool
}

type MenuModel struct {
	choices []menuChoice
	cursor  int
	width   int
	height  int
}

func NewMenuModel() *MenuModel {
	return &MenuModel{
		choices: []menuChoice{
			{label: "📥 Upload product CSV", screen: UploadScreen},
			{label: "💾 Backup collection", screen: BackupScreen},
			{label: "🔄 Restore collection", screen: RestoreScreen},
			{label: "🚪 Exit", quit: true},
		},
	}
}

func (m *MenuModel) Init() tea.Cmd {
	return nil
}

func (m *MenuModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter", " ":
			choice := m.choices[m.cursor]
			if choice.quit {
				return m, tea.Quit
			}
			return m, ChangeScreen(choice.screen)
		}
	}
	return m, nil
}

func (m *MenuModel) View() string {
	title, _, help := adaptiveStyles(m.width)

	var menu strings.Builder
	for i, choice := range m.choices {
		cursor := " "
		label := menuItemStyle.Render(choice.label)
		if m.cursor == i {
			cursor = ">"
			label = selectedMenuItemStyle.Render(choice.label)
		}
		fmt.Fprintf(&menu, "%s %s\n", cursor, label)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title.Render("📦 Product Loader"),
		menu.String(),
		help.Render("Use ↑/↓ (or j/k) to navigate • Enter to select • q to quit"),
	)
	return place(m.width, m.height, lipgloss.Center, content)
}
