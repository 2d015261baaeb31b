package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/diegovalduran/productloader/internal/backup"
	"github.com/diegovalduran/productloader/internal/database"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type BackupState int

const (
	BackupInputState BackupState = iota
	BackupRunningState
	BackupResultState
)

type BackupResult struct {
	BackupFile string
	Error      error
}

type BackupCompleteMsg struct {
	Result BackupResult
}

type BackupModel struct {
	ctx             context.Context
	settings        Settings
	state           BackupState
	collectionInput textinput.Model
	outputDirInput  textinput.Model
	focusedInput    int
	result          BackupResult
	width           int
	height          int
}

func NewBackupModel(ctx context.Context, settings Settings) *BackupModel {
	collectionInput := textinput.New()
	collectionInput.Placeholder = "products"
	collectionInput.SetValue(settings.Config.Collection)
	collectionInput.Focus()

	outputDirInput := textinput.New()
	outputDirInput.Placeholder = "./backups"
	outputDirInput.SetValue(settings.Config.BackupDir)

	return &BackupModel{
		ctx:             ctx,
		settings:        settings,
		state:           BackupInputState,
		collectionInput: collectionInput,
		outputDirInput:  outputDirInput,
	}
}

func (m *BackupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *BackupModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *BackupModel) Busy() bool {
	return m.state == BackupRunningState
}

func (m *BackupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case BackupInputState:
			return m.updateInputState(msg)
		case BackupResultState:
			if msg.String() == "enter" || msg.String() == " " {
				m.state = BackupInputState
				m.result = BackupResult{}
			}
		}

	case BackupCompleteMsg:
		m.result = msg.Result
		m.state = BackupResultState
	}
	return m, nil
}

func (m *BackupModel) updateInputState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.focusedInput = 1 - m.focusedInput
		if m.focusedInput == 0 {
			m.collectionInput.Focus()
			m.outputDirInput.Blur()
		} else {
			m.collectionInput.Blur()
			m.outputDirInput.Focus()
		}
		return m, nil
	case "enter":
		collection := strings.TrimSpace(m.collectionInput.Value())
		outputDir := strings.TrimSpace(m.outputDirInput.Value())
		if collection == "" || outputDir == "" {
			return m, nil
		}
		m.state = BackupRunningState
		return m, m.performBackup(collection, outputDir)
	}

	if m.focusedInput == 0 {
		m.collectionInput, cmd = m.collectionInput.Update(msg)
	} else {
		m.outputDirInput, cmd = m.outputDirInput.Update(msg)
	}
	return m, cmd
}

func (m *BackupModel) performBackup(collection, outputDir string) tea.Cmd {
	ctx, settings := m.ctx, m.settings
	return func() tea.Msg {
		var result BackupResult

		store, err := settings.Open(ctx, settings.storeOptions())
		if err != nil {
			result.Error = fmt.Errorf("failed to connect to %s: %w", database.DisplayName(settings.Config.Backend), err)
			return BackupCompleteMsg{Result: result}
		}
		defer store.Close()

		result.BackupFile, result.Error = backup.NewService(store, settings.Logger).
			BackupCollection(ctx, collection, outputDir)
		return BackupCompleteMsg{Result: result}
	}
}

func (m *BackupModel) View() string {
	title, form, help := adaptiveStyles(m.width)

	var content string
	switch m.state {
	case BackupInputState:
		content = lipgloss.JoinVertical(lipgloss.Left,
			title.Render("💾 Backup Collection"),
			form.Render(
				labelStyle.Render("Collection:")+"\n"+m.collectionInput.View()+"\n\n"+
					labelStyle.Render("Output Directory:")+"\n"+m.outputDirInput.View()),
			help.Render("Tab: Navigate • Enter: Backup • Esc: Back to menu"))
	case BackupRunningState:
		content = lipgloss.JoinVertical(lipgloss.Left,
			title.Render("💾 Backing up..."),
			progressStyle.Render(fmt.Sprintf("Reading %s from %s",
				strings.TrimSpace(m.collectionInput.Value()), database.DisplayName(m.settings.Config.Backend))))
	case BackupResultState:
		status := successStyle.Render("✅ Backup written to " + m.result.BackupFile)
		if m.result.Error != nil {
			status = errorStyle.Render(fmt.Sprintf("❌ Backup failed: %v", m.result.Error))
		}
		content = lipgloss.JoinVertical(lipgloss.Left,
			title.Render("💾 Backup Complete"),
			status,
			help.Render("Enter: Backup again • Esc: Back to menu"))
	}
	return place(m.width, m.height, lipgloss.Top, content)
}
