package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/diegovalduran/productloader/internal/backup"
	"github.com/diegovalduran/productloader/internal/database"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type RestoreState int

const (
	RestoreInputState RestoreState = iota
	RestoreFileSelectState
	RestoreConfirmState
	RestoreRunningState
	RestoreResultState
)

type RestoreResult struct {
	DocumentCount int
	Error         error
}

type RestoreCompleteMsg struct {
	Result RestoreResult
}

type RestoreModel struct {
	ctx             context.Context
	settings        Settings
	state           RestoreState
	backupFileInput textinput.Model
	collectionInput textinput.Model
	focusedInput    int
	files           []string
	selectedFile    int
	result          RestoreResult
	width           int
	height          int
}

func NewRestoreModel(ctx context.Context, settings Settings) *RestoreModel {
	backupFileInput := textinput.New()
	backupFileInput.Placeholder = "backups/backup_products_20240101_120000.jsonl"
	backupFileInput.Focus()

	collectionInput := textinput.New()
	collectionInput.Placeholder = "collection from file name"

	return &RestoreModel{
		ctx:             ctx,
		settings:        settings,
		state:           RestoreInputState,
		backupFileInput: backupFileInput,
		collectionInput: collectionInput,
	}
}

func (m *RestoreModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *RestoreModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *RestoreModel) Busy() bool {
	return m.state == RestoreRunningState
}

func (m *RestoreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case RestoreInputState:
			return m.updateInputState(msg)
		case RestoreFileSelectState:
			return m.updateFileSelectState(msg)
		case RestoreConfirmState:
			switch msg.String() {
			case "y", "Y":
				m.state = RestoreRunningState
				return m, m.performRestore()
			case "n", "N":
				m.state = RestoreInputState
			}
		case RestoreResultState:
			if msg.String() == "enter" || msg.String() == " " {
				m.state = RestoreInputState
				m.result = RestoreResult{}
			}
		}

	case RestoreCompleteMsg:
		m.result = msg.Result
		m.state = RestoreResultState
	}
	return m, nil
}

func (m *RestoreModel) updateInputState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.focusedInput = 1 - m.focusedInput
		if m.focusedInput == 0 {
			m.backupFileInput.Focus()
			m.collectionInput.Blur()
		} else {
			m.backupFileInput.Blur()
			m.collectionInput.Focus()
		}
		return m, nil
	case "ctrl+f":
		return m.browseFiles()
	case "enter":
		if m.backupFile() != "" && m.targetCollection() != "" {
			m.state = RestoreConfirmState
		}
		return m, nil
	}

	if m.focusedInput == 0 {
		m.backupFileInput, cmd = m.backupFileInput.Update(msg)
	} else {
		m.collectionInput, cmd = m.collectionInput.Update(msg)
	}
	return m, cmd
}

func (m *RestoreModel) updateFileSelectState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedFile > 0 {
			m.selectedFile--
		}
	case "down", "j":
		if m.selectedFile < len(m.files)-1 {
			m.selectedFile++
		}
	case "enter":
		if len(m.files) > 0 {
			m.backupFileInput.SetValue(m.files[m.selectedFile])
		}
		m.state = RestoreInputState
	case "esc":
		m.state = RestoreInputState
	}
	return m, nil
}

func (m *RestoreModel) browseFiles() (tea.Model, tea.Cmd) {
	files, err := filepath.Glob(filepath.Join(m.settings.Config.BackupDir, "backup_*.jsonl"))
	if err != nil {
		return m, ShowError(err)
	}
	m.files = files
	m.selectedFile = 0
	m.state = RestoreFileSelectState
	return m, nil
}

func (m *RestoreModel) backupFile() string {
	return strings.TrimSpace(m.backupFileInput.Value())
}

// targetCollection falls back to the collection named in the backup file.
func (m *RestoreModel) targetCollection() string {
	if name := strings.TrimSpace(m.collectionInput.Value()); name != "" {
		return name
	}
	name, _ := backup.CollectionFromFilename(m.backupFile())
	return name
}

func (m *RestoreModel) performRestore() tea.Cmd {
	ctx, settings := m.ctx, m.settings
	file, collection := m.backupFile(), m.targetCollection()

	return func() tea.Msg {
		var result RestoreResult

		store, err := settings.Open(ctx, settings.storeOptions())
		if err != nil {
			result.Error = fmt.Errorf("failed to connect to %s: %w", database.DisplayName(settings.Config.Backend), err)
			return RestoreCompleteMsg{Result: result}
		}
		defer store.Close()

		svc := backup.NewService(store, settings.Logger)
		if err := svc.ValidateBackupFile(file); err != nil {
			result.Error = fmt.Errorf("backup file validation failed: %w", err)
			return RestoreCompleteMsg{Result: result}
		}

		result.DocumentCount, result.Error = svc.RestoreCollection(ctx, collection, file)
		return RestoreCompleteMsg{Result: result}
	}
}

func (m *RestoreModel) View() string {
	title, form, help := adaptiveStyles(m.width)

	var content string
	switch m.state {
	case RestoreInputState:
		content = lipgloss.JoinVertical(lipgloss.Left,
			title.Render("🔄 Restore Collection"),
			form.Render(
				labelStyle.Render("Backup File:")+"\n"+m.backupFileInput.View()+"\n\n"+
					labelStyle.Render("Target Collection:")+"\n"+m.collectionInput.View()),
			help.Render("Tab: Navigate • Ctrl+F: Browse backups • Enter: Restore • Esc: Back to menu"))
	case RestoreFileSelectState:
		content = m.renderFileSelector()
	case RestoreConfirmState:
		content = lipgloss.JoinVertical(lipgloss.Left,
			title.Render("🔄 Confirm Restore"),
			warningStyle.Render(fmt.Sprintf("Documents in %s with matching ids will be replaced.", m.targetCollection())),
			fmt.Sprintf("Source file: %s\nTarget store: %s", m.backupFile(), database.DisplayName(m.settings.Config.Backend)),
			help.Render("y: Restore • n: Cancel"))
	case RestoreRunningState:
		content = lipgloss.JoinVertical(lipgloss.Left,
			title.Render("🔄 Restoring..."),
			progressStyle.Render("Writing documents into "+m.targetCollection()))
	case RestoreResultState:
		status := successStyle.Render(fmt.Sprintf("✅ Restored %d documents", m.result.DocumentCount))
		if m.result.Error != nil {
			status = errorStyle.Render(fmt.Sprintf("❌ Restore stopped after %d documents: %v", m.result.DocumentCount, m.result.Error))
		}
		content = lipgloss.JoinVertical(lipgloss.Left,
			title.Render("🔄 Restore Complete"),
			status,
			help.Render("Enter: Restore another file • Esc: Back to menu"))
	}
	return place(m.width, m.height, lipgloss.Top, content)
}

func (m *RestoreModel) renderFileSelector() string {
	title := titleStyle.Render("📁 Select Backup File")

	if len(m.files) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			title,
			warningStyle.Render("No backups found in "+m.settings.Config.BackupDir),
			helpStyle.Render("Esc: Back to form"))
	}

	var fileList strings.Builder
	for i, file := range m.files {
		cursor := " "
		style := menuItemStyle
		if i == m.selectedFile {
			cursor = ">"
			style = selectedMenuItemStyle
		}
		fmt.Fprintf(&fileList, "%s %s\n", cursor, style.Render(file))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		fileList.String(),
		helpStyle.Render("↑/↓: Navigate • Enter: Select • Esc: Cancel"))
}
