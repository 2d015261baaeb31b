package tui

import (
	"context"
	"fmt"

	"github.com/diegovalduran/productloader/internal/config"
	"github.com/diegovalduran/productloader/internal/database"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type Screen int

const (
	MenuScreen Screen = iota
	UploadScreen
	BackupScreen
	RestoreScreen
)

// OpenFunc opens a store session; database.Open in production.
type OpenFunc func(ctx context.Context, opts database.Options) (database.Store, error)

// Settings carries what the screens need to reach the store.
type Settings struct {
	Config *config.Config
	Logger *zap.Logger
	Open   OpenFunc
}

func (s Settings) storeOptions() database.Options {
	return database.Options{
		Backend:         s.Config.Backend,
		CredentialsFile: s.Config.CredentialsFile,
		ProjectID:       s.Config.ProjectID,
		URI:             s.Config.DBURI,
		Database:        s.Config.DBName,
		Logger:          s.Logger,
	}
}

type Model struct {
	currentScreen Screen
	menuModel     *MenuModel
	uploadModel   *UploadModel
	backupModel   *BackupModel
	restoreModel  *RestoreModel
	err           error
	quitting      bool
}

func NewModel(ctx context.Context, settings Settings) Model {
	if settings.Logger == nil {
		settings.Logger = zap.NewNop()
	}
	if settings.Open == nil {
		settings.Open = database.Open
	}
	return Model{
		currentScreen: MenuScreen,
		menuModel:     NewMenuModel(),
		uploadModel:   NewUploadModel(ctx, settings),
		backupModel:   NewBackupModel(ctx, settings),
		restoreModel:  NewRestoreModel(ctx, settings),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.menuModel.SetSize(msg.Width, msg.Height)
		m.uploadModel.SetSize(msg.Width, msg.Height)
		m.backupModel.SetSize(msg.Width, msg.Height)
		m.restoreModel.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			if m.currentScreen != MenuScreen && !m.busy() {
				m.currentScreen = MenuScreen
				m.err = nil
				return m, nil
			}
		case "q":
			if m.currentScreen == MenuScreen {
				m.quitting = true
				return m, tea.Quit
			}
		}

	case ScreenChangeMsg:
		m.currentScreen = msg.Screen
		return m, nil

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	// background work reports to its own screen wherever the user is
	case UploadProgressMsg, UploadCompleteMsg:
		_, cmd := m.uploadModel.Update(msg)
		return m, cmd
	case BackupCompleteMsg:
		_, cmd := m.backupModel.Update(msg)
		return m, cmd
	case RestoreCompleteMsg:
		_, cmd := m.restoreModel.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.currentScreen {
	case MenuScreen:
		_, cmd = m.menuModel.Update(msg)
	case UploadScreen:
		_, cmd = m.uploadModel.Update(msg)
	case BackupScreen:
		_, cmd = m.backupModel.Update(msg)
	case RestoreScreen:
		_, cmd = m.restoreModel.Update(msg)
	}
	return m, cmd
}

func (m Model) busy() bool {
	return m.uploadModel.Busy() || m.backupModel.Busy() || m.restoreModel.Busy()
}

func (m Model) View() string {
	if m.quitting {
		return "Bye!\n"
	}

	var content string
	switch m.currentScreen {
	case MenuScreen:
		content = m.menuModel.View()
	case UploadScreen:
		content = m.uploadModel.View()
	case BackupScreen:
		content = m.backupModel.View()
	case RestoreScreen:
		content = m.restoreModel.View()
	}

	if m.err != nil {
		content += "\n" + errorStyle.Margin(1, 0).Render(fmt.Sprintf("Error: %v", m.err))
	}

	return content
}

type ScreenChangeMsg struct {
	Screen Screen
}

type ErrorMsg struct {
	Err error
}

func ChangeScreen(screen Screen) tea.Cmd {
	return func() tea.Msg {
		return ScreenChangeMsg{Screen: screen}
	}
}

func ShowError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: err}
	}
}
