package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/diegovalduran/productloader/internal/csv"
	"github.com/diegovalduran/productloader/internal/database"
	"github.com/diegovalduran/productloader/internal/upload"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type UploadState int

const (
	UploadInputState UploadState = iota
	UploadFileSelectState
	UploadProgressState
	UploadResultState
)

const (
	csvField = iota
	credentialsField
	collectionField
	uploadFieldCount
)

type UploadResult struct {
	TotalRecords int
	Written      int
	Documents    int
	Error        error
}

type UploadProgressMsg struct {
	Done  int
	Total int
	ID    string
}

type UploadCompleteMsg struct {
	Result UploadResult
}

type UploadModel struct {
	ctx          context.Context
	settings     Settings
	state        UploadState
	inputs       []textinput.Model
	focusedInput int
	progress     progress.Model
	done         int
	total        int
	lastID       string
	events       chan tea.Msg
	result       UploadResult
	files        []string
	selectedFile int
	width        int
	height       int
}

func NewUploadModel(ctx context.Context, settings Settings) *UploadModel {
	cfg := settings.Config

	csvInput := textinput.New()
	csvInput.Placeholder = "path/to/products.csv"
	csvInput.SetValue(cfg.CSVFile)
	csvInput.Focus()

	credInput := textinput.New()
	credInput.Placeholder = "serviceAccountKey.json"
	credInput.SetValue(cfg.CredentialsFile)

	collInput := textinput.New()
	collInput.Placeholder = upload.DefaultCollection
	collInput.SetValue(cfg.Collection)

	return &UploadModel{
		ctx:      ctx,
		settings: settings,
		state:    UploadInputState,
		inputs:   []textinput.Model{csvInput, credInput, collInput},
		progress: progress.New(
			progress.WithSolidFill("#00aadd"),
			progress.WithoutPercentage(),
		),
	}
}

func (m *UploadModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *UploadModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Busy reports whether an upload is running.
func (m *UploadModel) Busy() bool {
	return m.state == UploadProgressState
}

func (m *UploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case UploadInputState:
			return m.updateInputState(msg)
		case UploadFileSelectState:
			return m.updateFileSelectState(msg)
		case UploadResultState:
			if msg.String() == "enter" || msg.String() == " " {
				m.reset()
			}
		}

	case UploadProgressMsg:
		m.done = msg.Done
		m.total = msg.Total
		m.lastID = msg.ID
		return m, waitForEvent(m.events)

	case UploadCompleteMsg:
		m.result = msg.Result
		m.state = UploadResultState
		m.events = nil
		return m, nil
	}

	return m, nil
}

func (m *UploadModel) updateInputState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focusedInput = (m.focusedInput + 1) % uploadFieldCount
		m.updateInputFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusedInput = (m.focusedInput - 1 + uploadFieldCount) % uploadFieldCount
		m.updateInputFocus()
		return m, nil
	case "ctrl+f":
		return m.browseFiles()
	case "enter":
		if m.isFormValid() {
			return m.startUpload()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focusedInput], cmd = m.inputs[m.focusedInput].Update(msg)
	return m, cmd
}

func (m *UploadModel) updateFileSelectState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
			m.inputs[csvField].SetValue(m.files[m.selectedFile])
		}
		m.state = UploadInputState
	case "esc":
		m.state = UploadInputState
	}
	return m, nil
}

func (m *UploadModel) browseFiles() (tea.Model, tea.Cmd) {
	cwd, err := os.Getwd()
	if err != nil {
		return m, ShowError(err)
	}
	files, err := filepath.Glob(filepath.Join(cwd, "*.csv"))
	if err != nil {
		return m, ShowError(err)
	}

	for i, file := range files {
		if rel, err := filepath.Rel(cwd, file); err == nil {
			files[i] = rel
		}
	}

	m.files = files
	m.selectedFile = 0
	m.state = UploadFileSelectState
	return m, nil
}

func (m *UploadModel) updateInputFocus() {
	for i := range m.inputs {
		if i == m.focusedInput {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *UploadModel) value(field int) string {
	return strings.TrimSpace(m.inputs[field].Value())
}

func (m *UploadModel) isFormValid() bool {
	if m.value(csvField) == "" || m.value(collectionField) == "" {
		return false
	}
	backend := m.settings.Config.Backend
	if (backend == database.BackendFirestore || backend == "") && m.value(credentialsField) == "" {
		return false
	}
	return true
}

func (m *UploadModel) startUpload() (tea.Model, tea.Cmd) {
	m.state = UploadProgressState
	m.done, m.total, m.lastID = 0, 0, ""
	m.events = make(chan tea.Msg)

	opts := m.settings.storeOptions()
	opts.CredentialsFile = m.value(credentialsField)
	go performUpload(m.ctx, m.settings, opts, m.value(csvField), m.value(collectionField), m.events)

	return m, waitForEvent(m.events)
}

// performUpload runs the same pipeline as the upload command and reports
// each written record on events. events is closed when the run ends.
func performUpload(ctx context.Context, settings Settings, opts database.Options, csvPath, collection string, events chan<- tea.Msg) {
	defer close(events)
	var result UploadResult

	store, err := settings.Open(ctx, opts)
	if err != nil {
		result.Error = fmt.Errorf("failed to connect to %s: %w", database.DisplayName(opts.Backend), err)
		events <- UploadCompleteMsg{Result: result}
		return
	}
	defer store.Close()

	records, err := csv.NewParser(csvPath).ParseRecords()
	if err != nil {
		result.Error = fmt.Errorf("failed to parse CSV: %w", err)
		events <- UploadCompleteMsg{Result: result}
		return
	}
	result.TotalRecords = len(records)

	svc := upload.NewService(store,
		upload.WithCollection(collection),
		upload.WithLogger(settings.Logger),
		upload.WithProgress(func(done, total int, id string) {
			events <- UploadProgressMsg{Done: done, Total: total, ID: id}
		}),
	)

	res, err := svc.Upload(ctx, records)
	result.Written = res.Written
	result.Documents = res.Distinct
	result.Error = err
	events <- UploadCompleteMsg{Result: result}
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *UploadModel) reset() {
	m.state = UploadInputState
	m.done, m.total, m.lastID = 0, 0, ""
	m.result = UploadResult{}
	m.focusedInput = csvField
	m.updateInputFocus()
}

func (m *UploadModel) View() string {
	switch m.state {
	case UploadInputState:
		return m.renderInputForm()
	case UploadFileSelectState:
		return m.renderFileSelector()
	case UploadProgressState:
		return m.renderProgress()
	case UploadResultState:
		return m.renderResult()
	}
	return ""
}

func (m *UploadModel) renderInputForm() string {
	title, form, help := adaptiveStyles(m.width)

	body := form.Render(
		labelStyle.Render("CSV File:") + "\n" + m.inputs[csvField].View() + "\n\n" +
			labelStyle.Render("Credentials File:") + "\n" + m.inputs[credentialsField].View() + "\n\n" +
			labelStyle.Render("Collection:") + "\n" + m.inputs[collectionField].View() + "\n\n" +
			labelStyle.Render("Store:") + " " + database.DisplayName(m.settings.Config.Backend),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title.Render("📥 Upload Product CSV"),
		body,
		help.Render("Tab/Shift+Tab: Navigate • Ctrl+F: Browse files • Enter: Upload • Esc: Back to menu"),
	)
	return place(m.width, m.height, lipgloss.Top, content)
}

func (m *UploadModel) renderFileSelector() string {
	title := titleStyle.Render("📁 Select CSV File")

	if len(m.files) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			title,
			warningStyle.Render("No CSV files found in current directory"),
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

func (m *UploadModel) fraction() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

func (m *UploadModel) renderProgress() string {
	title, _, help := adaptiveStyles(m.width)

	progressWidth := m.width - 10
	if progressWidth < 20 {
		progressWidth = 20
	}
	if progressWidth > 80 {
		progressWidth = 80
	}
	m.progress.Width = progressWidth

	status := "Authenticating and reading CSV..."
	if m.lastID != "" {
		status = fmt.Sprintf("Uploading %s... (%d/%d)", m.lastID, m.done, m.total)
	}

	content := progressStyle.Render(m.progress.ViewAs(m.fraction()) + "\n" + status)
	result := lipgloss.JoinVertical(lipgloss.Left,
		title.Render("📥 Uploading Products..."),
		content,
		help.Render("Please wait while documents are written..."),
	)
	return place(m.width, m.height, lipgloss.Center, result)
}

func (m *UploadModel) renderResult() string {
	var status string
	if m.result.Error != nil {
		status = errorStyle.Render(fmt.Sprintf("❌ Upload stopped: %v", m.result.Error))
	} else {
		status = successStyle.Render("✅ Upload completed successfully!")
	}

	stats := fmt.Sprintf(
		"📊 Upload Statistics:\n"+
			"   Records read: %d\n"+
			"   Documents written: %d\n"+
			"   Distinct products: %d",
		m.result.TotalRecords,
		m.result.Written,
		m.result.Documents,
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("📥 Upload Complete"),
		status,
		stats,
		helpStyle.Render("Enter: Upload another file • Esc: Back to menu"))
}
