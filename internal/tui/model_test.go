package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/diegovalduran/productloader/internal/config"
	"github.com/diegovalduran/productloader/internal/database"
	"github.com/diegovalduran/productloader/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const productsCSV = "Product number,Product name,SKU Number,Size,Color,Price,Sales,Stock,Inventory Rotation,Date,Sheet\n" +
	"P1,Widget,1001,M,Red,9.99,4,10,0.4,2024-01-01,Jan\n" +
	"P2,Gadget,1002,L,Blue,19.5,2,5,0.1,2024-01-02,Jan\n"

func testSettings(t *testing.T, store database.Store, openErr error) Settings {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(path, []byte(productsCSV), 0o644))

	cfg := config.New()
	cfg.Backend = database.BackendMemory
	cfg.CSVFile = path
	cfg.BackupDir = filepath.Join(dir, "backups")

	return Settings{
		Config: cfg,
		Open: func(context.Context, database.Options) (database.Store, error) {
			if openErr != nil {
				return nil, openErr
			}
			return store, nil
		},
	}
}

// drive feeds cmd results back into the model until stop returns true.
func drive(t *testing.T, m tea.Model, cmd tea.Cmd, stop func(tea.Msg) bool) tea.Model {
	t.Helper()
	for i := 0; cmd != nil && i < 100; i++ {
		msg := cmd()
		m, cmd = m.Update(msg)
		if stop(msg) {
			return m
		}
	}
	t.Fatal("command chain ended before the expected message")
	return m
}

func enter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func TestMenuNavigation(t *testing.T) {
	m := NewModel(context.Background(), testSettings(t, database.NewMemory(), nil))

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated, cmd := updated.Update(enter())
	require.NotNil(t, cmd)

	updated, _ = updated.Update(cmd())
	assert.Equal(t, BackupScreen, updated.(Model).currentScreen)

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, MenuScreen, updated.(Model).currentScreen)
}

func TestUploadScreenUploadsAllRecords(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := database.NewMemory()
	m := NewModel(context.Background(), testSettings(t, store, nil))

	updated, _ := m.Update(ScreenChangeMsg{Screen: UploadScreen})
	updated, cmd := updated.Update(enter())
	require.NotNil(t, cmd)
	assert.True(t, updated.(Model).uploadModel.Busy())

	var progress []UploadProgressMsg
	updated = drive(t, updated, cmd, func(msg tea.Msg) bool {
		if p, ok := msg.(UploadProgressMsg); ok {
			progress = append(progress, p)
		}
		_, done := msg.(UploadCompleteMsg)
		return done
	})

	um := updated.(Model).uploadModel
	assert.Equal(t, UploadResultState, um.state)
	require.NoError(t, um.result.Error)
	assert.Equal(t, 2, um.result.TotalRecords)
	assert.Equal(t, 2, um.result.Written)
	assert.Equal(t, []UploadProgressMsg{{Done: 1, Total: 2, ID: "P1"}, {Done: 2, Total: 2, ID: "P2"}}, progress)

	doc, ok := store.Document("products", "P2")
	require.True(t, ok)
	assert.Equal(t, "Gadget", doc[models.FieldName])
	assert.Contains(t, updated.View(), "Upload completed successfully")
}

func TestUploadScreenReportsConnectionFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewModel(context.Background(), testSettings(t, nil, errors.New("credentials rejected")))

	updated, _ := m.Update(ScreenChangeMsg{Screen: UploadScreen})
	updated, cmd := updated.Update(enter())

	updated = drive(t, updated, cmd, func(msg tea.Msg) bool {
		_, done := msg.(UploadCompleteMsg)
		return done
	})

	um := updated.(Model).uploadModel
	require.Error(t, um.result.Error)
	assert.Contains(t, um.result.Error.Error(), "credentials rejected")
	assert.Zero(t, um.result.TotalRecords)
}

func TestEscIgnoredWhileUploading(t *testing.T) {
	store := database.NewMemory()
	m := NewModel(context.Background(), testSettings(t, store, nil))

	updated, _ := m.Update(ScreenChangeMsg{Screen: UploadScreen})
	updated, cmd := updated.Update(enter())

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, UploadScreen, updated.(Model).currentScreen)

	drive(t, updated, cmd, func(msg tea.Msg) bool {
		_, done := msg.(UploadCompleteMsg)
		return done
	})
}

func TestBackupThenRestoreScreens(t *testing.T) {
	store := database.NewMemory()
	require.NoError(t, store.SetDocument(context.Background(), "products", "P1", models.Document{"name": "Widget"}))
	settings := testSettings(t, store, nil)
	m := NewModel(context.Background(), settings)

	updated, _ := m.Update(ScreenChangeMsg{Screen: BackupScreen})
	updated, cmd := updated.Update(enter())
	require.NotNil(t, cmd)
	updated, _ = updated.Update(cmd())

	bm := updated.(Model).backupModel
	require.NoError(t, bm.result.Error)
	require.FileExists(t, bm.result.BackupFile)

	updated, _ = updated.Update(ScreenChangeMsg{Screen: RestoreScreen})
	rm := updated.(Model).restoreModel
	rm.backupFileInput.SetValue(bm.result.BackupFile)
	rm.collectionInput.SetValue("products_restored")

	updated, _ = updated.Update(enter())
	assert.Equal(t, RestoreConfirmState, updated.(Model).restoreModel.state)

	updated, cmd = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	updated, _ = updated.Update(cmd())

	rm = updated.(Model).restoreModel
	require.NoError(t, rm.result.Error)
	assert.Equal(t, 1, rm.result.DocumentCount)

	doc, ok := store.Document("products_restored", "P1")
	require.True(t, ok)
	assert.Equal(t, "Widget", doc["name"])
}

func TestRestoreTargetFromFilename(t *testing.T) {
	rm := NewRestoreModel(context.Background(), testSettings(t, database.NewMemory(), nil))
	rm.backupFileInput.SetValue("backups/backup_catalog_20240101_120000.jsonl")
	assert.Equal(t, "catalog", rm.targetCollection())

	rm.collectionInput.SetValue("override")
	assert.Equal(t, "override", rm.targetCollection())
}
