package cmd

import (
	"fmt"

	"github.com/diegovalduran/productloader/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive terminal UI",
	Long: `Start the Terminal User Interface for uploading product CSV files and
backing up or restoring collections, with live upload progress.`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	model := tui.NewModel(commandContext(cmd), tui.Settings{
		Config: cfg,
		Logger: logger,
		Open:   openStore,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(commandContext(cmd)),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
