package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/diegovalduran/productloader/internal/backup"
	"github.com/diegovalduran/productloader/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	inputFile        string
	skipConfirmation bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a collection from a backup file",
	Long: `Replay a JSON-lines backup into a collection. Each document replaces the
stored one with the same id. The target collection defaults to the one named
in the backup file name unless --collection is given.`,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Backup file to restore (required)")
	restoreCmd.Flags().BoolVar(&skipConfirmation, "yes", false, "Skip confirmation prompt")

	restoreCmd.MarkFlagRequired("input")
}

func runRestore(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", inputFile)
	}

	targetCollection := cfg.Collection
	if !cmd.Flags().Changed("collection") {
		if name, ok := backup.CollectionFromFilename(inputFile); ok {
			targetCollection = name
		}
	}
	cfg.Collection = targetCollection
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !skipConfirmation {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "About to restore:")
		fmt.Fprintf(out, "  Source file: %s\n", inputFile)
		fmt.Fprintf(out, "  Target store: %s\n", database.DisplayName(cfg.Backend))
		fmt.Fprintf(out, "  Target collection: %s\n", targetCollection)

		if !confirmAction(cmd.InOrStdin(), out, "Do you want to continue?") {
			fmt.Fprintln(out, "Restore cancelled")
			return nil
		}
	}

	ctx := commandContext(cmd)
	store, err := openStore(ctx, storeOptions())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", database.DisplayName(cfg.Backend), err)
	}
	defer store.Close()

	backupService := backup.NewService(store, logger)
	if err := backupService.ValidateBackupFile(inputFile); err != nil {
		return fmt.Errorf("backup file validation failed: %w", err)
	}

	logger.Info("starting restore", zap.String("collection", targetCollection), zap.String("file", inputFile))

	count, err := backupService.RestoreCollection(ctx, targetCollection, inputFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Restored %d documents into %s\n", count, targetCollection)
	return nil
}

func confirmAction(in io.Reader, out io.Writer, message string) bool {
	fmt.Fprintf(out, "%s (y/N): ", message)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
