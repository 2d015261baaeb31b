package cmd

import (
	"fmt"

	"github.com/diegovalduran/productloader/internal/backup"
	"github.com/diegovalduran/productloader/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var outputDir string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Backup a collection",
	Long:  "Export every document of a collection to a JSON-lines file",
	RunE:  runBackup,
}

func init() {
	backupCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for backup files (default ./backups)")
}

func runBackup(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	store, err := openStore(ctx, storeOptions())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", database.DisplayName(cfg.Backend), err)
	}
	defer store.Close()

	logger.Info("starting backup", zap.String("collection", cfg.Collection), zap.String("output", cfg.BackupDir))

	backupFile, err := backup.NewService(store, logger).BackupCollection(ctx, cfg.Collection, cfg.BackupDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", backupFile)
	return nil
}
