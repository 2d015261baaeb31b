package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/diegovalduran/productloader/internal/config"
	"github.com/diegovalduran/productloader/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfg     *config.Config
	logger  *zap.Logger
	verbose bool

	// Flag values; applied over the loaded config only when set.
	backend         string
	credentialsFile string
	projectID       string
	collection      string
	dbURI           string
	dbName          string

	// openStore is swapped out in tests.
	openStore = database.Open
)

var rootCmd = &cobra.Command{
	Use:   "productloader",
	Short: "Load a product sheet into a document database",
	Long: `productloader reads a CSV export of product records and writes each row
as a document into Cloud Firestore (or MongoDB), keyed by product number.

Run without a command to upload the default file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runUpload,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVarP(&backend, "backend", "b", config.DefaultBackend, "Store backend: firestore, mongo or memory")
	flags.StringVarP(&credentialsFile, "credentials", "k", config.DefaultCredentialsFile, "Service account key file (firestore)")
	flags.StringVarP(&projectID, "project", "p", "", "Project id (defaults to the one in the credentials file)")
	flags.StringVarP(&collection, "collection", "t", config.DefaultCollection, "Collection name")
	flags.StringVarP(&dbURI, "db-uri", "u", config.DefaultDBURI, "MongoDB connection URI (mongo)")
	flags.StringVarP(&dbName, "database", "d", config.DefaultDBName, "Database name (mongo)")

	addUploadFlags(rootCmd)

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(tuiCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd)

	// the TUI owns the terminal
	if cmd == tuiCmd {
		logger = zap.NewNop()
		return nil
	}

	logger, err = newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	return zapConfig.Build()
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command) {
	set := func(name string, dst *string, value string) {
		if cmd.Flags().Changed(name) {
			*dst = value
		}
	}
	set("backend", &cfg.Backend, backend)
	set("credentials", &cfg.CredentialsFile, credentialsFile)
	set("project", &cfg.ProjectID, projectID)
	set("collection", &cfg.Collection, collection)
	set("db-uri", &cfg.DBURI, dbURI)
	set("database", &cfg.DBName, dbName)
	set("csv", &cfg.CSVFile, csvFile)
	set("metrics-file", &cfg.MetricsFile, metricsFile)
	set("output", &cfg.BackupDir, outputDir)
}

func storeOptions() database.Options {
	return database.Options{
		Backend:         cfg.Backend,
		CredentialsFile: cfg.CredentialsFile,
		ProjectID:       cfg.ProjectID,
		URI:             cfg.DBURI,
		Database:        cfg.DBName,
		Logger:          logger,
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
