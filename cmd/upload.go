package cmd

import (
	"fmt"

	"github.com/diegovalduran/productloader/internal/csv"
	"github.com/diegovalduran/productloader/internal/database"
	"github.com/diegovalduran/productloader/internal/metrics"
	"github.com/diegovalduran/productloader/internal/upload"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	csvFile     string
	metricsFile string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload the product CSV to the document store",
	Long: `Upload authenticates with the store, reads the whole CSV file and then
writes one document per row, in file order, keyed by product number.
A later row with the same product number replaces the earlier document.
The first failed write stops the run.`,
	RunE: runUpload,
}

func init() {
	addUploadFlags(uploadCmd)
}

func addUploadFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&csvFile, "csv", "c", "", "CSV file to upload (default from config: cleaned_GDX.csv)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics to this file in Prometheus textfile format")
}

func runUpload(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateUpload(); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	recorder := metrics.New()
	if cfg.MetricsFile != "" {
		defer func() {
			if werr := recorder.WriteTextfile(cfg.MetricsFile); werr != nil {
				logger.Warn("failed to write metrics file", zap.String("file", cfg.MetricsFile), zap.Error(werr))
			}
		}()
	}

	logger.Info("authenticating", zap.String("backend", cfg.Backend))
	store, err := openStore(ctx, storeOptions())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", database.DisplayName(cfg.Backend), err)
	}
	defer store.Close()

	logger.Info("loading CSV", zap.String("file", cfg.CSVFile))
	records, err := csv.NewParser(cfg.CSVFile).ParseRecords()
	if err != nil {
		return fmt.Errorf("failed to parse CSV: %w", err)
	}
	recorder.RecordsRead(len(records))
	logger.Info("parsed product records", zap.Int("records", len(records)))

	svc := upload.NewService(store,
		upload.WithCollection(cfg.Collection),
		upload.WithOutput(cmd.OutOrStdout()),
		upload.WithLogger(logger),
		upload.WithMetrics(recorder),
	)

	result, err := svc.Upload(ctx, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "CSV data uploaded to %s successfully.\n", database.DisplayName(cfg.Backend))
	logger.Info("upload complete",
		zap.String("collection", cfg.Collection),
		zap.Int("written", result.Written),
		zap.Int("documents", result.Distinct))
	return nil
}
