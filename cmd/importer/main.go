package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"estateinsight/server/config"
	"estateinsight/server/internal/database"
	"estateinsight/server/internal/importer"
	"estateinsight/server/internal/logging"
)

var filePath string

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Load a real-estate spreadsheet into the database",
	Long: `Replaces every stored record with the rows of an xlsx or csv file.
Columns are matched by field name or by their human-readable header.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), filePath)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&filePath, "file", "f", "sample_data.xlsx", "path to the spreadsheet")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading file: %s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.Wrap(err, "config error")
	}
	logger := logging.New(cfg.Log.Level)

	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "file %s not found", path)
	}

	db, err := database.NewDatabase(cfg, logger)
	if err != nil {
		return errors.Wrap(err, "database connect error")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return errors.Wrap(err, "migration error")
	}

	result, err := importer.New(db, cfg.Import.BatchSize, cfg.Query.City, logger).ImportFile(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "import of %s failed", path)
	}

	fmt.Printf("Successfully loaded %d records from %s (%d skipped)\n", result.Processed, path, result.Skipped)
	return nil
}
