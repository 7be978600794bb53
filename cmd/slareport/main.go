package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sla-overage-report/internal/config"
	"sla-overage-report/internal/ingest"
	"sla-overage-report/internal/logging"
	"sla-overage-report/internal/report"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	inputPath string
	dbURL     string
	dbDriver  string
	dbTable   string

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "slareport",
	Short: "Over SLA days report for task exports",
	Long: `Reads a task export, keeps the configured owners and categories, computes how
many days each task ran over its category SLA, bins the overage and reports count
and percentage cross-tabulations per task category.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(os.Stderr, logLevel, logFormat)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (default: built-in owners, SLA days and filters)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole, "Log format (console, json)")
}

// addSourceFlags registers the input selection flags shared by report and serve.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&inputPath, "input", "", "Path to task CSV export")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "Read tasks from a database (default: SLA_REPORT_DB_URL or DATABASE_URL when --input is empty)")
	cmd.Flags().StringVar(&dbDriver, "db-driver", "", "Database driver: pgx or sqlite (default: from URL)")
	cmd.Flags().StringVar(&dbTable, "db-table", "tasks", "Table holding task rows")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError(err)
	}
}

// loadTable ingests the configured source and runs it through filter, overage and
// binning. It returns the table and a label for the source.
func loadTable(ctx context.Context) (report.Table, string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return report.Table{}, "", err
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		return report.Table{}, "", err
	}

	var (
		result ingest.Result
		source string
	)
	switch {
	case inputPath != "":
		source = inputPath
		result, err = ingest.ReadCSVFile(inputPath)
	case dbURLFromEnv() != "":
		src := ingest.SQLSource{Driver: dbDriver, DSN: dbURLFromEnv(), Table: dbTable}
		source = src.String()
		result, err = ingest.ReadSQL(ctx, src)
	default:
		return report.Table{}, "", errors.New("--input is required (or set --db-url, SLA_REPORT_DB_URL or DATABASE_URL)")
	}
	if err != nil {
		return report.Table{}, "", err
	}

	logger.Info().
		Str("source", source).
		Int("records", len(result.Records)).
		Int("invalid_rows", result.InvalidRows).
		Msg("tasks loaded")

	table := report.Prepare(result, resolved, logger)
	return table, source, nil
}

func dbURLFromEnv() string {
	if value := strings.TrimSpace(dbURL); value != "" {
		return value
	}
	if value := strings.TrimSpace(os.Getenv("SLA_REPORT_DB_URL")); value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
