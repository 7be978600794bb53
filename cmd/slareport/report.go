package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sla-overage-report/internal/chart"
	"sla-overage-report/internal/crosstab"
	"sla-overage-report/internal/report"
)

var (
	reportCategories []string
	reportJSON       string
	reportRecords    string
	reportChart      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the over SLA days report",
	Long: `Print the bin count and mixed percentage tables for the selected task
categories. Without --category every category is shown with a Total row.

Task Category rows are normalised by the bin (column) total; the Total row by the
grand total of all records.`,
	RunE: runReportE,
}

func init() {
	addSourceFlags(reportCmd)
	reportCmd.Flags().StringSliceVar(&reportCategories, "category", nil, "Task categories to show, in display order (default All)")
	reportCmd.Flags().StringVar(&reportJSON, "json", "", "Optional JSON output path")
	reportCmd.Flags().StringVar(&reportRecords, "records", "", "Optional CSV output of the selected records")
	reportCmd.Flags().StringVar(&reportChart, "chart", "", "Optional PNG output of the stacked histogram")
	rootCmd.AddCommand(reportCmd)
}

func runReportE(cmd *cobra.Command, args []string) error {
	table, source, err := loadTable(cmd.Context())
	if err != nil {
		return err
	}

	choice := crosstab.Choice{All: true}
	if cmd.Flags().Changed("category") {
		choice = crosstab.ParseChoice(reportCategories)
	}
	rep := table.Build(choice, report.Options{})

	report.Print(cmd.OutOrStdout(), rep, filepath.Base(source))

	if reportJSON != "" {
		if err := report.WriteJSON(rep, reportJSON); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nJSON report saved to %s\n", reportJSON)
	}

	if reportRecords != "" {
		if err := report.WriteRecordsCSVFile(reportRecords, rep.Records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Records CSV saved to %s\n", reportRecords)
	}

	if reportChart != "" {
		var buf bytes.Buffer
		if err := chart.Histogram(&buf, rep.Histogram, table.Scheme.Labels); err != nil {
			return fmt.Errorf("render histogram: %w", err)
		}
		if err := os.WriteFile(reportChart, buf.Bytes(), 0644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Histogram saved to %s\n", reportChart)
	}

	logger.Debug().Str("run_id", rep.Summary.RunID).Int("records", len(rep.Records)).Msg("report written")
	return nil
}
