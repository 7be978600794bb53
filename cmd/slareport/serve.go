package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sla-overage-report/internal/dashboard"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive report dashboard",
	Long: `Load the task source once and serve the histogram, the cross-tabulations and
the record browser. Every category selection recomputes the tables from the loaded
records.`,
	RunE: runServeE,
}

func init() {
	addSourceFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServeE(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, source, err := loadTable(ctx)
	if err != nil {
		return err
	}
	return dashboard.New(table, source, logger).ListenAndServe(ctx, serveAddr)
}
