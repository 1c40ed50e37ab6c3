package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmlopes/contaflow/internal/cli"
	"github.com/cmlopes/contaflow/internal/common"
	"github.com/cmlopes/contaflow/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active session as a ledger file",
		Long: `Writes the active session's transactions to an xlsx workbook or a CSV
file and marks the session complete. Transactions still uncategorized are
exported with an empty category.`,
		RunE: runExport,
	}
	cmd.Flags().String("format", "xlsx", "output format (xlsx, csv)")
	cmd.Flags().StringP("output", "o", "", "output path (default: derived from the report filename)")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format, _ := cmd.Flags().GetString("format")
	if format != "xlsx" && format != "csv" {
		return fmt.Errorf("%w: unsupported export format %q", common.ErrInvalidConfig, format)
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx, cat)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	session, result, err := store.LoadLatestActive(ctx)
	if errors.Is(err, common.ErrNoActiveSession) {
		fmt.Println(cli.FormatWarning("No active session to export."))
		return nil
	}
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		base := strings.TrimSuffix(session.Filename, filepath.Ext(session.Filename))
		outputPath = base + "." + format
	}

	exporter := export.NewExporter(cat, slog.Default())
	switch format {
	case "xlsx":
		err = exporter.Excel(result, outputPath)
	case "csv":
		err = exporter.CSV(result, outputPath)
	}
	if err != nil {
		return err
	}

	if err := store.CompleteSession(ctx, session.ID); err != nil {
		return fmt.Errorf("export written but session not closed: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %s.",
		len(result.AllTransactions()), outputPath)))
	if pending := len(result.Uncategorized()); pending > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d transactions were exported without a category.", pending)))
	}
	return nil
}
