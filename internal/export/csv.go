package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cmlopes/contaflow/internal/model"
)

// CSV writes the result as a flat semicolon-delimited file, one row per
// transaction across all four groups. Values use a decimal comma so the file
// opens cleanly in Portuguese-locale spreadsheets.
func (e *Exporter) CSV(result *model.ReconciliationResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// BOM so Excel detects UTF-8.
	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	w.Comma = ';'

	header := []string{"Data", "Descricao", "Valor", "Tipo", "Seccao", "Categoria", "Nota", "Confianca"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, group := range model.Groups() {
		for _, txn := range result.Group(group) {
			flow := "Credito"
			if txn.Direction == model.DirectionDebit {
				flow = "Debito"
			}
			record := []string{
				txn.Date,
				txn.Description,
				strings.ReplaceAll(fmt.Sprintf("%.2f", txn.Value), ".", ","),
				flow,
				groupTitles[group],
				e.display(txn.Category),
				txn.Note,
				string(txn.Confidence),
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	e.logger.Info("csv export written", "path", outputPath)
	return nil
}
