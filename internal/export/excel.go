// Package export renders a finalized reconciliation for the accountant, as
// an xlsx workbook or a flat CSV.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/cmlopes/contaflow/internal/catalog"
	"github.com/cmlopes/contaflow/internal/model"
)

// Sheet titles and the section names used in both export formats.
var groupTitles = map[model.TransactionGroup]string{
	model.GroupBankDebit:     "Debitos Banco",
	model.GroupBankCredit:    "Creditos Banco",
	model.GroupCompanyDebit:  "Debitos Empresa",
	model.GroupCompanyCredit: "Creditos Empresa",
}

var confidenceLabels = map[model.Confidence]string{
	model.ConfidenceRule:    "Auto (regra)",
	model.ConfidenceAI:      "IA (sugestao)",
	model.ConfidenceUser:    "Manual",
	model.ConfidenceUnknown: "Nao categorizado",
}

func confidenceLabel(c model.Confidence) string {
	if label, ok := confidenceLabels[c]; ok {
		return label
	}
	return string(c)
}

// Exporter writes reconciliation results to files.
type Exporter struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewExporter creates an exporter using the catalog for display names.
func NewExporter(cat *catalog.Catalog, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{catalog: cat, logger: logger}
}

func (e *Exporter) display(category string) string {
	if category == "" {
		return ""
	}
	return e.catalog.Display(category)
}

// categoryTotals accumulates per-category debit and credit sums for the
// summary sheet.
type categoryTotals struct {
	debits  float64
	credits float64
	count   int
}

// Excel writes the result as an xlsx workbook: a summary sheet followed by
// one sheet per non-empty group.
func (e *Exporter) Excel(result *model.ReconciliationResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	valueStyle, err := f.NewStyle(&excelize.Style{
		NumFmt: 4, // #,##0.00
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create value style: %w", err)
	}

	if err := e.writeSummarySheet(f, result, headerStyle, valueStyle); err != nil {
		return err
	}

	for _, group := range model.Groups() {
		txns := result.Group(group)
		if len(txns) == 0 {
			continue
		}
		if err := e.writeGroupSheet(f, groupTitles[group], txns, headerStyle, valueStyle); err != nil {
			return err
		}
	}

	// The default sheet stays only if nothing replaced it.
	if idx, err := f.GetSheetIndex("Sheet1"); err == nil && idx >= 0 {
		_ = f.DeleteSheet("Sheet1")
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("excel export written", "path", outputPath)
	return nil
}

func (e *Exporter) writeSummarySheet(f *excelize.File, result *model.ReconciliationResult, headerStyle, valueStyle int) error {
	const sheet = "Resumo"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	_ = f.SetCellValue(sheet, "A1", "Resumo por Categoria")
	_ = f.SetCellValue(sheet, "A3", "Ficheiro:")
	_ = f.SetCellValue(sheet, "B3", result.Filename)
	_ = f.SetCellValue(sheet, "A4", "Data:")
	_ = f.SetCellValue(sheet, "B4", result.ParsedAt.Format("2006-01-02 15:04"))
	_ = f.SetCellValue(sheet, "A5", "Total transacoes:")
	_ = f.SetCellValue(sheet, "B5", len(result.AllTransactions()))

	balances := []struct {
		value *float64
		label string
	}{
		{result.BankBalance, "Saldo bancario:"},
		{result.ReconciledBalance, "Saldo reconciliado:"},
		{result.CompanyBalance, "Saldo contabilistico:"},
		{result.Difference, "Diferenca:"},
	}
	row := 6
	for _, b := range balances {
		if b.value == nil {
			continue
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), b.label)
		cell := fmt.Sprintf("B%d", row)
		_ = f.SetCellValue(sheet, cell, *b.value)
		_ = f.SetCellStyle(sheet, cell, cell, valueStyle)
		row++
	}

	totals := map[string]*categoryTotals{}
	for _, txn := range result.AllTransactions() {
		key := txn.Category
		if key == "" {
			key = "sem_categoria"
		}
		t := totals[key]
		if t == nil {
			t = &categoryTotals{}
			totals[key] = t
		}
		if txn.Direction == model.DirectionDebit {
			t.debits += txn.Value
		} else {
			t.credits += txn.Value
		}
		t.count++
	}
	keys := make([]string, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	headerRow := row + 2
	headers := []string{"Categoria", "Debitos (EUR)", "Creditos (EUR)", "N. Transacoes"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
		_ = f.SetCellValue(sheet, cell, header)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	row = headerRow + 1
	for _, key := range keys {
		t := totals[key]
		display := "Sem Categoria"
		if key != "sem_categoria" {
			display = e.display(key)
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), display)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), t.debits)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), t.credits)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), t.count)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("C%d", row), valueStyle)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "D", 22)
	return nil
}

func (e *Exporter) writeGroupSheet(f *excelize.File, sheet string, txns []*model.Transaction, headerStyle, valueStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headers := []string{"Data", "Descricao", "Valor (EUR)", "Tipo", "Categoria", "Nota", "Confianca"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, txn := range txns {
		row := i + 2
		flow := "Credito"
		if txn.Direction == model.DirectionDebit {
			flow = "Debito"
		}
		values := []any{
			txn.Date, txn.Description, txn.Value, flow,
			e.display(txn.Category), txn.Note, confidenceLabel(txn.Confidence),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, value)
		}
		valueCell, _ := excelize.CoordinatesToCellName(3, row)
		_ = f.SetCellStyle(sheet, valueCell, valueCell, valueStyle)
	}

	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", "B", 40)
	_ = f.SetColWidth(sheet, "C", "G", 16)
	return nil
}
