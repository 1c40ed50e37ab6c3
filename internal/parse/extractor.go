package parse

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/cmlopes/contaflow/internal/model"
)

// Page is one page of source material. Rows carry the cell structure used by
// the structured strategy; Lines carry the same content as raw text for the
// fallback strategy.
type Page struct {
	Rows  [][]string
	Lines []string
}

// Strategy names which extraction path produced the transactions.
type Strategy string

// Extraction strategies, tried in order.
const (
	StrategyStructured Strategy = "structured"
	StrategyTextLines  Strategy = "text"
)

// Stats summarizes an extraction run for logging and tests.
type Stats struct {
	Strategy    Strategy
	SkippedRows int
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}|^\d{2}[-/]\d{2}[-/]\d{4}`)

// Transaction line shapes for the text fallback: two dates, a description and
// a trailing value, e.g. "2025-05-16 2025-05-16 Lionesa Services - S 0,60".
var (
	txnLineThousands = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(\d{4}-\d{2}-\d{2})\s+(.+?)\s+([\d.]+,\d{2})\s*$`)
	txnLinePlain     = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(\d{4}-\d{2}-\d{2})\s+(.+?)\s+([\d.,]+)\s*$`)
)

var trailingValuePattern = regexp.MustCompile(`-?\s*[\d.,]+\s*$`)

// Lines containing any of these are headers, footers or totals, never data.
var stopWords = []string{
	"data mov", "data valor", "descri", "notas", "valor",
	"total", "sem movimentos", "pagina", "emitido por",
	"toconline", "nif:", "valores em eur",
	"relatorio", "reconcilia",
	"movimentos a", "saldo do", "diferen",
}

// Balance markers searched in the final full-document pass, keyed by the
// report formula printed next to each figure.
var balanceMarkers = []struct {
	marker string
	assign func(*model.ReconciliationResult, float64)
}{
	{"(1+2-3+4-5)", func(r *model.ReconciliationResult, v float64) { r.ReconciledBalance = &v }},
	{"(6-3)", func(r *model.ReconciliationResult, v float64) { r.Difference = &v }},
	{"(7)", func(r *model.ReconciliationResult, v float64) { r.CompanyBalance = &v }},
	{"(1)", func(r *model.ReconciliationResult, v float64) { r.BankBalance = &v }},
}

// Extractor converts report pages into a ReconciliationResult.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor. A nil logger falls back to slog.Default.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract runs the structured strategy over the pages and, when it yields no
// transactions at all, the text-line fallback. Unparseable rows are logged and
// skipped; they never abort extraction.
func (e *Extractor) Extract(pages []Page, filename string) (*model.ReconciliationResult, Stats, error) {
	result := &model.ReconciliationResult{
		Filename: filename,
		ParsedAt: time.Now(),
	}

	stats := Stats{Strategy: StrategyStructured}
	e.extractStructured(pages, result, &stats)

	if len(result.AllTransactions()) == 0 {
		e.logger.Info("structured extraction found no transactions, trying text fallback",
			"filename", filename)
		stats = Stats{Strategy: StrategyTextLines}
		e.extractTextLines(pages, result, &stats)
	}

	// Balances the per-page scan missed are recovered from the report
	// formulas printed next to each figure.
	if result.BankBalance == nil || result.ReconciledBalance == nil ||
		result.CompanyBalance == nil || result.Difference == nil {
		e.extractBalanceMarkers(pages, result)
	}

	e.logger.Info("extraction finished",
		"filename", filename,
		"strategy", string(stats.Strategy),
		"transactions", len(result.AllTransactions()),
		"skipped_rows", stats.SkippedRows)

	return result, stats, nil
}

// extractStructured walks cell rows, tracking the current section from header
// rows and collecting date-led data rows.
func (e *Extractor) extractStructured(pages []Page, result *model.ReconciliationResult, stats *Stats) {
	section := SectionNone
	rowIndex := 0

	for _, page := range pages {
		// Section headers and balances can appear in plain lines even when
		// tables carry the data rows.
		for _, line := range page.Lines {
			if detected := DetectSection(line); detected != SectionNone {
				section = detected
				e.captureBalance(result, section, line)
			}
		}

		for _, row := range page.Rows {
			if len(row) == 0 {
				continue
			}
			joined := strings.Join(row, " ")
			if detected := DetectSection(joined); detected != SectionNone {
				section = detected
				e.captureBalance(result, section, joined)
				continue
			}
			if !section.IsMovement() {
				continue
			}
			if isTotalRow(row) || isNoMovementsRow(row) {
				continue
			}
			if !isDataRow(row) {
				continue
			}

			txn, ok := e.rowToTransaction(row, section, rowIndex)
			if !ok {
				stats.SkippedRows++
				continue
			}
			result.AppendToGroup(section.Group(), txn)
			rowIndex++
		}
	}
}

// rowToTransaction builds a transaction from a structured data row. Cell
// layout follows the report table: date, value date, description, notes, value.
func (e *Extractor) rowToTransaction(row []string, section Section, rowIndex int) (*model.Transaction, bool) {
	date := strings.TrimSpace(row[0])
	description := ""
	if len(row) > 2 {
		description = strings.TrimSpace(row[2])
	}
	notes := ""
	if len(row) > 3 {
		notes = strings.TrimSpace(row[3])
	}
	valueStr := strings.TrimSpace(row[len(row)-1])

	value, ok := Number(valueStr)
	if !ok {
		e.logger.Warn("could not parse row value, skipping row",
			"value", valueStr, "date", date, "description", description)
		return nil, false
	}
	if strings.EqualFold(notes, "none") {
		notes = ""
	}

	return &model.Transaction{
		Date:          date,
		Description:   description,
		Value:         value,
		Direction:     section.Direction(),
		RowIndex:      rowIndex,
		OriginalNotes: notes,
		Confidence:    model.ConfidenceUnknown,
	}, true
}

// extractTextLines is the fallback strategy: buffer each section's raw lines
// and match them against the transaction line patterns.
func (e *Extractor) extractTextLines(pages []Page, result *model.ReconciliationResult, stats *Stats) {
	section := SectionNone
	rowIndex := 0
	var buffer []string

	flush := func() {
		if section.IsMovement() && len(buffer) > 0 {
			rowIndex = e.parseBufferedLines(buffer, section, rowIndex, result)
		}
		buffer = buffer[:0]
	}

	for _, page := range pages {
		for _, line := range page.Lines {
			if detected := DetectSection(line); detected != SectionNone {
				flush()
				section = detected
				e.captureBalance(result, section, line)
				continue
			}
			buffer = append(buffer, line)
		}
		flush()
	}
}

// parseBufferedLines extracts transactions from one section's buffered text.
// Only strictly positive values are accepted in this mode.
func (e *Extractor) parseBufferedLines(lines []string, section Section, rowIndex int, result *model.ReconciliationResult) int {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || isStopLine(line) {
			continue
		}

		match := txnLineThousands.FindStringSubmatch(line)
		if match == nil {
			match = txnLinePlain.FindStringSubmatch(line)
		}
		if match == nil {
			continue
		}

		value, ok := Number(match[4])
		if !ok || value <= 0 {
			continue
		}

		result.AppendToGroup(section.Group(), &model.Transaction{
			Date:        match[1],
			Description: strings.TrimSpace(match[3]),
			Value:       value,
			Direction:   section.Direction(),
			RowIndex:    rowIndex,
			Confidence:  model.ConfidenceUnknown,
		})
		rowIndex++
	}
	return rowIndex
}

// captureBalance pulls the trailing numeric token off a balance section header.
func (e *Extractor) captureBalance(result *model.ReconciliationResult, section Section, line string) {
	if !section.IsBalance() {
		return
	}
	match := trailingValuePattern.FindString(strings.TrimSpace(line))
	if match == "" {
		return
	}
	value, ok := Number(match)
	if !ok {
		return
	}
	switch section {
	case SectionStatementBalance:
		result.BankBalance = &value
	case SectionReconciledBalance:
		result.ReconciledBalance = &value
	case SectionCompanyBalance:
		result.CompanyBalance = &value
	case SectionDifference:
		result.Difference = &value
	}
}

// extractBalanceMarkers scans the whole document for the literal formula
// markers and parses the numeric suffix after each.
func (e *Extractor) extractBalanceMarkers(pages []Page, result *model.ReconciliationResult) {
	missing := func(p *float64) bool { return p == nil }

	for _, page := range pages {
		for _, line := range page.Lines {
			line = strings.TrimSpace(line)
			for _, bm := range balanceMarkers {
				idx := strings.Index(line, bm.marker)
				if idx < 0 {
					continue
				}
				switch {
				case bm.marker == "(1)" && !missing(result.BankBalance):
					continue
				case bm.marker == "(1+2-3+4-5)" && !missing(result.ReconciledBalance):
					continue
				case bm.marker == "(7)" && !missing(result.CompanyBalance):
					continue
				case bm.marker == "(6-3)" && !missing(result.Difference):
					continue
				}
				suffix := strings.TrimSpace(line[idx+len(bm.marker):])
				if value, ok := Number(suffix); ok {
					bm.assign(result, value)
				}
			}
		}
	}
}

func isDataRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	return datePattern.MatchString(strings.TrimSpace(row[0]))
}

func isTotalRow(row []string) bool {
	for _, cell := range row {
		if strings.Contains(strings.ToLower(cell), "total") {
			return true
		}
	}
	return false
}

func isNoMovementsRow(row []string) bool {
	for _, cell := range row {
		if strings.Contains(strings.ToLower(cell), "sem movimentos") {
			return true
		}
	}
	return false
}

func isStopLine(line string) bool {
	folded := foldText(line)
	for _, word := range stopWords {
		if strings.Contains(folded, word) {
			return true
		}
	}
	return false
}

// Describe renders a short human summary of the extraction, used by the CLI.
func Describe(result *model.ReconciliationResult) string {
	return fmt.Sprintf("%d transactions (%d bank debits, %d bank credits, %d company debits, %d company credits)",
		len(result.AllTransactions()),
		len(result.BankDebits), len(result.BankCredits),
		len(result.CompanyDebits), len(result.CompanyCredits))
}
