package parse

import (
	"fmt"
	"os"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/cmlopes/contaflow/internal/common"
)

// Horizontal gaps, in PDF points. Fragments further apart than cellGap start a
// new table cell; fragments further apart than wordGap get a space between
// them inside a cell.
const (
	cellGap = 12.0
	wordGap = 1.0
)

// ReadPDF loads a reconciliation PDF into pages of cell rows and text lines.
// A missing file is a fatal error; there is no fallback input.
func ReadPDF(path string) ([]Page, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat document %s: %w", path, err)
	}

	reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}

	pages := make([]Page, 0, reader.NumPage())
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			// A page that cannot be decoded loses its rows but must not
			// abort the document.
			continue
		}

		p := Page{}
		for _, row := range rows {
			cells := rowCells(row)
			if len(cells) == 0 {
				continue
			}
			p.Rows = append(p.Rows, cells)
			p.Lines = append(p.Lines, strings.Join(cells, " "))
		}
		pages = append(pages, p)
	}

	return pages, nil
}

// rowCells groups the positioned text fragments of one visual row into cells,
// splitting wherever the horizontal gap exceeds cellGap.
func rowCells(row *pdf.Row) []string {
	var cells []string
	var current strings.Builder
	var lastEnd float64
	started := false

	for _, text := range row.Content {
		if text.S == "" {
			continue
		}
		if !started {
			current.WriteString(text.S)
			lastEnd = text.X + text.W
			started = true
			continue
		}
		gap := text.X - lastEnd
		switch {
		case gap > cellGap:
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
			current.WriteString(text.S)
		case gap > wordGap:
			current.WriteString(" ")
			current.WriteString(text.S)
		default:
			current.WriteString(text.S)
		}
		lastEnd = text.X + text.W
	}
	if started {
		cells = append(cells, strings.TrimSpace(current.String()))
	}
	return cells
}
