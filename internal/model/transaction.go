// Package model defines the core domain models used throughout the application.
package model

// Direction indicates the flow of money for a transaction.
type Direction string

// Transaction flow constants.
const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// Confidence indicates the provenance of a transaction's category.
type Confidence string

// Confidence tier constants. A transaction only ever advances
// Unknown -> {Rule|AI} -> User; once User it is never overwritten
// by an automated pass.
const (
	ConfidenceUnknown Confidence = "unknown"
	ConfidenceRule    Confidence = "rule"
	ConfidenceAI      Confidence = "ai"
	ConfidenceUser    Confidence = "user"
)

// Transaction represents a single movement extracted from a reconciliation report.
// Date keeps the source formatting; Value is a non-negative magnitude with the
// flow carried by Direction.
type Transaction struct {
	Date          string
	Description   string
	OriginalNotes string
	Category      string
	Note          string
	Direction     Direction
	Confidence    Confidence
	Value         float64
	RowIndex      int
}

// Categorized reports whether any classification stage has tagged this transaction.
func (t *Transaction) Categorized() bool {
	return t.Confidence != ConfidenceUnknown
}
