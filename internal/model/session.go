package model

import "time"

// SessionStatus tracks the lifecycle of a reconciliation session.
type SessionStatus string

// Session status constants. Transitions are forward-only: Processing/Active
// move to Complete, triggered only by a successful export.
const (
	SessionProcessing SessionStatus = "processing"
	SessionActive     SessionStatus = "active"
	SessionComplete   SessionStatus = "complete"
)

// Session is the durable snapshot of one reconciliation run.
type Session struct {
	CreatedAt         time.Time
	CompletedAt       *time.Time
	ID                string
	Filename          string
	Status            SessionStatus
	BankBalance       *float64
	ReconciledBalance *float64
	CompanyBalance    *float64
	Difference        *float64
	TotalTransactions int
	AutoCategorized   int
	NeedsReview       int
	CurrentIndex      int
	ReviewedCount     int
}
