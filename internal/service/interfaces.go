// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/cmlopes/contaflow/internal/model"
)

// RuleStore is the persistent repository of categorization rules.
type RuleStore interface {
	// ListRules returns every rule in canonical evaluation order
	// (model.RuleLess).
	ListRules(ctx context.Context) ([]model.CategoryRule, error)
	// AddRule inserts a rule and fills in its ID.
	AddRule(ctx context.Context, rule *model.CategoryRule) error
	// IncrementRuleMatch bumps a rule's persisted match counter.
	IncrementRuleMatch(ctx context.Context, id int64) error
	// SeedRules inserts starter rules when the store is empty; a populated
	// store is left untouched.
	SeedRules(ctx context.Context, rules []model.CategoryRule) error
}

// SessionStore is the durable snapshot store for reconciliation sessions.
type SessionStore interface {
	// SaveFullSession replaces the stored transaction set for the session and
	// updates its counters and balances.
	SaveFullSession(ctx context.Context, session *model.Session, result *model.ReconciliationResult) error
	// UpdateTransaction updates category, note and confidence for the stored
	// transaction matching (date, description, value within epsilon).
	UpdateTransaction(ctx context.Context, sessionID string, txn *model.Transaction) error
	// UpdateReviewProgress persists the review cursor and reviewed count.
	UpdateReviewProgress(ctx context.Context, sessionID string, currentIndex, reviewedCount int) error
	// LoadLatestActive returns the most recently created non-complete session
	// with its reconstructed result, or common.ErrNoActiveSession.
	LoadLatestActive(ctx context.Context) (*model.Session, *model.ReconciliationResult, error)
	// CompleteSession marks the session complete; the transition is
	// forward-only.
	CompleteSession(ctx context.Context, sessionID string) error
}

// Storage combines the repositories behind a single lifetime-scoped handle.
type Storage interface {
	RuleStore
	SessionStore
	Migrate(ctx context.Context) error
	Close() error
}

// Classifier suggests categories for transactions that rules left unknown.
// Implementations are best-effort: a failed batch leaves its transactions
// unknown and never fails the pipeline.
type Classifier interface {
	Classify(ctx context.Context, transactions []*model.Transaction) error
}
