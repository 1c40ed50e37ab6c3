package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlopes/contaflow/internal/catalog"
	"github.com/cmlopes/contaflow/internal/model"
	"github.com/cmlopes/contaflow/internal/service"
)

// Learner turns human corrections into standing rules: a one-off assignment
// becomes a Contains rule matching the same description in future reports.
type Learner struct {
	store   service.RuleStore
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewLearner creates a learner over the rule store and category catalog.
func NewLearner(store service.RuleStore, cat *catalog.Catalog, logger *slog.Logger) *Learner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Learner{store: store, catalog: cat, logger: logger}
}

// ApplyUserCategory records a human categorization on the transaction and, if
// no rule already carries the same pattern, creates a Contains rule from the
// raw description. Reapplying the same correction never creates a duplicate.
func (l *Learner) ApplyUserCategory(ctx context.Context, txn *model.Transaction, category, note string) error {
	if note == "" {
		note = l.catalog.Display(category)
	}

	txn.Category = category
	txn.Note = note
	txn.Confidence = model.ConfidenceUser

	if strings.TrimSpace(txn.Description) == "" {
		return nil
	}

	existing, err := l.store.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}
	for _, rule := range existing {
		if strings.EqualFold(rule.Pattern, txn.Description) {
			return nil
		}
	}

	rule := model.CategoryRule{
		Pattern:      txn.Description,
		Category:     category,
		NoteTemplate: note,
		MatchType:    model.MatchContains,
	}
	if err := l.store.AddRule(ctx, &rule); err != nil {
		return fmt.Errorf("failed to save learned rule: %w", err)
	}

	l.logger.Info("learned new categorization rule",
		"pattern", rule.Pattern, "category", category, "rule_id", rule.ID)
	return nil
}
