// Package rules implements deterministic, store-backed transaction
// categorization and the rule-learning loop fed by human corrections.
package rules

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/cmlopes/contaflow/internal/model"
	"github.com/cmlopes/contaflow/internal/service"
)

// Categorizer applies the persisted rule set to transactions.
type Categorizer struct {
	store  service.RuleStore
	logger *slog.Logger
}

// NewCategorizer creates a rule-based categorizer backed by the given store.
func NewCategorizer(store service.RuleStore, logger *slog.Logger) *Categorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Categorizer{store: store, logger: logger}
}

// Matches reports whether a rule matches the description. All match types are
// case-insensitive; a malformed regex pattern never matches and never errors.
func Matches(description string, rule model.CategoryRule) bool {
	switch rule.MatchType {
	case model.MatchExact:
		return strings.EqualFold(description, rule.Pattern)
	case model.MatchContains:
		return strings.Contains(strings.ToLower(description), strings.ToLower(rule.Pattern))
	case model.MatchRegex:
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(description)
	}
	return false
}

// Categorize evaluates the rules, already in canonical order, against one
// transaction. The first match wins: it sets category and note, tags the
// transaction ConfidenceRule and bumps the rule's persisted match counter.
// Transactions that are no longer ConfidenceUnknown are left untouched.
// This is a total operation: it always ends in a classification outcome.
func (c *Categorizer) Categorize(ctx context.Context, txn *model.Transaction, ordered []model.CategoryRule) bool {
	if txn.Confidence != model.ConfidenceUnknown {
		return txn.Categorized()
	}

	for _, rule := range ordered {
		if !Matches(txn.Description, rule) {
			continue
		}
		txn.Category = rule.Category
		txn.Note = rule.NoteTemplate
		txn.Confidence = model.ConfidenceRule
		if err := c.store.IncrementRuleMatch(ctx, rule.ID); err != nil {
			c.logger.Warn("failed to increment rule match count",
				"rule_id", rule.ID, "error", err)
		}
		return true
	}
	return false
}

// CategorizeAll runs the rule pass over a transaction list and returns how
// many were categorized and how many remain unknown.
func (c *Categorizer) CategorizeAll(ctx context.Context, transactions []*model.Transaction) (categorized, unknown int, err error) {
	ordered, err := c.store.ListRules(ctx)
	if err != nil {
		return 0, 0, err
	}
	// The store already orders rules, but the evaluation order is a domain
	// contract, so enforce the comparator here too.
	sort.SliceStable(ordered, func(i, j int) bool { return model.RuleLess(ordered[i], ordered[j]) })

	for _, txn := range transactions {
		if c.Categorize(ctx, txn, ordered) {
			categorized++
		} else {
			unknown++
		}
	}

	c.logger.Info("rule categorization finished",
		"categorized", categorized, "needs_review", unknown)
	return categorized, unknown, nil
}
