package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlopes/contaflow/internal/model"
)

// ListRules retrieves every category rule in canonical evaluation order:
// highest match count first, ties broken by ascending id (model.RuleLess).
func (s *SQLiteStorage) ListRules(ctx context.Context) ([]model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pattern, category, note_template, match_type, match_count, created_at
		FROM category_rules
		ORDER BY match_count DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.CategoryRule
	for rows.Next() {
		var rule model.CategoryRule
		var matchType string
		if err := rows.Scan(&rule.ID, &rule.Pattern, &rule.Category,
			&rule.NoteTemplate, &matchType, &rule.MatchCount, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.MatchType = model.MatchType(matchType)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// AddRule inserts a new category rule and fills in its assigned id.
func (s *SQLiteStorage) AddRule(ctx context.Context, rule *model.CategoryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO category_rules (pattern, category, note_template, match_type, match_count)
		VALUES (?, ?, ?, ?, ?)
	`, rule.Pattern, rule.Category, rule.NoteTemplate, string(rule.MatchType), rule.MatchCount)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule id: %w", err)
	}
	rule.ID = id
	rule.CreatedAt = time.Now()

	return nil
}

// IncrementRuleMatch bumps a rule's persisted match counter. The counter only
// ever increases.
func (s *SQLiteStorage) IncrementRuleMatch(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE category_rules SET match_count = match_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment rule match count: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d not found", id)
	}
	return nil
}

// SeedRules inserts the catalog's starter rules when the store is empty. An
// already-populated store is left untouched.
func (s *SQLiteStorage) SeedRules(ctx context.Context, rules []model.CategoryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM category_rules`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count rules: %w", err)
	}
	if count > 0 {
		return nil
	}

	for i := range rules {
		if err := s.AddRule(ctx, &rules[i]); err != nil {
			return fmt.Errorf("failed to seed rule %q: %w", rules[i].Pattern, err)
		}
	}
	return nil
}
