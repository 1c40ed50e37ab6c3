package rules

import (
	"context"
	"testing"

	"github.com/cmlopes/contaflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRuleStore is an in-memory service.RuleStore.
type memRuleStore struct {
	rules      []model.CategoryRule
	increments map[int64]int
	nextID     int64
}

func newMemRuleStore(rules ...model.CategoryRule) *memRuleStore {
	s := &memRuleStore{increments: map[int64]int{}}
	for i := range rules {
		s.nextID++
		rules[i].ID = s.nextID
		s.rules = append(s.rules, rules[i])
	}
	return s
}

func (s *memRuleStore) ListRules(_ context.Context) ([]model.CategoryRule, error) {
	out := make([]model.CategoryRule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *memRuleStore) AddRule(_ context.Context, rule *model.CategoryRule) error {
	s.nextID++
	rule.ID = s.nextID
	s.rules = append(s.rules, *rule)
	return nil
}

func (s *memRuleStore) IncrementRuleMatch(_ context.Context, id int64) error {
	s.increments[id]++
	return nil
}

func (s *memRuleStore) SeedRules(_ context.Context, _ []model.CategoryRule) error { return nil }

func TestMatches(t *testing.T) {
	tests := []struct {
		name        string
		description string
		rule        model.CategoryRule
		want        bool
	}{
		{
			name:        "exact case-insensitive",
			description: "pagamento galp frota",
			rule:        model.CategoryRule{Pattern: "PAGAMENTO GALP FROTA", MatchType: model.MatchExact},
			want:        true,
		},
		{
			name:        "exact rejects partial",
			description: "PAGAMENTO GALP FROTA LISBOA",
			rule:        model.CategoryRule{Pattern: "PAGAMENTO GALP FROTA", MatchType: model.MatchExact},
			want:        false,
		},
		{
			name:        "contains case-insensitive",
			description: "PAGAMENTO galp FROTA",
			rule:        model.CategoryRule{Pattern: "Galp", MatchType: model.MatchContains},
			want:        true,
		},
		{
			name:        "contains no match",
			description: "RENDA ESCRITORIO",
			rule:        model.CategoryRule{Pattern: "GALP", MatchType: model.MatchContains},
			want:        false,
		},
		{
			name:        "regex case-insensitive",
			description: "SEG SOCIAL 2025-03",
			rule:        model.CategoryRule{Pattern: `seg\s+social`, MatchType: model.MatchRegex},
			want:        true,
		},
		{
			name:        "malformed regex never matches",
			description: "anything",
			rule:        model.CategoryRule{Pattern: `([`, MatchType: model.MatchRegex},
			want:        false,
		},
		{
			name:        "unknown match type",
			description: "anything",
			rule:        model.CategoryRule{Pattern: "anything", MatchType: model.MatchType("glob")},
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.description, tt.rule))
		})
	}
}

func TestCategorizer_FirstMatchWins(t *testing.T) {
	store := newMemRuleStore(
		model.CategoryRule{Pattern: "GALP", Category: "transportes", NoteTemplate: "Combustivel", MatchType: model.MatchContains, MatchCount: 9},
		model.CategoryRule{Pattern: "PAGAMENTO", Category: "fornecedor", MatchType: model.MatchContains, MatchCount: 2},
	)
	categorizer := NewCategorizer(store, nil)
	ctx := context.Background()

	txns := []*model.Transaction{
		{Description: "PAGAMENTO GALP FROTA", Confidence: model.ConfidenceUnknown},
	}
	categorized, unknown, err := categorizer.CategorizeAll(ctx, txns)
	require.NoError(t, err)

	assert.Equal(t, 1, categorized)
	assert.Equal(t, 0, unknown)
	// Both rules match, but the higher match count ranks first.
	assert.Equal(t, "transportes", txns[0].Category)
	assert.Equal(t, "Combustivel", txns[0].Note)
	assert.Equal(t, model.ConfidenceRule, txns[0].Confidence)
	assert.Equal(t, 1, store.increments[1])
	assert.Equal(t, 0, store.increments[2])
}

func TestCategorizer_TieBreaksByOldestRule(t *testing.T) {
	store := newMemRuleStore(
		model.CategoryRule{Pattern: "FROTA", Category: "transportes", MatchType: model.MatchContains, MatchCount: 5},
		model.CategoryRule{Pattern: "GALP", Category: "fornecedor", MatchType: model.MatchContains, MatchCount: 5},
	)
	categorizer := NewCategorizer(store, nil)

	txn := &model.Transaction{Description: "PAGAMENTO GALP FROTA", Confidence: model.ConfidenceUnknown}
	_, _, err := categorizer.CategorizeAll(context.Background(), []*model.Transaction{txn})
	require.NoError(t, err)

	assert.Equal(t, "transportes", txn.Category, "equal counts must resolve to the lower id")
}

func TestCategorizer_Deterministic(t *testing.T) {
	store := newMemRuleStore(
		model.CategoryRule{Pattern: "CLIENTE", Category: "recebimento_cliente", MatchType: model.MatchContains, MatchCount: 1},
		model.CategoryRule{Pattern: "ALFA", Category: "outros", MatchType: model.MatchContains, MatchCount: 1},
	)
	categorizer := NewCategorizer(store, nil)
	ctx := context.Background()

	var first string
	for i := 0; i < 10; i++ {
		txn := &model.Transaction{Description: "RECEBIMENTO CLIENTE ALFA", Confidence: model.ConfidenceUnknown}
		_, _, err := categorizer.CategorizeAll(ctx, []*model.Transaction{txn})
		require.NoError(t, err)
		if i == 0 {
			first = txn.Category
			continue
		}
		assert.Equal(t, first, txn.Category, "same input and rules must always categorize identically")
	}
}

func TestCategorizer_LeavesNonUnknownAlone(t *testing.T) {
	store := newMemRuleStore(
		model.CategoryRule{Pattern: "GALP", Category: "transportes", MatchType: model.MatchContains},
	)
	categorizer := NewCategorizer(store, nil)

	txns := []*model.Transaction{
		{Description: "PAGAMENTO GALP", Category: "salarios", Confidence: model.ConfidenceUser},
		{Description: "PAGAMENTO GALP", Category: "outros", Confidence: model.ConfidenceAI},
	}
	categorized, unknown, err := categorizer.CategorizeAll(context.Background(), txns)
	require.NoError(t, err)

	assert.Equal(t, 2, categorized, "already-tagged transactions count as categorized")
	assert.Equal(t, 0, unknown)
	assert.Equal(t, "salarios", txns[0].Category)
	assert.Equal(t, model.ConfidenceUser, txns[0].Confidence)
	assert.Equal(t, "outros", txns[1].Category)
	assert.Empty(t, store.increments)
}

func TestCategorizer_NoMatchStaysUnknown(t *testing.T) {
	store := newMemRuleStore(
		model.CategoryRule{Pattern: "GALP", Category: "transportes", MatchType: model.MatchContains},
	)
	categorizer := NewCategorizer(store, nil)

	txn := &model.Transaction{Description: "MOVIMENTO MISTERIOSO", Confidence: model.ConfidenceUnknown}
	categorized, unknown, err := categorizer.CategorizeAll(context.Background(), []*model.Transaction{txn})
	require.NoError(t, err)

	assert.Equal(t, 0, categorized)
	assert.Equal(t, 1, unknown)
	assert.Equal(t, model.ConfidenceUnknown, txn.Confidence)
	assert.Empty(t, txn.Category)
}
