package review

import (
	"context"
	"testing"

	"github.com/cmlopes/contaflow/internal/catalog"
	"github.com/cmlopes/contaflow/internal/common"
	"github.com/cmlopes/contaflow/internal/model"
	"github.com/cmlopes/contaflow/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records persistence calls in memory.
type fakeStore struct {
	rules         []model.CategoryRule
	updatedTxns   []model.Transaction
	progressCalls [][2]int
	nextRuleID    int64
}

func (f *fakeStore) ListRules(_ context.Context) ([]model.CategoryRule, error) {
	return f.rules, nil
}

func (f *fakeStore) AddRule(_ context.Context, rule *model.CategoryRule) error {
	f.nextRuleID++
	rule.ID = f.nextRuleID
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeStore) IncrementRuleMatch(_ context.Context, _ int64) error { return nil }

func (f *fakeStore) SeedRules(_ context.Context, _ []model.CategoryRule) error { return nil }

func (f *fakeStore) SaveFullSession(_ context.Context, _ *model.Session, _ *model.ReconciliationResult) error {
	return nil
}

func (f *fakeStore) UpdateTransaction(_ context.Context, _ string, txn *model.Transaction) error {
	f.updatedTxns = append(f.updatedTxns, *txn)
	return nil
}

func (f *fakeStore) UpdateReviewProgress(_ context.Context, _ string, currentIndex, reviewedCount int) error {
	f.progressCalls = append(f.progressCalls, [2]int{currentIndex, reviewedCount})
	return nil
}

func (f *fakeStore) LoadLatestActive(_ context.Context) (*model.Session, *model.ReconciliationResult, error) {
	return nil, nil, common.ErrNoActiveSession
}

func (f *fakeStore) CompleteSession(_ context.Context, _ string) error { return nil }

func newTestCoordinator(t *testing.T, store *fakeStore, pendingCount int) *Coordinator {
	t.Helper()
	cat, err := catalog.Load("")
	require.NoError(t, err)
	learner := rules.NewLearner(store, cat, nil)

	pending := make([]*model.Transaction, pendingCount)
	for i := range pending {
		pending[i] = &model.Transaction{
			Date:        "2025-03-10",
			Description: "MOVIMENTO PENDENTE " + string(rune('A'+i)),
			Value:       float64(i + 1),
			Direction:   model.DirectionDebit,
			Confidence:  model.ConfidenceUnknown,
		}
	}
	session := &model.Session{
		ID:          "sess-review",
		Filename:    "report.pdf",
		Status:      model.SessionActive,
		NeedsReview: pendingCount,
	}
	return NewCoordinator(store, learner, session, pending, nil)
}

func TestCoordinator_States(t *testing.T) {
	store := &fakeStore{}

	idle := newTestCoordinator(t, store, 0)
	assert.Equal(t, StateIdle, idle.State())
	assert.Nil(t, idle.Current())

	c := newTestCoordinator(t, store, 2)
	assert.Equal(t, StateReviewing, c.State())
	require.NotNil(t, c.Current())

	ctx := context.Background()
	require.NoError(t, c.Skip(ctx))
	assert.Equal(t, StateReviewing, c.State())
	require.NoError(t, c.Skip(ctx))
	assert.Equal(t, StateComplete, c.State())
	assert.Nil(t, c.Current())
}

func TestCoordinator_Categorize(t *testing.T) {
	store := &fakeStore{}
	c := newTestCoordinator(t, store, 2)
	ctx := context.Background()

	first := c.Current()
	require.NoError(t, c.Categorize(ctx, "transportes", "Combustivel frota"))

	assert.Equal(t, "transportes", first.Category)
	assert.Equal(t, "Combustivel frota", first.Note)
	assert.Equal(t, model.ConfidenceUser, first.Confidence)

	// Transaction persisted and cursor advanced durably.
	require.Len(t, store.updatedTxns, 1)
	assert.Equal(t, model.ConfidenceUser, store.updatedTxns[0].Confidence)
	require.Len(t, store.progressCalls, 1)
	assert.Equal(t, [2]int{1, 1}, store.progressCalls[0])

	// The correction became a rule.
	require.Len(t, store.rules, 1)
	assert.Equal(t, first.Description, store.rules[0].Pattern)
	assert.Equal(t, model.MatchContains, store.rules[0].MatchType)
}

func TestCoordinator_CategorizeDefaultsNote(t *testing.T) {
	store := &fakeStore{}
	c := newTestCoordinator(t, store, 1)

	first := c.Current()
	require.NoError(t, c.Categorize(context.Background(), "rendas", ""))
	assert.NotEmpty(t, first.Note, "empty note should fall back to the category display name")
}

func TestCoordinator_SkipDoesNotCategorize(t *testing.T) {
	store := &fakeStore{}
	c := newTestCoordinator(t, store, 1)
	ctx := context.Background()

	txn := c.Current()
	require.NoError(t, c.Skip(ctx))

	assert.Equal(t, model.ConfidenceUnknown, txn.Confidence)
	assert.Empty(t, store.updatedTxns)
	assert.Empty(t, store.rules)
	require.Len(t, store.progressCalls, 1)
	assert.Equal(t, StateComplete, c.State())
}

func TestCoordinator_ActionsAfterComplete(t *testing.T) {
	store := &fakeStore{}
	c := newTestCoordinator(t, store, 1)
	ctx := context.Background()

	require.NoError(t, c.Skip(ctx))
	assert.Error(t, c.Skip(ctx))
	assert.Error(t, c.Categorize(ctx, "outros", ""))
}

func TestCoordinator_ResumesFromCursor(t *testing.T) {
	store := &fakeStore{}
	c := newTestCoordinator(t, store, 3)
	c.session.CurrentIndex = 2
	c.session.ReviewedCount = 2

	assert.Equal(t, StateReviewing, c.State())
	current, total := c.Position()
	assert.Equal(t, 3, current)
	assert.Equal(t, 3, total)

	require.NoError(t, c.Skip(context.Background()))
	assert.Equal(t, StateComplete, c.State())
	assert.Equal(t, [2]int{3, 3}, store.progressCalls[0])
}
