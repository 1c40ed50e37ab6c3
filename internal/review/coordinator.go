// Package review drives the human pass over transactions the automated
// stages could not categorize.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlopes/contaflow/internal/common"
	"github.com/cmlopes/contaflow/internal/model"
	"github.com/cmlopes/contaflow/internal/rules"
	"github.com/cmlopes/contaflow/internal/service"
)

// State describes where a review session stands.
type State string

// Review states. Idle means nothing is pending, Reviewing means the cursor
// points at a pending transaction, Complete means the cursor ran past the end.
const (
	StateIdle      State = "idle"
	StateReviewing State = "reviewing"
	StateComplete  State = "complete"
)

// Coordinator walks the pending transactions of one session, applying human
// decisions and persisting each step so an interrupted review resumes where
// it stopped. All I/O goes through the injected store.
type Coordinator struct {
	store   service.SessionStore
	learner *rules.Learner
	logger  *slog.Logger
	session *model.Session
	pending []*model.Transaction
}

// NewCoordinator creates a coordinator over a loaded session. The pending
// slice is every transaction still uncategorized, in report order; the
// session's current index positions the cursor for resumed reviews.
func NewCoordinator(store service.SessionStore, learner *rules.Learner, session *model.Session, pending []*model.Transaction, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:   store,
		learner: learner,
		logger:  logger,
		session: session,
		pending: pending,
	}
}

// State reports the coordinator's current state.
func (c *Coordinator) State() State {
	switch {
	case len(c.pending) == 0:
		return StateIdle
	case c.session.CurrentIndex >= len(c.pending):
		return StateComplete
	default:
		return StateReviewing
	}
}

// Current returns the transaction under the cursor, or nil when the review
// is not in the Reviewing state.
func (c *Coordinator) Current() *model.Transaction {
	if c.State() != StateReviewing {
		return nil
	}
	return c.pending[c.session.CurrentIndex]
}

// Position returns the one-based cursor position and the pending total.
func (c *Coordinator) Position() (current, total int) {
	return c.session.CurrentIndex + 1, len(c.pending)
}

// Session returns the session under review.
func (c *Coordinator) Session() *model.Session {
	return c.session
}

// Categorize applies a human decision to the current transaction: the
// learner records it (possibly creating a rule), the stored transaction row
// is updated, and the cursor advances durably.
func (c *Coordinator) Categorize(ctx context.Context, category, note string) error {
	txn := c.Current()
	if txn == nil {
		return common.ErrSessionComplete
	}

	if err := c.learner.ApplyUserCategory(ctx, txn, category, note); err != nil {
		return fmt.Errorf("failed to apply category: %w", err)
	}
	if err := c.store.UpdateTransaction(ctx, c.session.ID, txn); err != nil {
		return fmt.Errorf("failed to persist transaction: %w", err)
	}

	return c.advance(ctx)
}

// Skip leaves the current transaction uncategorized and moves on. The skip
// still counts as reviewed so progress reflects transactions seen.
func (c *Coordinator) Skip(ctx context.Context) error {
	if c.Current() == nil {
		return common.ErrSessionComplete
	}
	return c.advance(ctx)
}

func (c *Coordinator) advance(ctx context.Context) error {
	c.session.CurrentIndex++
	c.session.ReviewedCount++
	if err := c.store.UpdateReviewProgress(ctx, c.session.ID, c.session.CurrentIndex, c.session.ReviewedCount); err != nil {
		return fmt.Errorf("failed to persist review progress: %w", err)
	}

	if c.State() == StateComplete {
		c.logger.Info("review pass finished",
			"session", c.session.ID,
			"reviewed", c.session.ReviewedCount)
	}
	return nil
}
