package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlopes/contaflow/internal/common"
	"github.com/cmlopes/contaflow/internal/model"
)

// valueEpsilon bounds the float comparison used when matching a persisted
// transaction row by value.
const valueEpsilon = 0.01

// SaveFullSession persists a session header and every transaction in the
// result atomically. An existing session with the same id is replaced
// wholesale, so the call is safe to repeat after a partial run.
func (s *SQLiteStorage) SaveFullSession(ctx context.Context, session *model.Session, result *model.ReconciliationResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSession(session); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, filename, total_transactions, auto_categorized, needs_review,
			status, bank_balance, reconciled_balance, company_balance, difference,
			current_index, reviewed_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			total_transactions = excluded.total_transactions,
			auto_categorized = excluded.auto_categorized,
			needs_review = excluded.needs_review,
			status = excluded.status,
			bank_balance = excluded.bank_balance,
			reconciled_balance = excluded.reconciled_balance,
			company_balance = excluded.company_balance,
			difference = excluded.difference,
			current_index = excluded.current_index,
			reviewed_count = excluded.reviewed_count
	`, session.ID, session.Filename, session.TotalTransactions, session.AutoCategorized,
		session.NeedsReview, string(session.Status), session.BankBalance,
		session.ReconciledBalance, session.CompanyBalance, session.Difference,
		session.CurrentIndex, session.ReviewedCount); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("failed to clear session transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (session_id, date, description, value, direction,
			category, note, confidence, group_label, row_index, original_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, group := range model.Groups() {
		for _, txn := range result.Group(group) {
			if _, err := stmt.ExecContext(ctx, session.ID, txn.Date, txn.Description,
				txn.Value, string(txn.Direction), txn.Category, txn.Note,
				string(txn.Confidence), string(group), txn.RowIndex,
				txn.OriginalNotes); err != nil {
				return fmt.Errorf("failed to insert transaction %q: %w", txn.Description, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session save: %w", err)
	}
	return nil
}

// UpdateTransaction writes one transaction's current category, note, and
// confidence back to its persisted row. The row is located by date and
// description plus a small value tolerance, matching how the transaction was
// originally stored.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, sessionID string, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("%w: txn", ErrNilParameter)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, note = ?, confidence = ?
		WHERE session_id = ? AND date = ? AND description = ? AND ABS(value - ?) < ?
	`, txn.Category, txn.Note, string(txn.Confidence),
		sessionID, txn.Date, txn.Description, txn.Value, valueEpsilon)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no stored transaction matches %q on %s", txn.Description, txn.Date)
	}
	return nil
}

// UpdateReviewProgress advances the persisted review cursor for a session.
func (s *SQLiteStorage) UpdateReviewProgress(ctx context.Context, sessionID string, currentIndex, reviewedCount int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET current_index = ?, reviewed_count = ? WHERE id = ?
	`, currentIndex, reviewedCount, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update review progress: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}

// LoadLatestActive reloads the most recent unfinished session together with
// its full reconciliation result. Groups preserve their original insertion
// order. Returns common.ErrNoActiveSession when nothing is pending.
func (s *SQLiteStorage) LoadLatestActive(ctx context.Context) (*model.Session, *model.ReconciliationResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, nil, err
	}

	session := &model.Session{}
	var status string
	var completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, total_transactions, auto_categorized, needs_review,
			status, bank_balance, reconciled_balance, company_balance, difference,
			current_index, reviewed_count, created_at, completed_at
		FROM sessions
		WHERE status != 'complete'
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&session.ID, &session.Filename, &session.TotalTransactions,
		&session.AutoCategorized, &session.NeedsReview, &status,
		&session.BankBalance, &session.ReconciledBalance, &session.CompanyBalance,
		&session.Difference, &session.CurrentIndex, &session.ReviewedCount,
		&session.CreatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, common.ErrNoActiveSession
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	session.Status = model.SessionStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}

	result := &model.ReconciliationResult{
		ParsedAt:          session.CreatedAt,
		Filename:          session.Filename,
		BankBalance:       session.BankBalance,
		ReconciledBalance: session.ReconciledBalance,
		CompanyBalance:    session.CompanyBalance,
		Difference:        session.Difference,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, description, value, direction, category, note, confidence,
			group_label, row_index, original_notes
		FROM transactions
		WHERE session_id = ?
		ORDER BY id ASC
	`, session.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		txn := &model.Transaction{}
		var direction, confidence, group string
		if err := rows.Scan(&txn.Date, &txn.Description, &txn.Value, &direction,
			&txn.Category, &txn.Note, &confidence, &group, &txn.RowIndex,
			&txn.OriginalNotes); err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Direction = model.Direction(direction)
		txn.Confidence = model.Confidence(confidence)
		result.AppendToGroup(model.TransactionGroup(group), txn)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return session, result, nil
}

// CompleteSession marks a session finished. Completion is forward-only; a
// completed session never returns to an active state.
func (s *SQLiteStorage) CompleteSession(ctx context.Context, sessionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = 'complete', completed_at = ? WHERE id = ?
	`, time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}
