// Package engine orchestrates the reconciliation pipeline: extraction, rule
// categorization, AI fallback, and the initial durable snapshot.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cmlopes/contaflow/internal/common"
	"github.com/cmlopes/contaflow/internal/model"
	"github.com/cmlopes/contaflow/internal/parse"
	"github.com/cmlopes/contaflow/internal/rules"
	"github.com/cmlopes/contaflow/internal/service"
)

// ReadPages loads the pages of a PDF document. Swappable in tests.
type ReadPages func(path string) ([]parse.Page, error)

// Engine runs one reconciliation from a PDF to an active review session.
type Engine struct {
	storage     service.Storage
	categorizer *rules.Categorizer
	classifier  service.Classifier
	extractor   *parse.Extractor
	readPages   ReadPages
	logger      *slog.Logger
}

// New creates an engine with the given dependencies. A nil classifier
// disables the AI fallback pass; a nil readPages uses the real PDF reader.
func New(storage service.Storage, categorizer *rules.Categorizer, classifier service.Classifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		storage:     storage,
		categorizer: categorizer,
		classifier:  classifier,
		extractor:   parse.NewExtractor(logger),
		readPages:   parse.ReadPDF,
		logger:      logger,
	}
}

// Result bundles the outcome of one reconciliation run.
type Result struct {
	Reconciliation *model.ReconciliationResult
	Session        *model.Session
	Pending        []*model.Transaction
	Stats          parse.Stats
}

// Reconcile extracts the report at pdfPath, categorizes its transactions by
// rule then by AI, and persists the whole run as the active session. A new
// run simply becomes the latest active session; it does not touch older ones.
func (e *Engine) Reconcile(ctx context.Context, pdfPath string) (*Result, error) {
	pages, err := e.readPages(pdfPath)
	if err != nil {
		return nil, err
	}

	result, stats, err := e.extractor.Extract(pages, filepath.Base(pdfPath))
	if err != nil {
		return nil, err
	}

	all := result.AllTransactions()
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrNoTransactions, result.Filename)
	}
	e.logger.Info("extracted transactions",
		"count", len(all),
		"strategy", stats.Strategy,
		"skipped_rows", stats.SkippedRows)

	categorized, unknown, err := e.categorizer.CategorizeAll(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("rule categorization failed: %w", err)
	}
	e.logger.Info("rule pass finished", "categorized", categorized, "unknown", unknown)

	if e.classifier != nil && unknown > 0 {
		if err := e.classifier.Classify(ctx, result.Uncategorized()); err != nil {
			return nil, fmt.Errorf("AI categorization interrupted: %w", err)
		}
	}

	pending := result.Uncategorized()
	session := &model.Session{
		ID:                uuid.New().String(),
		CreatedAt:         time.Now(),
		Filename:          result.Filename,
		Status:            model.SessionActive,
		BankBalance:       result.BankBalance,
		ReconciledBalance: result.ReconciledBalance,
		CompanyBalance:    result.CompanyBalance,
		Difference:        result.Difference,
		TotalTransactions: len(all),
		AutoCategorized:   len(all) - len(pending),
		NeedsReview:       len(pending),
	}

	if err := e.storage.SaveFullSession(ctx, session, result); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	e.logger.Info("reconciliation session saved",
		"session", session.ID,
		"total", session.TotalTransactions,
		"auto_categorized", session.AutoCategorized,
		"needs_review", session.NeedsReview)

	return &Result{
		Reconciliation: result,
		Session:        session,
		Pending:        pending,
		Stats:          stats,
	}, nil
}
