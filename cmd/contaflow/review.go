package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cmlopes/contaflow/internal/cli"
	"github.com/cmlopes/contaflow/internal/common"
	"github.com/cmlopes/contaflow/internal/review"
	"github.com/cmlopes/contaflow/internal/rules"
)

func reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Interactively categorize the pending transactions",
		Long: `Loads the active reconciliation session and walks through every
transaction the automated passes left uncategorized. Each decision is saved
immediately, so an interrupted review resumes where it stopped.`,
		RunE: runReview,
	}
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx, cat)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	session, result, err := store.LoadLatestActive(ctx)
	if errors.Is(err, common.ErrNoActiveSession) {
		fmt.Println(cli.FormatWarning("No active session. Run \"contaflow reconcile <pdf>\" first."))
		return nil
	}
	if err != nil {
		return err
	}

	pending := result.Uncategorized()

	// Transactions categorized in an earlier pass are no longer pending, so
	// the persisted cursor shifts back by however many left the list.
	removed := session.NeedsReview - len(pending)
	if removed > 0 {
		session.CurrentIndex -= removed
	}
	if session.CurrentIndex < 0 || session.CurrentIndex > len(pending) {
		session.CurrentIndex = 0
	}

	learner := rules.NewLearner(store, cat, slog.Default())
	coordinator := review.NewCoordinator(store, learner, session, pending, slog.Default())

	prompter := cli.NewPrompter(nil, nil, cat)
	if err := prompter.Run(ctx, coordinator); err != nil {
		if errors.Is(err, cli.ErrReviewAborted) {
			return nil
		}
		return err
	}

	fmt.Println(cli.FormatSuccess("Run \"contaflow export\" to produce the ledger."))
	return nil
}
