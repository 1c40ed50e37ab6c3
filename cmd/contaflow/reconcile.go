package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmlopes/contaflow/internal/catalog"
	"github.com/cmlopes/contaflow/internal/cli"
	"github.com/cmlopes/contaflow/internal/common"
	"github.com/cmlopes/contaflow/internal/engine"
	"github.com/cmlopes/contaflow/internal/llm"
	"github.com/cmlopes/contaflow/internal/parse"
	"github.com/cmlopes/contaflow/internal/rules"
	"github.com/cmlopes/contaflow/internal/service"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile <pdf>",
		Short: "Parse a reconciliation PDF and categorize its movements",
		Long: `Extracts the movements of a bank reconciliation PDF, applies the learned
categorization rules, asks the configured AI for the leftovers, and saves
everything as the active session. Run "contaflow review" afterwards to
resolve what remains uncategorized.`,
		Args: cobra.ExactArgs(1),
		RunE: runReconcile,
	}
	cmd.Flags().Bool("no-ai", false, "skip the AI categorization pass")
	return cmd
}

func runReconcile(cmd *cobra.Command, args []string) error {
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

	noAI, _ := cmd.Flags().GetBool("no-ai")
	classifier, err := buildClassifier(cat, noAI)
	if err != nil {
		return err
	}

	categorizer := rules.NewCategorizer(store, slog.Default())
	eng := engine.New(store, categorizer, classifier, slog.Default())

	result, err := eng.Reconcile(ctx, args[0])
	if err != nil {
		if errors.Is(err, common.ErrDocumentNotFound) {
			return common.NewUserError(fmt.Sprintf("could not find %s", args[0]), err)
		}
		if errors.Is(err, common.ErrNoTransactions) {
			return common.NewUserError("the report contains no recognizable movements", err)
		}
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Parsed %s via %s strategy.",
		result.Session.Filename, result.Stats.Strategy)))
	fmt.Println("  " + parse.Describe(result.Reconciliation))
	fmt.Printf("  Auto-categorized: %d  Needs review: %d\n",
		result.Session.AutoCategorized, result.Session.NeedsReview)

	if result.Session.NeedsReview > 0 {
		fmt.Println(cli.FormatWarning("Run \"contaflow review\" to categorize the rest."))
	}
	return nil
}

// buildClassifier wires the AI fallback pass, or returns nil when it is
// disabled or no API key is configured.
func buildClassifier(cat *catalog.Catalog, noAI bool) (service.Classifier, error) {
	if noAI {
		return nil, nil
	}
	key := apiKey()
	if key == "" {
		slog.Info("no LLM API key configured, skipping AI categorization")
		return nil, nil
	}

	client, err := llm.NewClient(llm.Config{
		Provider: viper.GetString("llm.provider"),
		APIKey:   key,
		Model:    viper.GetString("llm.model"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var bar *progressbar.ProgressBar
	progress := func(processed, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "AI categorization")
		}
		_ = bar.Set(processed)
	}

	return llm.NewClassifier(client, cat, slog.Default(), llm.WithProgress(progress)), nil
}

// apiKey resolves the LLM API key from config or the CONTAFLOW_ANTHROPIC_API_KEY
// environment variable bound by viper.
func apiKey() string {
	if key := viper.GetString("llm.api_key"); key != "" {
		return key
	}
	return viper.GetString("anthropic_api_key")
}
