package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cmlopes/contaflow/internal/cli"
	"github.com/cmlopes/contaflow/internal/common"
	"github.com/cmlopes/contaflow/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
	}
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx, nil)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			rules, err := store.ListRules(ctx)
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				fmt.Println(cli.FormatWarning("No rules yet. They grow as you review."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPATTERN\tCATEGORY\tTYPE\tMATCHES")
			for _, rule := range rules {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n",
					rule.ID, rule.Pattern, rule.Category, rule.MatchType, rule.MatchCount)
			}
			return w.Flush()
		},
	}
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <pattern> <category>",
		Short: "Add a categorization rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			matchType, _ := cmd.Flags().GetString("match")
			note, _ := cmd.Flags().GetString("note")

			switch model.MatchType(matchType) {
			case model.MatchExact, model.MatchContains, model.MatchRegex:
			default:
				return fmt.Errorf("%w: invalid match type %q", common.ErrInvalidConfig, matchType)
			}

			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			if !cat.Has(args[1]) {
				return fmt.Errorf("%w: unknown category %q", common.ErrInvalidConfig, args[1])
			}

			store, err := initStorage(ctx, cat)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			rule := model.CategoryRule{
				Pattern:      args[0],
				Category:     args[1],
				NoteTemplate: note,
				MatchType:    model.MatchType(matchType),
			}
			if err := store.AddRule(ctx, &rule); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule %d added.", rule.ID)))
			return nil
		},
	}
	cmd.Flags().String("match", "contains", "match type (exact, contains, regex)")
	cmd.Flags().String("note", "", "note template applied on match")
	return cmd
}
