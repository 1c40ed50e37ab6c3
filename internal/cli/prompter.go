package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cmlopes/contaflow/internal/catalog"
	"github.com/cmlopes/contaflow/internal/model"
	"github.com/cmlopes/contaflow/internal/review"
)

// ErrReviewAborted is returned when the user quits mid-review. The session
// stays active and resumes at the same transaction next time.
var ErrReviewAborted = fmt.Errorf("review aborted by user")

// Prompter walks the user through the pending transactions of a session. It
// renders and reads; all decisions flow into the review coordinator.
type Prompter struct {
	reader  *bufio.Reader
	writer  io.Writer
	catalog *catalog.Catalog
}

// NewPrompter creates a prompter over the given streams. Nil reader or
// writer default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer, cat *catalog.Catalog) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader:  bufio.NewReader(reader),
		writer:  writer,
		catalog: cat,
	}
}

// Run reviews transactions until the coordinator completes or the user
// quits. Returns ErrReviewAborted on quit.
func (p *Prompter) Run(ctx context.Context, coordinator *review.Coordinator) error {
	if coordinator.State() == review.StateIdle {
		fmt.Fprintln(p.writer, FormatSuccess("Nothing left to review."))
		return nil
	}

	for coordinator.State() == review.StateReviewing {
		if err := ctx.Err(); err != nil {
			return err
		}

		txn := coordinator.Current()
		current, total := coordinator.Position()
		p.showTransaction(txn, current, total)

		choice, err := p.readLine("Category number, [s]kip, [q]uit: ")
		if err != nil {
			return err
		}

		switch strings.ToLower(choice) {
		case "q", "quit":
			fmt.Fprintln(p.writer, FormatWarning("Review paused. Run review again to resume."))
			return ErrReviewAborted
		case "s", "skip", "":
			if err := coordinator.Skip(ctx); err != nil {
				return err
			}
		default:
			if err := p.categorize(ctx, coordinator, choice); err != nil {
				return err
			}
		}
	}

	fmt.Fprintln(p.writer, FormatSuccess("Review complete."))
	return nil
}

func (p *Prompter) categorize(ctx context.Context, coordinator *review.Coordinator, choice string) error {
	keys := p.catalog.Keys()
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(keys) {
		fmt.Fprintln(p.writer, FormatError(fmt.Sprintf("Invalid choice %q.", choice)))
		return nil
	}
	category := keys[idx-1]

	note, err := p.readLine(fmt.Sprintf("Note (enter for %q): ", p.catalog.Display(category)))
	if err != nil {
		return err
	}

	if err := coordinator.Categorize(ctx, category, note); err != nil {
		return err
	}
	fmt.Fprintln(p.writer, FormatSuccess(fmt.Sprintf("Categorized as %s.", p.catalog.Display(category))))
	return nil
}

func (p *Prompter) showTransaction(txn *model.Transaction, current, total int) {
	flow := "Credito"
	if txn.Direction == model.DirectionDebit {
		flow = "Debito"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", SubtleStyle.Render(txn.Date), txn.Description)
	fmt.Fprintf(&b, "%s %s", flow, ValueStyle.Render(fmt.Sprintf("%.2f EUR", txn.Value)))
	if txn.OriginalNotes != "" {
		fmt.Fprintf(&b, "\n%s", SubtleStyle.Render(txn.OriginalNotes))
	}

	title := fmt.Sprintf("Transaction %d/%d", current, total)
	fmt.Fprintln(p.writer, RenderBox(title, b.String()))

	for i, key := range p.catalog.Keys() {
		fmt.Fprintf(p.writer, "  [%2d] %s\n", i+1, p.catalog.Display(key))
	}
	fmt.Fprintln(p.writer)
}

func (p *Prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.writer, PromptStyle.Render(prompt))
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
