package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlopes/contaflow/internal/catalog"
	"github.com/cmlopes/contaflow/internal/common"
	"github.com/cmlopes/contaflow/internal/model"
)

// batchSize is the number of transactions sent per completion request.
const batchSize = 25

// ProgressFunc is called after each batch with the count of transactions
// processed so far and the total.
type ProgressFunc func(processed, total int)

// Classifier suggests categories for transactions via an LLM. It is
// best-effort: a failed or malformed batch is logged and its transactions
// stay unknown.
type Classifier struct {
	client   Client
	catalog  *catalog.Catalog
	logger   *slog.Logger
	progress ProgressFunc
}

// NewClassifier creates a Classifier with the given client and catalog.
func NewClassifier(client Client, cat *catalog.Catalog, logger *slog.Logger, opts ...ClassifierOption) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{
		client:  client,
		catalog: cat,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClassifierOption configures optional Classifier behavior.
type ClassifierOption func(*Classifier)

// WithProgress registers a per-batch progress callback.
func WithProgress(fn ProgressFunc) ClassifierOption {
	return func(c *Classifier) { c.progress = fn }
}

// Classify processes the transactions in sequential batches, updating
// category, note and confidence in place. Only transactions still at
// ConfidenceUnknown are ever modified. Batch failures do not abort the run;
// the only returned error is context cancellation.
func (c *Classifier) Classify(ctx context.Context, transactions []*model.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	total := len(transactions)
	for start := 0; start < total; start += batchSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", common.ErrBatchAbandoned, err)
		}

		end := start + batchSize
		if end > total {
			end = total
		}
		batch := transactions[start:end]

		if err := c.classifyBatch(ctx, batch); err != nil {
			c.logger.Error("batch classification failed",
				"batch_start", start,
				"batch_size", len(batch),
				"error", err)
		}

		if c.progress != nil {
			c.progress(end, total)
		}
	}

	return nil
}

type batchItem struct {
	Category string `json:"category"`
	Note     string `json:"note"`
	Index    int    `json:"index"`
}

func (c *Classifier) classifyBatch(ctx context.Context, batch []*model.Transaction) error {
	prompt := c.buildPrompt(batch)

	raw, err := c.client.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("completion request failed: %w", err)
	}

	var items []batchItem
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &items); err != nil {
		return fmt.Errorf("failed to parse model output: %w", err)
	}

	applied := 0
	for _, item := range items {
		if item.Index < 0 || item.Index >= len(batch) {
			c.logger.Warn("model returned out-of-range index", "index", item.Index)
			continue
		}
		txn := batch[item.Index]
		if txn.Confidence != model.ConfidenceUnknown {
			continue
		}
		category := item.Category
		if category == "" {
			category = "outros"
		}
		txn.Category = category
		txn.Note = item.Note
		txn.Confidence = model.ConfidenceAI
		applied++
	}

	c.logger.Info("AI categorized transactions", "applied", applied, "batch_size", len(batch))
	return nil
}

func (c *Classifier) buildPrompt(batch []*model.Transaction) string {
	var categories strings.Builder
	for _, key := range c.catalog.Keys() {
		fmt.Fprintf(&categories, "- %s: %s\n", key, c.catalog.Display(key))
	}

	var lines strings.Builder
	for idx, txn := range batch {
		flow := "Credito"
		if txn.Direction == model.DirectionDebit {
			flow = "Debito"
		}
		fmt.Fprintf(&lines, "%d. %s | %s | %s %.2f EUR\n",
			idx, txn.Date, txn.Description, flow, txn.Value)
	}

	return fmt.Sprintf(`Analisa estas transacoes bancarias de uma empresa portuguesa e categoriza cada uma.

Categorias disponiveis:
%s
Transacoes:
%s
Para cada transacao, responde APENAS com JSON array. Cada elemento deve ter:
- "index": numero da transacao
- "category": chave da categoria (ex: "transportes", "fornecedor")
- "note": nota breve em portugues para o contabilista (max 50 caracteres)

Responde APENAS com o JSON array, sem texto adicional.`, categories.String(), lines.String())
}

// stripCodeFence removes a surrounding markdown code fence from model output,
// including an optional language tag.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "```") {
		return text
	}

	parts := strings.Split(text, "```")
	if len(parts) < 2 {
		return text
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}
