package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/cmlopes/contaflow/internal/catalog"
	"github.com/cmlopes/contaflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test implementation of the Client interface.
type mockClient struct {
	respond func(call int, prompt string) (string, error)
	calls   int
	prompts []string
}

func (m *mockClient) Complete(_ context.Context, prompt string) (string, error) {
	call := m.calls
	m.calls++
	m.prompts = append(m.prompts, prompt)
	return m.respond(call, prompt)
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load("")
	require.NoError(t, err)
	return cat
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func makeUnknowns(count int) []*model.Transaction {
	txns := make([]*model.Transaction, count)
	for i := range txns {
		txns[i] = &model.Transaction{
			Date:        "2025-03-01",
			Description: fmt.Sprintf("MOVIMENTO %d", i),
			Value:       float64(i + 1),
			Direction:   model.DirectionDebit,
			Confidence:  model.ConfidenceUnknown,
		}
	}
	return txns
}

// batchResponse builds a valid JSON reply categorizing every index in a batch.
func batchResponse(size int, category string) string {
	items := make([]batchItem, size)
	for i := range items {
		items[i] = batchItem{Index: i, Category: category, Note: "Nota"}
	}
	data, _ := json.Marshal(items)
	return string(data)
}

func TestClassifier_BatchesOf25(t *testing.T) {
	client := &mockClient{
		respond: func(call int, _ string) (string, error) {
			if call == 0 {
				return batchResponse(25, "fornecedor"), nil
			}
			return batchResponse(5, "outros"), nil
		},
	}
	classifier := NewClassifier(client, testCatalog(t), testLogger())

	txns := makeUnknowns(30)
	err := classifier.Classify(context.Background(), txns)
	require.NoError(t, err)

	assert.Equal(t, 2, client.calls, "30 transactions should take exactly 2 requests")
	for i, txn := range txns {
		assert.Equal(t, model.ConfidenceAI, txn.Confidence, "transaction %d", i)
	}
	assert.Equal(t, "fornecedor", txns[0].Category)
	assert.Equal(t, "outros", txns[29].Category)
}

func TestClassifier_MalformedBatchLeftUnknown(t *testing.T) {
	client := &mockClient{
		respond: func(call int, _ string) (string, error) {
			if call == 0 {
				return "desculpa, nao consigo ajudar", nil
			}
			return batchResponse(5, "rendas"), nil
		},
	}
	classifier := NewClassifier(client, testCatalog(t), testLogger())

	txns := makeUnknowns(30)
	err := classifier.Classify(context.Background(), txns)
	require.NoError(t, err, "a bad batch must not fail the run")

	for i := 0; i < 25; i++ {
		assert.Equal(t, model.ConfidenceUnknown, txns[i].Confidence, "transaction %d", i)
	}
	for i := 25; i < 30; i++ {
		assert.Equal(t, model.ConfidenceAI, txns[i].Confidence, "transaction %d", i)
	}
}

func TestClassifier_StripsCodeFence(t *testing.T) {
	client := &mockClient{
		respond: func(_ int, _ string) (string, error) {
			return "```json\n" + batchResponse(2, "transportes") + "\n```", nil
		},
	}
	classifier := NewClassifier(client, testCatalog(t), testLogger())

	txns := makeUnknowns(2)
	require.NoError(t, classifier.Classify(context.Background(), txns))
	assert.Equal(t, "transportes", txns[0].Category)
	assert.Equal(t, model.ConfidenceAI, txns[1].Confidence)
}

func TestClassifier_BoundsAndConfidenceGuards(t *testing.T) {
	client := &mockClient{
		respond: func(_ int, _ string) (string, error) {
			return `[{"index": -1, "category": "rendas"},
				{"index": 99, "category": "rendas"},
				{"index": 0, "category": "rendas", "note": "Renda"},
				{"index": 1, "category": "rendas"}]`, nil
		},
	}
	classifier := NewClassifier(client, testCatalog(t), testLogger())

	txns := makeUnknowns(2)
	txns[1].Category = "salarios"
	txns[1].Confidence = model.ConfidenceUser

	require.NoError(t, classifier.Classify(context.Background(), txns))

	assert.Equal(t, "rendas", txns[0].Category)
	assert.Equal(t, model.ConfidenceAI, txns[0].Confidence)
	assert.Equal(t, "salarios", txns[1].Category, "user-confirmed category must not be overwritten")
	assert.Equal(t, model.ConfidenceUser, txns[1].Confidence)
}

func TestClassifier_EmptyCategoryFallsBack(t *testing.T) {
	client := &mockClient{
		respond: func(_ int, _ string) (string, error) {
			return `[{"index": 0, "category": ""}]`, nil
		},
	}
	classifier := NewClassifier(client, testCatalog(t), testLogger())

	txns := makeUnknowns(1)
	require.NoError(t, classifier.Classify(context.Background(), txns))
	assert.Equal(t, "outros", txns[0].Category)
}

func TestClassifier_ProgressHook(t *testing.T) {
	client := &mockClient{
		respond: func(call int, _ string) (string, error) {
			if call == 0 {
				return batchResponse(25, "outros"), nil
			}
			return batchResponse(5, "outros"), nil
		},
	}

	var updates [][2]int
	classifier := NewClassifier(client, testCatalog(t), testLogger(),
		WithProgress(func(processed, total int) {
			updates = append(updates, [2]int{processed, total})
		}))

	require.NoError(t, classifier.Classify(context.Background(), makeUnknowns(30)))
	assert.Equal(t, [][2]int{{25, 30}, {30, 30}}, updates)
}

func TestClassifier_PromptContainsCatalogAndTransactions(t *testing.T) {
	client := &mockClient{
		respond: func(_ int, _ string) (string, error) {
			return batchResponse(1, "outros"), nil
		},
	}
	classifier := NewClassifier(client, testCatalog(t), testLogger())

	txns := makeUnknowns(1)
	txns[0].Description = "PAGAMENTO GALP FROTA"
	require.NoError(t, classifier.Classify(context.Background(), txns))

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "PAGAMENTO GALP FROTA")
	assert.Contains(t, prompt, "transportes")
	assert.Contains(t, prompt, "Debito 1.00 EUR")
}

func TestClassifier_Empty(t *testing.T) {
	client := &mockClient{
		respond: func(_ int, _ string) (string, error) {
			t.Fatal("no request expected for an empty slice")
			return "", nil
		},
	}
	classifier := NewClassifier(client, testCatalog(t), testLogger())
	require.NoError(t, classifier.Classify(context.Background(), nil))
	assert.Equal(t, 0, client.calls)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain json", input: `[{"index":0}]`, want: `[{"index":0}]`},
		{name: "fenced", input: "```\n[1,2]\n```", want: "[1,2]"},
		{name: "fenced with tag", input: "```json\n[1,2]\n```", want: "[1,2]"},
		{name: "leading prose", input: "Aqui esta:\n```json\n[1]\n```", want: "[1]"},
		{name: "whitespace", input: "  [1]  ", want: "[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.input))
		})
	}
}
