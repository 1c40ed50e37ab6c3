// Package llm provides the LLM-backed fallback classifier for transactions
// that no stored rule matched.
package llm

import (
	"context"
	"fmt"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Complete sends a prompt and returns the raw text of the model's reply.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds LLM provider configuration.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// NewClient creates an LLM client based on the configured provider.
func NewClient(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
