// Package catalog loads the read-only category catalog and optional seed
// rules supplied alongside the application.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/cmlopes/contaflow/internal/model"
)

//go:embed default_catalog.json
var defaultCatalog []byte

// SeedRule is a catalog-provided starter rule, inserted only into an empty
// rule store.
type SeedRule struct {
	Pattern   string `json:"pattern"`
	Category  string `json:"category"`
	Note      string `json:"note"`
	MatchType string `json:"match_type"`
}

type catalogFile struct {
	Categories map[string]string `json:"categories"`
	Rules      []SeedRule        `json:"rules"`
}

// Catalog is the static category-key to display-name mapping used by both
// categorizers. It never changes after load.
type Catalog struct {
	categories map[string]string
	keys       []string
	seedRules  []SeedRule
}

// Load reads a catalog from path, or the embedded default catalog when path
// is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read category catalog %s: %w", path, err)
		}
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse category catalog: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("category catalog has no categories")
	}

	keys := make([]string, 0, len(file.Categories))
	for key := range file.Categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return &Catalog{
		categories: file.Categories,
		keys:       keys,
		seedRules:  file.Rules,
	}, nil
}

// Display returns the display name for a category key, or the key itself when
// unknown.
func (c *Catalog) Display(key string) string {
	if name, ok := c.categories[key]; ok {
		return name
	}
	return key
}

// Has reports whether the key is part of the catalog.
func (c *Catalog) Has(key string) bool {
	_, ok := c.categories[key]
	return ok
}

// Keys returns the category keys in sorted order.
func (c *Catalog) Keys() []string {
	return c.keys
}

// SeedRules converts the catalog's starter rules to model rules.
func (c *Catalog) SeedRules() []model.CategoryRule {
	rules := make([]model.CategoryRule, 0, len(c.seedRules))
	for _, sr := range c.seedRules {
		matchType := model.MatchType(sr.MatchType)
		switch matchType {
		case model.MatchExact, model.MatchContains, model.MatchRegex:
		default:
			matchType = model.MatchContains
		}
		rules = append(rules, model.CategoryRule{
			Pattern:      sr.Pattern,
			Category:     sr.Category,
			NoteTemplate: sr.Note,
			MatchType:    matchType,
		})
	}
	return rules
}
