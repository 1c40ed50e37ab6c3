package model

import "time"

// MatchType selects how a rule pattern is compared against a description.
type MatchType string

// Match type constants.
const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchRegex    MatchType = "regex"
)

// CategoryRule maps a description pattern to a category. Pattern and MatchType
// are immutable after creation; only MatchCount mutates, and only upward.
type CategoryRule struct {
	CreatedAt    time.Time
	Pattern      string
	Category     string
	NoteTemplate string
	MatchType    MatchType
	ID           int64
	MatchCount   int
}

// RuleLess is the canonical evaluation order for rules: frequently matched
// rules first, ties broken by insertion order. The popularity ordering is a
// deliberate online-learning heuristic, so it lives here as an explicit
// comparator rather than an incidental ORDER BY.
func RuleLess(a, b CategoryRule) bool {
	if a.MatchCount != b.MatchCount {
		return a.MatchCount > b.MatchCount
	}
	return a.ID < b.ID
}
