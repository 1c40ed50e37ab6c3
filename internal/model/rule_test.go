package model

import (
	"sort"
	"testing"
)

func TestRuleLess(t *testing.T) {
	tests := []struct {
		name string
		a    CategoryRule
		b    CategoryRule
		want bool
	}{
		{
			name: "higher match count wins",
			a:    CategoryRule{ID: 5, MatchCount: 10},
			b:    CategoryRule{ID: 1, MatchCount: 3},
			want: true,
		},
		{
			name: "lower match count loses",
			a:    CategoryRule{ID: 1, MatchCount: 3},
			b:    CategoryRule{ID: 5, MatchCount: 10},
			want: false,
		},
		{
			name: "equal counts fall back to id",
			a:    CategoryRule{ID: 2, MatchCount: 4},
			b:    CategoryRule{ID: 7, MatchCount: 4},
			want: true,
		},
		{
			name: "identical rule is not less than itself",
			a:    CategoryRule{ID: 3, MatchCount: 1},
			b:    CategoryRule{ID: 3, MatchCount: 1},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RuleLess(tt.a, tt.b); got != tt.want {
				t.Errorf("RuleLess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleLess_SortIsDeterministic(t *testing.T) {
	rules := []CategoryRule{
		{ID: 4, MatchCount: 0},
		{ID: 2, MatchCount: 9},
		{ID: 3, MatchCount: 9},
		{ID: 1, MatchCount: 0},
	}

	sort.SliceStable(rules, func(i, j int) bool { return RuleLess(rules[i], rules[j]) })

	wantIDs := []int64{2, 3, 1, 4}
	for i, want := range wantIDs {
		if rules[i].ID != want {
			t.Errorf("position %d: got id %d, want %d", i, rules[i].ID, want)
		}
	}
}

func TestTransaction_Categorized(t *testing.T) {
	txn := &Transaction{Confidence: ConfidenceUnknown}
	if txn.Categorized() {
		t.Error("unknown transaction should not be categorized")
	}
	for _, c := range []Confidence{ConfidenceRule, ConfidenceAI, ConfidenceUser} {
		txn.Confidence = c
		if !txn.Categorized() {
			t.Errorf("confidence %s should count as categorized", c)
		}
	}
}
