package parse

import (
	"math"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "thousands and decimal comma", input: "1.000,29", want: 1000.29, ok: true},
		{name: "plain decimal comma", input: "123,45", want: 123.45, ok: true},
		{name: "integer", input: "42", want: 42, ok: true},
		{name: "large thousands", input: "1.234.567,89", want: 1234567.89, ok: true},
		{name: "leading minus", input: "-123,45", want: -123.45, ok: true},
		{name: "parenthesized negative", input: "(123,45)", want: -123.45, ok: true},
		{name: "currency noise", input: "1.000,29 EUR", want: 1000.29, ok: true},
		{name: "leading currency symbol", input: "€ 250,00", want: 250, ok: true},
		{name: "zero", input: "0,00", want: 0, ok: true},
		{name: "padded", input: "  99,90  ", want: 99.9, ok: true},
		{name: "empty", input: "", ok: false},
		{name: "whitespace only", input: "   ", ok: false},
		{name: "no digits", input: "abc", ok: false},
		{name: "lone separators", input: ",.", ok: false},
		{name: "interior minus", input: "12-30", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.input)
			if ok != tt.ok {
				t.Fatalf("Number(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if !tt.ok {
				return
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Number(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
