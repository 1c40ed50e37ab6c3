package parse

import (
	"testing"

	"github.com/cmlopes/contaflow/internal/model"
)

func TestDetectSection(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Section
	}{
		{name: "statement balance", line: "1 - Saldo do extrato bancario", want: SectionStatementBalance},
		{name: "bank debits", line: "2 - Movimentos a debito no banco nao contabilizados", want: SectionBankDebits},
		{name: "bank debits accented", line: "2 - Movimentos a débito no banco não contabilizados", want: SectionBankDebits},
		{name: "bank credits", line: "3 - MOVIMENTOS A CRÉDITO NO BANCO", want: SectionBankCredits},
		{name: "company debits", line: "4 - Movimentos a debito pela empresa", want: SectionCompanyDebits},
		{name: "company credits", line: "5 - Movimentos a crédito pela empresa", want: SectionCompanyCredits},
		{name: "reconciled balance", line: "6 - Saldo do banco reconciliado (1+2-3+4-5) 4.500,00", want: SectionReconciledBalance},
		{name: "company balance", line: "7 - Saldo da conta corrente (7) 4.500,00", want: SectionCompanyBalance},
		{name: "difference", line: "8 - Diferença (6-3) 0,00", want: SectionDifference},
		{name: "spacing variants", line: "2- Movimentos a debito no banco", want: SectionBankDebits},
		{name: "plain text", line: "2025-03-05 PAGAMENTO GALP", want: SectionNone},
		{name: "empty", line: "", want: SectionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectSection(tt.line); got != tt.want {
				t.Errorf("DetectSection(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestSection_Direction(t *testing.T) {
	if SectionBankDebits.Direction() != model.DirectionDebit {
		t.Error("section 2 should be debit")
	}
	if SectionCompanyDebits.Direction() != model.DirectionDebit {
		t.Error("section 4 should be debit")
	}
	if SectionBankCredits.Direction() != model.DirectionCredit {
		t.Error("section 3 should be credit")
	}
	if SectionCompanyCredits.Direction() != model.DirectionCredit {
		t.Error("section 5 should be credit")
	}
}

func TestSection_Predicates(t *testing.T) {
	movements := []Section{SectionBankDebits, SectionBankCredits, SectionCompanyDebits, SectionCompanyCredits}
	for _, s := range movements {
		if !s.IsMovement() {
			t.Errorf("section %d should be a movement section", s)
		}
		if s.IsBalance() {
			t.Errorf("section %d should not be a balance section", s)
		}
		if s.Group() == "" {
			t.Errorf("section %d should map to a group", s)
		}
	}

	balances := []Section{SectionStatementBalance, SectionReconciledBalance, SectionCompanyBalance, SectionDifference}
	for _, s := range balances {
		if s.IsMovement() {
			t.Errorf("section %d should not be a movement section", s)
		}
		if !s.IsBalance() {
			t.Errorf("section %d should be a balance section", s)
		}
	}
}
