package parse

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cmlopes/contaflow/internal/model"
)

// Section identifies one of the eight numbered blocks of a TOConline
// reconciliation report.
type Section int

// Report sections, in document order.
const (
	SectionNone              Section = 0
	SectionStatementBalance  Section = 1
	SectionBankDebits        Section = 2
	SectionBankCredits       Section = 3
	SectionCompanyDebits     Section = 4
	SectionCompanyCredits    Section = 5
	SectionReconciledBalance Section = 6
	SectionCompanyBalance    Section = 7
	SectionDifference        Section = 8
)

// Header patterns are matched against accent-folded, lowercased text, so they
// cover both "débito" and "debito" spellings.
var sectionPatterns = map[Section]*regexp.Regexp{
	SectionStatementBalance:  regexp.MustCompile(`1\s*-\s*saldo do extrato`),
	SectionBankDebits:        regexp.MustCompile(`2\s*-\s*movimentos a debito no banco`),
	SectionBankCredits:       regexp.MustCompile(`3\s*-\s*movimentos a credito no banco`),
	SectionCompanyDebits:     regexp.MustCompile(`4\s*-\s*movimentos a debito pela empresa`),
	SectionCompanyCredits:    regexp.MustCompile(`5\s*-\s*movimentos a credito pela empresa`),
	SectionReconciledBalance: regexp.MustCompile(`6\s*-\s*saldo do banco reconciliado`),
	SectionCompanyBalance:    regexp.MustCompile(`7\s*-\s*saldo da conta corrente`),
	SectionDifference:        regexp.MustCompile(`8\s*-\s*diferenca`),
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText lowercases and strips diacritics so header detection is
// accent-insensitive.
func foldText(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// DetectSection reports which section header, if any, a line of text is.
func DetectSection(text string) Section {
	text = strings.TrimSpace(text)
	if text == "" {
		return SectionNone
	}
	folded := foldText(text)
	for section, pattern := range sectionPatterns {
		if pattern.MatchString(folded) {
			return section
		}
	}
	return SectionNone
}

// IsMovement reports whether the section holds transaction rows.
func (s Section) IsMovement() bool {
	return s >= SectionBankDebits && s <= SectionCompanyCredits
}

// IsBalance reports whether the section header carries a balance figure.
func (s Section) IsBalance() bool {
	switch s {
	case SectionStatementBalance, SectionReconciledBalance, SectionCompanyBalance, SectionDifference:
		return true
	}
	return false
}

// Direction returns the flow for a movement section. Bank and company debit
// sections are debits; the credit sections are credits.
func (s Section) Direction() model.Direction {
	if s == SectionBankDebits || s == SectionCompanyDebits {
		return model.DirectionDebit
	}
	return model.DirectionCredit
}

// Group maps a movement section to its persisted group label.
func (s Section) Group() model.TransactionGroup {
	switch s {
	case SectionBankDebits:
		return model.GroupBankDebit
	case SectionBankCredits:
		return model.GroupBankCredit
	case SectionCompanyDebits:
		return model.GroupCompanyDebit
	case SectionCompanyCredits:
		return model.GroupCompanyCredit
	}
	return ""
}
