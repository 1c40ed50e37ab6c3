package model

import "time"

// TransactionGroup labels which reconciliation section a transaction came from.
type TransactionGroup string

// Group label constants, in fixed report order.
const (
	GroupBankDebit     TransactionGroup = "bank_debit"
	GroupBankCredit    TransactionGroup = "bank_credit"
	GroupCompanyDebit  TransactionGroup = "company_debit"
	GroupCompanyCredit TransactionGroup = "company_credit"
)

// Groups returns all group labels in report order.
func Groups() []TransactionGroup {
	return []TransactionGroup{GroupBankDebit, GroupBankCredit, GroupCompanyDebit, GroupCompanyCredit}
}

// ReconciliationResult is the outcome of parsing and categorizing one report.
type ReconciliationResult struct {
	ParsedAt           time.Time
	Filename           string
	BankDebits         []*Transaction
	BankCredits        []*Transaction
	CompanyDebits      []*Transaction
	CompanyCredits     []*Transaction
	BankBalance        *float64
	ReconciledBalance  *float64
	CompanyBalance     *float64
	Difference         *float64
}

// Group returns the transactions for a single group label.
func (r *ReconciliationResult) Group(g TransactionGroup) []*Transaction {
	switch g {
	case GroupBankDebit:
		return r.BankDebits
	case GroupBankCredit:
		return r.BankCredits
	case GroupCompanyDebit:
		return r.CompanyDebits
	case GroupCompanyCredit:
		return r.CompanyCredits
	}
	return nil
}

// AppendToGroup adds a transaction to the named group.
func (r *ReconciliationResult) AppendToGroup(g TransactionGroup, txn *Transaction) {
	switch g {
	case GroupBankDebit:
		r.BankDebits = append(r.BankDebits, txn)
	case GroupBankCredit:
		r.BankCredits = append(r.BankCredits, txn)
	case GroupCompanyDebit:
		r.CompanyDebits = append(r.CompanyDebits, txn)
	case GroupCompanyCredit:
		r.CompanyCredits = append(r.CompanyCredits, txn)
	}
}

// AllTransactions concatenates the four groups in fixed report order.
func (r *ReconciliationResult) AllTransactions() []*Transaction {
	all := make([]*Transaction, 0,
		len(r.BankDebits)+len(r.BankCredits)+len(r.CompanyDebits)+len(r.CompanyCredits))
	all = append(all, r.BankDebits...)
	all = append(all, r.BankCredits...)
	all = append(all, r.CompanyDebits...)
	all = append(all, r.CompanyCredits...)
	return all
}

// Uncategorized returns every transaction still at ConfidenceUnknown. This is
// the single definition of "pending review", used both after the automated
// passes and when reloading a persisted session.
func (r *ReconciliationResult) Uncategorized() []*Transaction {
	var out []*Transaction
	for _, txn := range r.AllTransactions() {
		if !txn.Categorized() {
			out = append(out, txn)
		}
	}
	return out
}

// Categorized returns every transaction tagged by any classification stage.
func (r *ReconciliationResult) Categorized() []*Transaction {
	var out []*Transaction
	for _, txn := range r.AllTransactions() {
		if txn.Categorized() {
			out = append(out, txn)
		}
	}
	return out
}
