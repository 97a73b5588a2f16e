package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies ledger entries. Amounts are signed: INVESTMENT
// and WITHDRAWAL are negative, the rest positive.
type TransactionType string

const (
	TxDeposit       TransactionType = "DEPOSIT"
	TxInvestment    TransactionType = "INVESTMENT"
	TxInterest      TransactionType = "INTEREST"
	TxCapitalReturn TransactionType = "CAPITAL_RETURN"
	TxWithdrawal    TransactionType = "WITHDRAWAL"
)

// TransactionStatus is the settlement state of a ledger entry. Only
// COMPLETED rows count towards a balance.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "PENDING"
	TxCompleted TransactionStatus = "COMPLETED"
	TxFailed    TransactionStatus = "FAILED"
)

// Transaction is an immutable, append-only ledger row. There is no stored
// balance anywhere: a user's balance is always the sum of their COMPLETED
// rows.
type Transaction struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	InvestmentID string            `json:"investment_id,omitempty"` // empty for plain deposits/withdrawals
	Type         TransactionType   `json:"type"`
	Amount       decimal.Decimal   `json:"amount"`
	Status       TransactionStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}

// TransactionFilter narrows a history query. Zero values mean "no filter".
type TransactionFilter struct {
	Type TransactionType
	From time.Time
	To   time.Time
}

// Matches reports whether t passes the filter.
func (f *TransactionFilter) Matches(t *Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && t.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.CreatedAt.Before(f.To) {
		return false
	}
	return true
}
