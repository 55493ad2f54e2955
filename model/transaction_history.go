package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionTitle string

const (
	TitleDeposit    TransactionTitle = "DEPOSIT"
	TitleWithdrawal TransactionTitle = "WITHDRAWAL"
	TitleTransfer   TransactionTitle = "TRANSFER"
)

// TransactionType is the direction of the balance change recorded by an entry.
type TransactionType string

const (
	TypeCredit TransactionType = "CREDIT"
	TypeDebit  TransactionType = "DEBIT"
)

// TransactionHistory is an immutable record of one balance change on one account.
// A transfer produces two of them, one per side.
type TransactionHistory struct {
	ID          uuid.UUID        `json:"id"`
	Title       TransactionTitle `json:"title"`
	Type        TransactionType  `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description,omitempty"`
	AccountID   uuid.UUID        `json:"account"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewTransactionHistory builds an entry with a fresh id, ready to be persisted.
func NewTransactionHistory(title TransactionTitle, typ TransactionType, amount decimal.Decimal, description string, accountID uuid.UUID) *TransactionHistory {
	return &TransactionHistory{
		ID:          uuid.New(),
		Title:       title,
		Type:        typ,
		Amount:      amount,
		Description: description,
		AccountID:   accountID,
		CreatedAt:   time.Now().UTC(),
	}
}
