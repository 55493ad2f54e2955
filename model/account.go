package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings AccountType = "SAVINGS"
	AccountTypeCurrent AccountType = "CURRENT"
)

// IsValid reports whether t is one of the supported account types.
func (t AccountType) IsValid() bool {
	return t == AccountTypeSavings || t == AccountTypeCurrent
}

type Account struct {
	ID           uuid.UUID       `json:"id"`
	Number       int64           `json:"number"`
	OwnerID      uuid.UUID       `json:"owner"`
	Balance      decimal.Decimal `json:"balance"`
	PinHash      string          `json:"-"` // bcrypt hash of the account PIN
	AccountType  AccountType     `json:"account_type"`
	Transactions []uuid.UUID     `json:"transactions"`
	CreatedAt    time.Time       `json:"created_at"`
}
