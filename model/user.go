// file: model/user.go

package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered customer. AccountID is set once, when the user opens
// their only bank account.
type User struct {
	ID        uuid.UUID  `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	OTP       *string    `json:"-"`
	IsActive  bool       `json:"is_active"`
	AccountID *uuid.UUID `json:"account,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// HasAccount reports whether the user already owns a bank account.
func (u *User) HasAccount() bool {
	return u.AccountID != nil
}
