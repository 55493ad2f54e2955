// file: model/request.go

package model

import "github.com/shopspring/decimal"

// RegisterRequest defines the payload for creating a new user.
type RegisterRequest struct {
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// VerifyEmailRequest carries the OTP mailed at registration.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric,len=4"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	OTP             string `json:"otp" validate:"required,numeric,len=4"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// CreateAccountRequest opens the caller's bank account. An empty account type
// means SAVINGS; the type itself is checked by the service so that an unknown
// value is reported as an invalid account type.
type CreateAccountRequest struct {
	AccountType AccountType `json:"accountType"`
	Pin         string      `json:"pin" validate:"required,numeric,min=4,max=6"`
	ConfirmPin  string      `json:"confirmPin" validate:"required"`
}

type DepositRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0,cents"`
	Description string          `json:"description" validate:"max=255"`
}

type WithdrawalRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0,cents"`
	Description string          `json:"description" validate:"max=255"`
	Pin         string          `json:"pin" validate:"required,numeric"`
}

type TransferRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required,gt=0,cents"`
	Description   string          `json:"description" validate:"max=255"`
	Pin           string          `json:"pin" validate:"required,numeric"`
	AccountNumber int64           `json:"accountNumber" validate:"required"`
}

// MessageResponse is the body of operations that only report success.
type MessageResponse struct {
	Msg string `json:"msg"`
}
