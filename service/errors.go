package service

import "errors"

// Ledger errors. Handlers map them onto status codes with errors.Is.
var (
	ErrPinMismatch            = errors.New("pins do not match")
	ErrInvalidAccountType     = errors.New("invalid account type")
	ErrInvalidAmount          = errors.New("amount must be greater than zero in whole cents")
	ErrUserNotFound           = errors.New("user not found")
	ErrAccountExists          = errors.New("you already have a bank account")
	ErrAccountNumberExhausted = errors.New("could not allocate a unique account number")
	ErrAccountNotFound        = errors.New("bank account not found")
	ErrReceiverNotFound       = errors.New("invalid receiver account number")
	ErrPermissionDenied       = errors.New("unauthorized")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidPin             = errors.New("invalid pin")
)

// Identity errors.
var (
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidOTP         = errors.New("OTP is incorrect")
	ErrUserNotVerified    = errors.New("user is not verified")
	ErrInvalidCredentials = errors.New("password is incorrect")
	ErrInvalidToken       = errors.New("invalid token")
)
