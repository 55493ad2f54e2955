package handler

import (
	"ben-bank-api/common"
	"ben-bank-api/repository"
	"ben-bank-api/service"
	"errors"
	"net/http"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// ledgerError maps an account service error onto a response. notFound is the
// status reported for a missing account, which differs between operations.
func ledgerError(err error, notFound int) *common.AppError {
	switch {
	case errors.Is(err, service.ErrPinMismatch):
		return common.NewAppError(http.StatusBadRequest, "Pins do not match", nil)
	case errors.Is(err, service.ErrAccountExists):
		return common.NewAppError(http.StatusBadRequest, "You already have a bank account", nil)
	case errors.Is(err, service.ErrInvalidAccountType):
		return common.NewAppError(http.StatusBadRequest, "Invalid account type", nil)
	case errors.Is(err, service.ErrInvalidAmount):
		return common.NewAppError(http.StatusBadRequest, "Amount must be greater than zero with at most two decimal places", nil)
	case errors.Is(err, service.ErrInsufficientFunds):
		return common.NewAppError(http.StatusBadRequest, "Insufficient funds", nil)
	case errors.Is(err, service.ErrInvalidPin):
		return common.NewAppError(http.StatusBadRequest, "Invalid pin", nil)
	case errors.Is(err, repository.ErrMalformedID):
		return common.NewAppError(http.StatusBadRequest, "Invalid account ID", nil)
	case errors.Is(err, service.ErrUserNotFound):
		return common.NewAppError(http.StatusUnauthorized, "Invalid authentication credentials", nil)
	case errors.Is(err, service.ErrPermissionDenied):
		return common.NewAppError(http.StatusUnauthorized, "Unauthorized", nil)
	case errors.Is(err, service.ErrAccountNotFound):
		return common.NewAppError(notFound, "Bank Account not found", nil)
	case errors.Is(err, service.ErrReceiverNotFound):
		return common.NewAppError(http.StatusNotFound, "Invalid receiver account number", nil)
	case errors.Is(err, service.ErrAccountNumberExhausted):
		return common.NewAppError(http.StatusConflict, "Could not allocate an account number, please retry", err)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Server error", err)
	}
}

// identityError maps a user service error onto a response.
func identityError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrPasswordMismatch):
		return common.NewAppError(http.StatusBadRequest, "Passwords do not match", nil)
	case errors.Is(err, service.ErrInvalidOTP):
		return common.NewAppError(http.StatusBadRequest, "OTP is incorrect", nil)
	case errors.Is(err, service.ErrUserExists):
		return common.NewAppError(http.StatusConflict, "User already exists", nil)
	case errors.Is(err, service.ErrUserNotFound):
		return common.NewAppError(http.StatusNotFound, "User does not exist", nil)
	case errors.Is(err, service.ErrUserNotVerified):
		return common.NewAppError(http.StatusForbidden, "User is not verified", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return common.NewAppError(http.StatusUnauthorized, "Password is incorrect", nil)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Server error", err)
	}
}
