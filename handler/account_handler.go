package handler

import (
	"ben-bank-api/common"
	"ben-bank-api/logger"
	"ben-bank-api/model"
	"ben-bank-api/repository"
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AccountServicer is the ledger behaviour the account handlers depend on.
type AccountServicer interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, req model.CreateAccountRequest) (*model.Account, error)
	Deposit(ctx context.Context, callerID, accountID uuid.UUID, req model.DepositRequest) (*model.Account, error)
	Withdraw(ctx context.Context, callerID, accountID uuid.UUID, req model.WithdrawalRequest) error
	Transfer(ctx context.Context, callerID, accountID uuid.UUID, req model.TransferRequest) error
	GetBalance(ctx context.Context, callerID, accountID uuid.UUID) (decimal.Decimal, error)
	GetHistory(ctx context.Context, callerID, accountID uuid.UUID) ([]*model.TransactionHistory, error)
}

type AccountHandler struct {
	service AccountServicer
}

func NewAccountHandler(service AccountServicer) *AccountHandler {
	return &AccountHandler{service: service}
}

type AccountResponse struct {
	Account *model.Account `json:"account"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type HistoryResponse struct {
	Transactions []*model.TransactionHistory `json:"transactions"`
}

// CreateAccount godoc
// @Summary      Open a bank account
// @Description  Creates the single bank account of the authenticated user.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        account body model.CreateAccountRequest true "Account type and PIN"
// @Success      201  {object}  AccountResponse
// @Failure      400  {object}  common.AppError "Pins do not match, account exists or invalid type"
// @Failure      401  {object}  common.AppError "Invalid authentication credentials"
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := userIDFromContext(r.Context())
	if appErr != nil {
		return appErr
	}

	var req model.CreateAccountRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":      userID,
		"account_type": req.AccountType,
	}).Info("Create account request received")

	account, err := h.service.CreateAccount(r.Context(), userID, req)
	if err != nil {
		return ledgerError(err, http.StatusNotFound)
	}

	common.WriteJSON(w, http.StatusCreated, AccountResponse{Account: account})
	return nil
}

// Deposit godoc
// @Summary      Deposit money
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path string true "Account ID"
// @Param        deposit body model.DepositRequest true "Amount and description"
// @Success      200  {object}  AccountResponse
// @Failure      400  {object}  common.AppError "Invalid account ID or account not found"
// @Failure      401  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts/{accountId}/deposit [post]
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, accountID, appErr := callerAndAccount(r)
	if appErr != nil {
		return appErr
	}

	var req model.DepositRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	account, err := h.service.Deposit(r.Context(), userID, accountID, req)
	if err != nil {
		return ledgerError(err, http.StatusBadRequest)
	}

	common.WriteJSON(w, http.StatusOK, AccountResponse{Account: account})
	return nil
}

// GetBalance godoc
// @Summary      Account balance
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path string true "Account ID"
// @Success      200  {object}  BalanceResponse
// @Failure      400  {object}  common.AppError "Invalid account ID"
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/accounts/{accountId}/balance [get]
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, accountID, appErr := callerAndAccount(r)
	if appErr != nil {
		return appErr
	}

	balance, err := h.service.GetBalance(r.Context(), userID, accountID)
	if err != nil {
		return ledgerError(err, http.StatusNotFound)
	}

	common.WriteJSON(w, http.StatusOK, BalanceResponse{Balance: balance})
	return nil
}

// GetHistory godoc
// @Summary      Transaction history
// @Description  Lists every transaction recorded against the account, oldest first.
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path string true "Account ID"
// @Success      200  {object}  HistoryResponse
// @Failure      400  {object}  common.AppError "Invalid account ID"
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/accounts/{accountId}/history [get]
func (h *AccountHandler) GetHistory(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, accountID, appErr := callerAndAccount(r)
	if appErr != nil {
		return appErr
	}

	transactions, err := h.service.GetHistory(r.Context(), userID, accountID)
	if err != nil {
		return ledgerError(err, http.StatusNotFound)
	}

	common.WriteJSON(w, http.StatusOK, HistoryResponse{Transactions: transactions})
	return nil
}

// Withdraw godoc
// @Summary      Withdraw money
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path string true "Account ID"
// @Param        withdrawal body model.WithdrawalRequest true "Amount, description and PIN"
// @Success      200  {object}  model.MessageResponse
// @Failure      400  {object}  common.AppError "Insufficient funds or invalid pin"
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/accounts/{accountId}/withdrawal [post]
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, accountID, appErr := callerAndAccount(r)
	if appErr != nil {
		return appErr
	}

	var req model.WithdrawalRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	if err := h.service.Withdraw(r.Context(), userID, accountID, req); err != nil {
		return ledgerError(err, http.StatusNotFound)
	}

	common.WriteJSON(w, http.StatusOK, model.MessageResponse{Msg: "Withdrawal successful"})
	return nil
}

// Transfer godoc
// @Summary      Transfer money
// @Description  Moves money from the caller's account to another account identified by its number.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path string true "Sender account ID"
// @Param        transfer body model.TransferRequest true "Amount, description, PIN and receiver account number"
// @Success      200  {object}  model.MessageResponse
// @Failure      400  {object}  common.AppError "Insufficient funds or invalid pin"
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError "Sender or receiver account not found"
// @Router       /api/accounts/{accountId}/transfer [post]
func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, accountID, appErr := callerAndAccount(r)
	if appErr != nil {
		return appErr
	}

	var req model.TransferRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	if err := h.service.Transfer(r.Context(), userID, accountID, req); err != nil {
		return ledgerError(err, http.StatusNotFound)
	}

	common.WriteJSON(w, http.StatusOK, model.MessageResponse{Msg: "Transfer successful"})
	return nil
}

// callerAndAccount extracts the authenticated user and the {accountId} path value.
func callerAndAccount(r *http.Request) (uuid.UUID, uuid.UUID, *common.AppError) {
	userID, appErr := userIDFromContext(r.Context())
	if appErr != nil {
		return uuid.Nil, uuid.Nil, appErr
	}
	accountID, err := repository.ParseID(r.PathValue("accountId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, common.NewAppError(http.StatusBadRequest, "Invalid account ID", nil)
	}
	return userID, accountID, nil
}
