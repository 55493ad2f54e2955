// file: service/account_service.go

package service

import (
	"ben-bank-api/logger"
	"ben-bank-api/model"
	"ben-bank-api/repository"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const defaultAccountCacheTTL = 10 * time.Minute

// AccountOptions tunes AccountService. Zero values pick sensible defaults.
type AccountOptions struct {
	// Cache holds account owners for the history read path. Nil disables caching.
	Cache ICacheClient
	// CacheTTL is how long an owner entry stays cached.
	CacheTTL time.Duration
	// NumberRetries bounds extra attempts when an account number collides.
	NumberRetries uint64
	// GenerateNumber overrides RandomAccountNumber.
	GenerateNumber NumberGenerator
	// PinCost is the bcrypt cost used for account PINs.
	PinCost int
}

// AccountService owns account creation and every balance-mutating operation.
// Each mutation runs in one SQL transaction with the touched accounts locked.
type AccountService struct {
	db          *sql.DB
	accountRepo repository.IAccountRepository
	historyRepo repository.ITransactionHistoryRepository
	userRepo    repository.IUserRepository
	cache       ICacheClient
	cacheTTL    time.Duration
	retries     uint64
	generate    NumberGenerator
	pinCost     int
	hashPin     func(pin []byte, cost int) ([]byte, error)
}

func NewAccountService(db *sql.DB, accountRepo repository.IAccountRepository, historyRepo repository.ITransactionHistoryRepository, userRepo repository.IUserRepository, opts AccountOptions) *AccountService {
	s := &AccountService{
		db:          db,
		accountRepo: accountRepo,
		historyRepo: historyRepo,
		userRepo:    userRepo,
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
		retries:     opts.NumberRetries,
		generate:    opts.GenerateNumber,
		pinCost:     opts.PinCost,
		hashPin:     bcrypt.GenerateFromPassword,
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultAccountCacheTTL
	}
	if s.generate == nil {
		s.generate = RandomAccountNumber
	}
	if s.pinCost == 0 {
		s.pinCost = bcrypt.DefaultCost
	}
	return s
}

// CreateAccount opens the only bank account of userID.
func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, req model.CreateAccountRequest) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":      userID,
		"account_type": req.AccountType,
	})

	if req.Pin != req.ConfirmPin {
		return nil, ErrPinMismatch
	}

	accountType := req.AccountType
	if accountType == "" {
		accountType = model.AccountTypeSavings
	}

	// Hashed at most once, and only after the user and type checks pass.
	pinHash := sync.OnceValues(func() ([]byte, error) {
		return s.hashPin([]byte(req.Pin), s.pinCost)
	})

	var account *model.Account
	op := func() error {
		var err error
		account, err = s.createAccountTx(ctx, userID, accountType, pinHash)
		if errors.Is(err, repository.ErrDuplicateAccountNumber) {
			log.WithError(err).Warn("Account number collided on insert, retrying")
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	if err := backoff.Retry(op, retryPolicy(ctx, s.retries)); err != nil {
		if errors.Is(err, repository.ErrDuplicateAccountNumber) {
			return nil, ErrAccountNumberExhausted
		}
		return nil, err
	}

	log.WithField("account_id", account.ID).Info("Bank account created")
	return account, nil
}

func (s *AccountService) createAccountTx(ctx context.Context, userID uuid.UUID, accountType model.AccountType, pinHash func() ([]byte, error)) (*model.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := s.userRepo.GetUserForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}
	if user.HasAccount() {
		return nil, ErrAccountExists
	}
	if !accountType.IsValid() {
		return nil, ErrInvalidAccountType
	}
	hash, err := pinHash()
	if err != nil {
		return nil, fmt.Errorf("could not hash pin: %w", err)
	}

	number, err := s.allocateAccountNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		ID:           uuid.New(),
		Number:       number,
		OwnerID:      userID,
		Balance:      decimal.Zero,
		PinHash:      string(hash),
		AccountType:  accountType,
		Transactions: []uuid.UUID{},
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.accountRepo.CreateAccount(ctx, tx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateAccountNumber) {
			return nil, err
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("could not create account: %w", err)
	}

	if err := s.userRepo.LinkAccount(ctx, tx, userID, account.ID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("could not link account to user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}
	return account, nil
}

// allocateAccountNumber draws random numbers until one is unused.
func (s *AccountService) allocateAccountNumber(ctx context.Context, tx *sql.Tx) (int64, error) {
	var number int64
	op := func() error {
		candidate := s.generate()
		exists, err := s.accountRepo.ExistsByNumber(ctx, tx, candidate)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("could not check account number: %w", err))
		}
		if exists {
			return errNumberTaken
		}
		number = candidate
		return nil
	}
	if err := backoff.Retry(op, retryPolicy(ctx, s.retries)); err != nil {
		if errors.Is(err, errNumberTaken) {
			return 0, ErrAccountNumberExhausted
		}
		return 0, err
	}
	return number, nil
}

// Deposit credits amount to the caller's account and records a DEPOSIT entry.
func (s *AccountService) Deposit(ctx context.Context, callerID, accountID uuid.UUID, req model.DepositRequest) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    callerID,
		"account_id": accountID,
		"amount":     req.Amount.String(),
	})

	if !validAmount(req.Amount) {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	account, err := s.lockOwnedAccount(ctx, tx, callerID, accountID)
	if err != nil {
		return nil, err
	}

	entry := model.NewTransactionHistory(model.TitleDeposit, model.TypeCredit, req.Amount, req.Description, account.ID)
	if err := s.historyRepo.CreateTransaction(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("could not create transaction record: %w", err)
	}

	account.Balance = account.Balance.Add(req.Amount)
	account.Transactions = append(account.Transactions, entry.ID)
	if err := s.accountRepo.UpdateAccountLedger(ctx, tx, account); err != nil {
		return nil, fmt.Errorf("could not update account balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.WithField("balance", account.Balance.String()).Info("Deposit completed")
	return account, nil
}

// Withdraw debits amount from the caller's account. Funds are checked before
// the PIN, so an overdraft with a wrong PIN reports insufficient funds.
func (s *AccountService) Withdraw(ctx context.Context, callerID, accountID uuid.UUID, req model.WithdrawalRequest) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    callerID,
		"account_id": accountID,
		"amount":     req.Amount.String(),
	})

	if !validAmount(req.Amount) {
		return ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	account, err := s.lockOwnedAccount(ctx, tx, callerID, accountID)
	if err != nil {
		return err
	}
	if account.Balance.LessThan(req.Amount) {
		return ErrInsufficientFunds
	}
	if !pinMatches(account, req.Pin) {
		log.Warn("Withdrawal rejected: invalid pin")
		return ErrInvalidPin
	}

	account.Balance = account.Balance.Sub(req.Amount)
	entry := model.NewTransactionHistory(model.TitleWithdrawal, model.TypeDebit, req.Amount, req.Description, account.ID)
	if err := s.historyRepo.CreateTransaction(ctx, tx, entry); err != nil {
		return fmt.Errorf("could not create transaction record: %w", err)
	}
	account.Transactions = append(account.Transactions, entry.ID)
	if err := s.accountRepo.UpdateAccountLedger(ctx, tx, account); err != nil {
		return fmt.Errorf("could not update account balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	log.WithField("balance", account.Balance.String()).Info("Withdrawal completed")
	return nil
}

// Transfer moves amount from the caller's account to the account numbered
// req.AccountNumber, writing one CREDIT and one DEBIT entry. Checks run in
// the order: ownership, funds, receiver, pin.
func (s *AccountService) Transfer(ctx context.Context, callerID, accountID uuid.UUID, req model.TransferRequest) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":         callerID,
		"from_account_id": accountID,
		"to_account":      req.AccountNumber,
		"amount":          req.Amount.String(),
	})
	log.Info("Starting money transfer process")

	if !validAmount(req.Amount) {
		return ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Owner and number never change, so they can be resolved before locking.
	sender, err := s.ownedAccount(ctx, callerID, accountID)
	if err != nil {
		return err
	}
	receiver, err := s.accountRepo.GetAccountByNumber(ctx, tx, req.AccountNumber)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("could not load receiver account: %w", err)
	}

	ids := []uuid.UUID{sender.ID}
	if receiver != nil {
		ids = append(ids, receiver.ID)
	}
	locked, err := lockAccountsInOrder(ctx, tx, s.accountRepo, ids...)
	if err != nil {
		return err
	}
	sender = locked[sender.ID]

	if sender.Balance.LessThan(req.Amount) {
		return ErrInsufficientFunds
	}
	if receiver == nil {
		return ErrReceiverNotFound
	}
	receiver = locked[receiver.ID]
	if !pinMatches(sender, req.Pin) {
		log.Warn("Transfer rejected: invalid pin")
		return ErrInvalidPin
	}

	// A self-transfer locks one row; both sides then share the same pointer.
	sender.Balance = sender.Balance.Sub(req.Amount)
	receiver.Balance = receiver.Balance.Add(req.Amount)

	receiverEntry := model.NewTransactionHistory(model.TitleTransfer, model.TypeCredit, req.Amount, req.Description, receiver.ID)
	senderEntry := model.NewTransactionHistory(model.TitleTransfer, model.TypeDebit, req.Amount, req.Description, sender.ID)

	if err := s.historyRepo.CreateTransaction(ctx, tx, receiverEntry); err != nil {
		return fmt.Errorf("could not create receiver transaction record: %w", err)
	}
	if err := s.historyRepo.CreateTransaction(ctx, tx, senderEntry); err != nil {
		return fmt.Errorf("could not create sender transaction record: %w", err)
	}

	sender.Transactions = append(sender.Transactions, senderEntry.ID)
	receiver.Transactions = append(receiver.Transactions, receiverEntry.ID)

	if err := s.accountRepo.UpdateAccountLedger(ctx, tx, sender); err != nil {
		return fmt.Errorf("could not update sender balance: %w", err)
	}
	if receiver.ID != sender.ID {
		if err := s.accountRepo.UpdateAccountLedger(ctx, tx, receiver); err != nil {
			return fmt.Errorf("could not update receiver balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	log.Info("Transaction completed successfully")
	return nil
}

// GetBalance returns the current balance of the caller's account.
func (s *AccountService) GetBalance(ctx context.Context, callerID, accountID uuid.UUID) (decimal.Decimal, error) {
	account, err := s.ownedAccount(ctx, callerID, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// GetHistory returns every entry recorded against the caller's account, oldest first.
func (s *AccountService) GetHistory(ctx context.Context, callerID, accountID uuid.UUID) ([]*model.TransactionHistory, error) {
	if err := s.checkOwner(ctx, callerID, accountID); err != nil {
		return nil, err
	}

	transactions, err := s.historyRepo.GetTransactionsByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("could not load transactions: %w", err)
	}
	return transactions, nil
}

// ownedAccount reads the account row and checks that callerID owns it.
func (s *AccountService) ownedAccount(ctx context.Context, callerID, accountID uuid.UUID) (*model.Account, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("could not load account: %w", err)
	}
	if account.OwnerID != callerID {
		permissionDenied(callerID, accountID)
		return nil, ErrPermissionDenied
	}
	return account, nil
}

// checkOwner answers only the ownership question, through the cache when one
// is configured.
func (s *AccountService) checkOwner(ctx context.Context, callerID, accountID uuid.UUID) error {
	owner, err := s.cachedOwner(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("could not load account: %w", err)
	}
	if owner.OwnerID != callerID {
		permissionDenied(callerID, accountID)
		return ErrPermissionDenied
	}
	return nil
}

func permissionDenied(callerID, accountID uuid.UUID) {
	logger.Log.WithFields(logrus.Fields{
		"requesting_user_id": callerID,
		"target_account_id":  accountID,
	}).Warn("Permission denied for accessing account")
}

// lockOwnedAccount locks the account row inside tx and checks ownership.
func (s *AccountService) lockOwnedAccount(ctx context.Context, tx *sql.Tx, callerID, accountID uuid.UUID) (*model.Account, error) {
	account, err := s.accountRepo.GetAccountForUpdate(ctx, tx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("could not load account: %w", err)
	}
	if account.OwnerID != callerID {
		logger.Log.WithFields(logrus.Fields{
			"requesting_user_id": callerID,
			"target_account_id":  accountID,
		}).Warn("Permission denied for mutating account")
		return nil, ErrPermissionDenied
	}
	return account, nil
}

// accountOwner is the cached part of an account. Both fields are immutable,
// so a snapshot never goes stale and needs no invalidation.
type accountOwner struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"ownerId"`
}

func (s *AccountService) cachedOwner(ctx context.Context, accountID uuid.UUID) (*accountOwner, error) {
	if s.cache == nil {
		account, err := s.accountRepo.GetAccountByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		return &accountOwner{ID: account.ID, OwnerID: account.OwnerID}, nil
	}

	key := accountOwnerCacheKey(accountID)
	if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
		var owner accountOwner
		if err := json.Unmarshal([]byte(cached), &owner); err == nil {
			return &owner, nil
		}
	}

	account, err := s.accountRepo.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	owner := &accountOwner{ID: account.ID, OwnerID: account.OwnerID}

	if data, err := json.Marshal(owner); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
			logger.Log.WithError(err).WithField("key", key).Warn("Failed to cache account owner")
		}
	}
	return owner, nil
}

func accountOwnerCacheKey(id uuid.UUID) string {
	return "account-owner:" + id.String()
}

// validAmount reports whether d is positive and carries no fraction of a cent.
func validAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(2))
}

func pinMatches(account *model.Account, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(account.PinHash), []byte(pin)) == nil
}

// lockAccountsInOrder locks every distinct id in a fixed order so two
// transfers in opposite directions cannot deadlock.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts repository.IAccountRepository, ids ...uuid.UUID) (map[uuid.UUID]*model.Account, error) {
	sorted := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			sorted = append(sorted, id)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*model.Account, len(sorted))
	for _, id := range sorted {
		acct, err := accounts.GetAccountForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, fmt.Errorf("could not lock account %s: %w", id, err)
		}
		result[id] = acct
	}
	return result, nil
}
