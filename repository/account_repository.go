package repository

import (
	"ben-bank-api/logger"
	"ben-bank-api/model"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const accountColumns = `id, number, owner_id, balance, pin_hash, account_type, transaction_ids, created_at`

// IAccountRepository defines the contract for account database operations.
type IAccountRepository interface {
	CreateAccount(ctx context.Context, tx *sql.Tx, account *model.Account) error
	ExistsByNumber(ctx context.Context, tx *sql.Tx, number int64) (bool, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetAccountByNumber(ctx context.Context, tx *sql.Tx, number int64) (*model.Account, error)
	GetAccountForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Account, error)
	UpdateAccountLedger(ctx context.Context, tx *sql.Tx, account *model.Account) error
}

type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

// CreateAccount inserts a new account row inside tx.
func (r *AccountRepository) CreateAccount(ctx context.Context, tx *sql.Tx, account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":     account.ID,
		"owner_id":       account.OwnerID,
		"account_number": account.Number,
		"account_type":   account.AccountType,
	})
	log.Info("Executing query to create a new account")

	query := `INSERT INTO accounts (id, number, owner_id, balance, pin_hash, account_type, transaction_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := tx.ExecContext(ctx, query,
		account.ID, account.Number, account.OwnerID, account.Balance,
		account.PinHash, account.AccountType, pq.Array(idStrings(account.Transactions)), account.CreatedAt,
	)
	if err != nil {
		log.WithError(err).Error("Failed to execute create account query")
		return translateError(err)
	}
	return nil
}

// ExistsByNumber reports whether an account already uses number.
func (r *AccountRepository) ExistsByNumber(ctx context.Context, tx *sql.Tx, number int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE number = $1)`
	if err := tx.QueryRowContext(ctx, query, number).Scan(&exists); err != nil {
		logger.Log.WithError(err).WithField("account_number", number).Error("Failed to check account number")
		return false, err
	}
	return exists, nil
}

// GetAccountByID reads an account outside of any transaction.
func (r *AccountRepository) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	log := logger.Log.WithField("account_id", id)
	log.Debug("Executing query to get account by ID")

	row := r.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.WithError(err).Error("Failed to execute get account by ID query")
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) GetAccountByNumber(ctx context.Context, tx *sql.Tx, number int64) (*model.Account, error) {
	log := logger.Log.WithField("account_number", number)
	log.Debug("Executing query to get account by number")

	row := tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number = $1`, number)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.WithError(err).Error("Failed to execute get account by number query")
		return nil, err
	}
	return account, nil
}

// GetAccountForUpdate reads an account and holds its row lock until tx ends.
func (r *AccountRepository) GetAccountForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Account, error) {
	log := logger.Log.WithField("account_id", id)
	log.Info("Executing query to get account for update")

	row := tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("Account not found for update")
			return nil, ErrNotFound
		}
		log.WithError(err).Error("Failed to execute get account for update query")
		return nil, err
	}
	return account, nil
}

// UpdateAccountLedger persists the balance and transaction list of account.
func (r *AccountRepository) UpdateAccountLedger(ctx context.Context, tx *sql.Tx, account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  account.ID,
		"new_balance": account.Balance.String(),
	})
	log.Info("Executing query to update account balance")

	query := `UPDATE accounts SET balance = $1, transaction_ids = $2 WHERE id = $3`
	res, err := tx.ExecContext(ctx, query, account.Balance, pq.Array(idStrings(account.Transactions)), account.ID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update account balance query")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(s scanner) (*model.Account, error) {
	var (
		acc model.Account
		ids pq.StringArray
	)
	err := s.Scan(&acc.ID, &acc.Number, &acc.OwnerID, &acc.Balance, &acc.PinHash, &acc.AccountType, &ids, &acc.CreatedAt)
	if err != nil {
		return nil, err
	}
	acc.Transactions, err = parseIDs(ids)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseIDs(ss []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid transaction id %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}
