package repository

import (
	"ben-bank-api/logger"
	"ben-bank-api/model"
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const historyColumns = `id, title, type, amount, description, account_id, created_at`

// ITransactionHistoryRepository defines the contract for transaction history database operations.
type ITransactionHistoryRepository interface {
	CreateTransaction(ctx context.Context, tx *sql.Tx, entry *model.TransactionHistory) error
	GetTransactionsByAccountID(ctx context.Context, accountID uuid.UUID) ([]*model.TransactionHistory, error)
}

// TransactionHistoryRepository implements ITransactionHistoryRepository.
type TransactionHistoryRepository struct {
	DB *sql.DB
}

func NewTransactionHistoryRepository(db *sql.DB) *TransactionHistoryRepository {
	return &TransactionHistoryRepository{DB: db}
}

func (r *TransactionHistoryRepository) CreateTransaction(ctx context.Context, tx *sql.Tx, entry *model.TransactionHistory) error {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": entry.ID,
		"account_id":     entry.AccountID,
		"title":          entry.Title,
		"type":           entry.Type,
		"amount":         entry.Amount.String(),
	})
	log.Info("Executing query to create a new transaction history entry")

	query := `INSERT INTO transaction_histories (` + historyColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := tx.ExecContext(ctx, query,
		entry.ID, entry.Title, entry.Type, entry.Amount, entry.Description, entry.AccountID, entry.CreatedAt,
	)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction history query")
		return translateError(err)
	}
	return nil
}

// GetTransactionsByAccountID returns every entry recorded against accountID, oldest first.
func (r *TransactionHistoryRepository) GetTransactionsByAccountID(ctx context.Context, accountID uuid.UUID) ([]*model.TransactionHistory, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get transactions by account ID")

	query := `SELECT ` + historyColumns + ` FROM transaction_histories
		WHERE account_id = $1
		ORDER BY created_at, id`

	rows, err := r.DB.QueryContext(ctx, query, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transactions by account ID")
		return nil, err
	}
	defer rows.Close()

	transactions := []*model.TransactionHistory{}
	for rows.Next() {
		var t model.TransactionHistory
		if err := rows.Scan(&t.ID, &t.Title, &t.Type, &t.Amount, &t.Description, &t.AccountID, &t.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan transaction history row")
			return nil, err
		}
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		log.WithError(err).Error("Failed to iterate transaction history rows")
		return nil, err
	}

	return transactions, nil
}
