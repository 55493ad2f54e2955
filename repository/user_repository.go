package repository

import (
	"ben-bank-api/logger"
	"ben-bank-api/model"
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const userColumns = `id, first_name, last_name, email, password, otp, is_active, account_id, created_at`

// IUserRepository defines the contract for user database operations.
type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	LinkAccount(ctx context.Context, tx *sql.Tx, userID, accountID uuid.UUID) error
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, first_name, last_name, email, password, otp, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.Password, user.OTP, user.IsActive, user.CreatedAt,
	)
	if err != nil {
		logger.Log.WithError(err).WithField("email", user.Email).Error("Failed to execute create user query")
		return translateError(err)
	}
	return nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserForUpdate locks the user row so concurrent account creation for the
// same user is serialised.
func (r *UserRepository) GetUserForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.User, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	return scanUser(row)
}

// UpdateUser saves the mutable credential fields of user.
func (r *UserRepository) UpdateUser(ctx context.Context, user *model.User) error {
	log := logger.Log.WithField("user_id", user.ID)
	log.Info("Executing query to update user")

	query := `UPDATE users SET password = $1, otp = $2, is_active = $3 WHERE id = $4`
	res, err := r.DB.ExecContext(ctx, query, user.Password, user.OTP, user.IsActive, user.ID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update user query")
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

// LinkAccount records accountID as the user's account. It only succeeds once
// per user; a second call reports ErrDuplicate.
func (r *UserRepository) LinkAccount(ctx context.Context, tx *sql.Tx, userID, accountID uuid.UUID) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": accountID,
	})
	log.Info("Executing query to link account to user")

	res, err := tx.ExecContext(ctx, `UPDATE users SET account_id = $1 WHERE id = $2 AND account_id IS NULL`, accountID, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute link account query")
		return translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u         model.User
		otp       sql.NullString
		accountID uuid.NullUUID
	)
	err := s.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &otp, &u.IsActive, &accountID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).Error("Failed to scan user row")
		return nil, err
	}
	if otp.Valid {
		u.OTP = &otp.String
	}
	if accountID.Valid {
		id := accountID.UUID
		u.AccountID = &id
	}
	return &u, nil
}
