package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNotFound               = errors.New("record not found")
	ErrMalformedID            = errors.New("malformed id")
	ErrDuplicate              = errors.New("duplicate record")
	ErrDuplicateAccountNumber = errors.New("duplicate account number")
)

const (
	uniqueViolation          = "23505"
	accountsNumberConstraint = "accounts_number_key"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ParseID parses a textual record id. Anything that is not a UUID yields
// ErrMalformedID so callers can tell a bad id from a missing record.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrMalformedID, s)
	}
	return id, nil
}

// translateError maps driver errors onto the repository error set.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == accountsNumberConstraint {
			return fmt.Errorf("%w: %s", ErrDuplicateAccountNumber, pqErr.Message)
		}
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Message)
	}
	return err
}
