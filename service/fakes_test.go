package service

import (
	"ben-bank-api/model"
	"ben-bank-api/repository"
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memStore is an in-memory stand-in for the three repositories. Reads hand
// out copies so that a rejected operation can never leak a half-applied
// change into the store.
type memStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account
	users    map[uuid.UUID]*model.User
	entries  []*model.TransactionHistory
	calls    []string

	// Hooks tests use to force failures or collisions.
	numberTaken   func(int64) bool
	createAccount func(*model.Account) error
	getByID       int
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[uuid.UUID]*model.Account),
		users:    make(map[uuid.UUID]*model.User),
	}
}

func (s *memStore) record(call string) {
	s.calls = append(s.calls, call)
}

func copyAccount(a *model.Account) *model.Account {
	c := *a
	c.Transactions = append([]uuid.UUID(nil), a.Transactions...)
	return &c
}

func (s *memStore) CreateAccount(_ context.Context, _ *sql.Tx, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CreateAccount")
	if s.createAccount != nil {
		if err := s.createAccount(account); err != nil {
			return err
		}
	}
	s.accounts[account.ID] = copyAccount(account)
	return nil
}

func (s *memStore) ExistsByNumber(_ context.Context, _ *sql.Tx, number int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ExistsByNumber")
	if s.numberTaken != nil && s.numberTaken(number) {
		return true, nil
	}
	for _, a := range s.accounts {
		if a.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) GetAccountByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("GetAccountByID")
	s.getByID++
	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAccount(a), nil
}

func (s *memStore) GetAccountByNumber(_ context.Context, _ *sql.Tx, number int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("GetAccountByNumber")
	for _, a := range s.accounts {
		if a.Number == number {
			return copyAccount(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) GetAccountForUpdate(_ context.Context, _ *sql.Tx, id uuid.UUID) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("GetAccountForUpdate:" + id.String())
	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAccount(a), nil
}

func (s *memStore) UpdateAccountLedger(_ context.Context, _ *sql.Tx, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("UpdateAccountLedger:" + account.ID.String())
	if _, ok := s.accounts[account.ID]; !ok {
		return repository.ErrNotFound
	}
	s.accounts[account.ID] = copyAccount(account)
	return nil
}

func (s *memStore) CreateTransaction(_ context.Context, _ *sql.Tx, entry *model.TransactionHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CreateTransaction:" + entry.AccountID.String())
	c := *entry
	s.entries = append(s.entries, &c)
	return nil
}

func (s *memStore) GetTransactionsByAccountID(_ context.Context, accountID uuid.UUID) ([]*model.TransactionHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.TransactionHistory{}
	for _, e := range s.entries {
		if e.AccountID == accountID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) GetUserByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s *memStore) GetUserForUpdate(ctx context.Context, _ *sql.Tx, id uuid.UUID) (*model.User, error) {
	return s.GetUserByID(ctx, id)
}

func (s *memStore) UpdateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *memStore) LinkAccount(_ context.Context, _ *sql.Tx, userID, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("LinkAccount")
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	id := accountID
	u.AccountID = &id
	return nil
}

// addUser stores an active user with fake personal data.
func (s *memStore) addUser(t *testing.T) *model.User {
	t.Helper()
	user := &model.User{
		ID:        uuid.New(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
		IsActive:  true,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

// addAccount stores an account owned by owner with the given balance and pin.
func (s *memStore) addAccount(t *testing.T, owner uuid.UUID, number int64, balance string, pin string) *model.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	account := &model.Account{
		ID:           uuid.New(),
		Number:       number,
		OwnerID:      owner,
		Balance:      decimal.RequireFromString(balance),
		PinHash:      string(hash),
		AccountType:  model.AccountTypeSavings,
		Transactions: []uuid.UUID{},
	}
	s.mu.Lock()
	s.accounts[account.ID] = copyAccount(account)
	s.mu.Unlock()
	return account
}

func (s *memStore) account(id uuid.UUID) *model.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAccount(s.accounts[id])
}

func (s *memStore) resetCalls() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

// newTxDB returns a sqlmock-backed *sql.DB used only to open and close the
// transactions the service scopes its work in.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func newTestAccountService(t *testing.T, store *memStore, opts AccountOptions) (*AccountService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newTxDB(t)
	if opts.PinCost == 0 {
		opts.PinCost = bcrypt.MinCost
	}
	return NewAccountService(db, store, store, store, opts), mock
}
