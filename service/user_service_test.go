// service/user_service_test.go
package service

import (
	"ben-bank-api/model"
	"ben-bank-api/repository"
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Unused methods that are required to satisfy the interface contract ---
func (m *mockUserRepo) GetUserForUpdate(context.Context, *sql.Tx, uuid.UUID) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) LinkAccount(context.Context, *sql.Tx, uuid.UUID, uuid.UUID) error { return nil }

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func newTestUserService(repo *mockUserRepo, mail *mockMailer) *UserService {
	auth := NewAuthService("secret", time.Hour, bcrypt.MinCost)
	svc := NewUserService(repo, auth, auth, mail)
	svc.otp = func() (string, error) { return "4821", nil }
	return svc
}

func fakeRegisterRequest() model.RegisterRequest {
	password := gofakeit.Password(true, true, true, false, false, 10)
	return model.RegisterRequest{
		FirstName:       gofakeit.FirstName(),
		LastName:        gofakeit.LastName(),
		Email:           gofakeit.Email(),
		Password:        password,
		ConfirmPassword: password,
	}
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, mail := new(mockUserRepo), new(mockMailer)
		req := fakeRegisterRequest()
		req.Email = strings.ToUpper(req.Email)

		repo.On("CreateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
			return u.Email == strings.ToLower(req.Email) &&
				!u.IsActive &&
				u.OTP != nil && *u.OTP == "4821" &&
				bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) == nil
		})).Return(nil).Once()
		mail.On("Send", ctx, strings.ToLower(req.Email), "Welcome to the Ben Bank", mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "4821")
		})).Return(nil).Once()

		user, err := newTestUserService(repo, mail).Register(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, req.FirstName, user.FirstName)
		repo.AssertExpectations(t)
		mail.AssertExpectations(t)
	})

	t.Run("password mismatch", func(t *testing.T) {
		repo, mail := new(mockUserRepo), new(mockMailer)
		req := fakeRegisterRequest()
		req.ConfirmPassword = req.Password + "x"

		_, err := newTestUserService(repo, mail).Register(ctx, req)

		assert.ErrorIs(t, err, ErrPasswordMismatch)
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo, mail := new(mockUserRepo), new(mockMailer)
		repo.On("CreateUser", ctx, mock.Anything).Return(repository.ErrDuplicate).Once()

		_, err := newTestUserService(repo, mail).Register(ctx, fakeRegisterRequest())

		assert.ErrorIs(t, err, ErrUserExists)
		mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mail failure does not fail registration", func(t *testing.T) {
		repo, mail := new(mockUserRepo), new(mockMailer)
		repo.On("CreateUser", ctx, mock.Anything).Return(nil).Once()
		mail.On("Send", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

		_, err := newTestUserService(repo, mail).Register(ctx, fakeRegisterRequest())

		assert.NoError(t, err)
	})
}

func TestUserService_VerifyEmail(t *testing.T) {
	ctx := context.Background()
	email := strings.ToLower(gofakeit.Email())
	otp := "4821"

	t.Run("activates the user and clears the otp", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUserByEmail", ctx, email).Return(&model.User{ID: uuid.New(), Email: email, OTP: &otp}, nil).Once()
		repo.On("UpdateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
			return u.IsActive && u.OTP == nil
		})).Return(nil).Once()

		err := newTestUserService(repo, new(mockMailer)).VerifyEmail(ctx, model.VerifyEmailRequest{Email: email, OTP: otp})

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("wrong otp", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUserByEmail", ctx, email).Return(&model.User{ID: uuid.New(), Email: email, OTP: &otp}, nil).Once()

		err := newTestUserService(repo, new(mockMailer)).VerifyEmail(ctx, model.VerifyEmailRequest{Email: email, OTP: "1111"})

		assert.ErrorIs(t, err, ErrInvalidOTP)
		repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})

	t.Run("no pending otp", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUserByEmail", ctx, email).Return(&model.User{ID: uuid.New(), Email: email, IsActive: true}, nil).Once()

		err := newTestUserService(repo, new(mockMailer)).VerifyEmail(ctx, model.VerifyEmailRequest{Email: email, OTP: otp})

		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUserByEmail", ctx, email).Return(nil, repository.ErrNotFound).Once()

		err := newTestUserService(repo, new(mockMailer)).VerifyEmail(ctx, model.VerifyEmailRequest{Email: email, OTP: otp})

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	email := strings.ToLower(gofakeit.Email())
	password := "s3cret-pass"

	t.Run("returns a token for the user", func(t *testing.T) {
		repo := new(mockUserRepo)
		user := &model.User{ID: uuid.New(), Email: email, Password: hashed(t, password), IsActive: true}
		repo.On("GetUserByEmail", ctx, email).Return(user, nil).Once()
		svc := newTestUserService(repo, new(mockMailer))

		token, err := svc.Login(ctx, model.LoginRequest{Email: strings.ToUpper(email), Password: password})

		require.NoError(t, err)
		parsed, err := NewAuthService("secret", time.Hour, bcrypt.MinCost).ParseJWT(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, parsed)
	})

	t.Run("unverified user", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUserByEmail", ctx, email).Return(&model.User{ID: uuid.New(), Password: hashed(t, password)}, nil).Once()

		_, err := newTestUserService(repo, new(mockMailer)).Login(ctx, model.LoginRequest{Email: email, Password: password})

		assert.ErrorIs(t, err, ErrUserNotVerified)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetUserByEmail", ctx, email).Return(&model.User{ID: uuid.New(), Password: hashed(t, password), IsActive: true}, nil).Once()

		_, err := newTestUserService(repo, new(mockMailer)).Login(ctx, model.LoginRequest{Email: email, Password: "wrong-pass"})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(mockUserRepo)
		expectedError := errors.New("database error")
		repo.On("GetUserByEmail", ctx, email).Return(nil, expectedError).Once()

		_, err := newTestUserService(repo, new(mockMailer)).Login(ctx, model.LoginRequest{Email: email, Password: password})

		assert.ErrorIs(t, err, expectedError)
	})
}

func TestUserService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	email := strings.ToLower(gofakeit.Email())

	t.Run("forgot password stores and mails a new otp", func(t *testing.T) {
		repo, mail := new(mockUserRepo), new(mockMailer)
		repo.On("GetUserByEmail", ctx, email).Return(&model.User{ID: uuid.New(), Email: email}, nil).Once()
		repo.On("UpdateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
			return u.OTP != nil && *u.OTP == "4821"
		})).Return(nil).Once()
		mail.On("Send", ctx, email, "Ben Bank - Forgot Password", mock.Anything).Return(nil).Once()

		err := newTestUserService(repo, mail).ForgotPassword(ctx, model.ForgotPasswordRequest{Email: email})

		assert.NoError(t, err)
		repo.AssertExpectations(t)
		mail.AssertExpectations(t)
	})

	t.Run("reset replaces the password", func(t *testing.T) {
		repo := new(mockUserRepo)
		otp := "4821"
		repo.On("GetUserByEmail", ctx, email).Return(&model.User{ID: uuid.New(), Email: email, Password: hashed(t, "old-pass"), OTP: &otp}, nil).Once()
		repo.On("UpdateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
			return u.OTP == nil && bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("new-pass")) == nil
		})).Return(nil).Once()

		err := newTestUserService(repo, new(mockMailer)).ResetPassword(ctx, model.ResetPasswordRequest{
			Email: email, OTP: otp, Password: "new-pass", ConfirmPassword: "new-pass",
		})

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("reset with wrong otp", func(t *testing.T) {
		repo := new(mockUserRepo)
		otp := "4821"
		repo.On("GetUserByEmail", ctx, email).Return(&model.User{ID: uuid.New(), Email: email, OTP: &otp}, nil).Once()

		err := newTestUserService(repo, new(mockMailer)).ResetPassword(ctx, model.ResetPasswordRequest{
			Email: email, OTP: "0000", Password: "new-pass", ConfirmPassword: "new-pass",
		})

		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("reset with mismatching passwords", func(t *testing.T) {
		repo := new(mockUserRepo)

		err := newTestUserService(repo, new(mockMailer)).ResetPassword(ctx, model.ResetPasswordRequest{
			Email: email, OTP: "4821", Password: "new-pass", ConfirmPassword: "other-pass",
		})

		assert.ErrorIs(t, err, ErrPasswordMismatch)
		repo.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 200; i++ {
		otp, err := generateOTP()
		require.NoError(t, err)
		n, err := strconv.Atoi(otp)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1000)
		assert.LessOrEqual(t, n, 9999)
	}
}
