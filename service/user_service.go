package service

import (
	"ben-bank-api/logger"
	"ben-bank-api/mailer"
	"ben-bank-api/model"
	"ben-bank-api/repository"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Hasher hashes and verifies passwords. *AuthService satisfies it.
type Hasher interface {
	HashPassword(password string) (string, error)
	CheckPasswordHash(password, hash string) bool
}

// TokenIssuer issues access tokens. *AuthService satisfies it.
type TokenIssuer interface {
	GenerateJWT(userID uuid.UUID) (string, error)
}

// UserService handles registration, e-mail verification and credentials.
type UserService struct {
	userRepo repository.IUserRepository
	hasher   Hasher
	tokens   TokenIssuer
	mail     mailer.Mailer
	otp      func() (string, error)
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.IUserRepository, hasher Hasher, tokens TokenIssuer, mail mailer.Mailer) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		mail:     mail,
		otp:      generateOTP,
	}
}

// Register stores a new inactive user and mails them a verification code.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	hashed, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}
	otp, err := s.otp()
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        uuid.New(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     strings.ToLower(req.Email),
		Password:  hashed,
		OTP:       &otp,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	s.sendMail(ctx, user.Email, "Welcome to the Ben Bank",
		fmt.Sprintf("Hi %s %s, welcome to the Ben Bank.\n\nUse this code to verify your account: %s", user.FirstName, user.LastName, otp))

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// VerifyEmail activates the user when otp matches the code last mailed to them.
func (s *UserService) VerifyEmail(ctx context.Context, req model.VerifyEmailRequest) error {
	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if user.OTP == nil || *user.OTP != req.OTP {
		return ErrInvalidOTP
	}

	user.IsActive = true
	user.OTP = nil
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("could not activate user: %w", err)
	}
	return nil
}

// Login checks the credentials of a verified user and returns an access token.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (string, error) {
	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", ErrUserNotVerified
	}
	if !s.hasher.CheckPasswordHash(req.Password, user.Password) {
		logger.Log.WithField("user_id", user.ID).Warn("Login rejected: wrong password")
		return "", ErrInvalidCredentials
	}
	return s.tokens.GenerateJWT(user.ID)
}

// ForgotPassword issues a fresh OTP and mails it to the user.
func (s *UserService) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error {
	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	otp, err := s.otp()
	if err != nil {
		return err
	}
	user.OTP = &otp
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("could not store otp: %w", err)
	}

	s.sendMail(ctx, user.Email, "Ben Bank - Forgot Password",
		fmt.Sprintf("Hi %s %s, use this otp to reset your password: %s", user.FirstName, user.LastName, otp))
	return nil
}

// ResetPassword replaces the password when otp matches.
func (s *UserService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if user.OTP == nil || *user.OTP != req.OTP {
		return ErrInvalidOTP
	}

	hashed, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("could not hash password: %w", err)
	}
	user.Password = hashed
	user.OTP = nil
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("could not update password: %w", err)
	}
	return nil
}

func (s *UserService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}
	return user, nil
}

// sendMail delivers a message; a failure does not undo the calling operation.
func (s *UserService) sendMail(ctx context.Context, to, subject, body string) {
	if err := s.mail.Send(ctx, to, subject, body); err != nil {
		logger.Log.WithError(err).WithField("to", to).Error("Failed to send e-mail")
	}
}

// generateOTP returns a four digit code between 1000 and 9999.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("could not generate otp: %w", err)
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}
