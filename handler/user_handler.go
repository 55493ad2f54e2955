package handler

import (
	"ben-bank-api/common"
	"ben-bank-api/model"
	"context"
	"net/http"
)

// UserServicer is the identity behaviour the auth handlers depend on.
type UserServicer interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	VerifyEmail(ctx context.Context, req model.VerifyEmailRequest) error
	Login(ctx context.Context, req model.LoginRequest) (string, error)
	ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error
}

type UserHandler struct {
	service UserServicer
}

func NewUserHandler(service UserServicer) *UserHandler {
	return &UserHandler{service: service}
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates an inactive user and e-mails a verification code.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        user body model.RegisterRequest true "User details"
// @Success      201  {object}  model.MessageResponse
// @Failure      400  {object}  common.AppError
// @Failure      409  {object}  common.AppError "User already exists"
// @Failure      500  {object}  common.AppError
// @Router       /api/auth/register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	if _, err := h.service.Register(r.Context(), req); err != nil {
		return identityError(err)
	}

	common.WriteJSON(w, http.StatusCreated, model.MessageResponse{Msg: "User registered, check your e-mail for the verification code"})
	return nil
}

// VerifyEmail godoc
// @Summary      Verify e-mail address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        otp body model.VerifyEmailRequest true "E-mail and OTP"
// @Success      200  {object}  model.MessageResponse
// @Failure      400  {object}  common.AppError "OTP is incorrect"
// @Failure      404  {object}  common.AppError
// @Router       /api/auth/verify-email [post]
func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.VerifyEmailRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	if err := h.service.VerifyEmail(r.Context(), req); err != nil {
		return identityError(err)
	}

	common.WriteJSON(w, http.StatusOK, model.MessageResponse{Msg: "User verified"})
	return nil
}

// Login godoc
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials body model.LoginRequest true "E-mail and password"
// @Success      200  {object}  TokenResponse
// @Failure      401  {object}  common.AppError "Password is incorrect"
// @Failure      403  {object}  common.AppError "User is not verified"
// @Failure      404  {object}  common.AppError
// @Router       /api/auth/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	token, err := h.service.Login(r.Context(), req)
	if err != nil {
		return identityError(err)
	}

	common.WriteJSON(w, http.StatusOK, TokenResponse{Token: token})
	return nil
}

// ForgotPassword godoc
// @Summary      Request a password reset code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        email body model.ForgotPasswordRequest true "E-mail"
// @Success      200  {object}  model.MessageResponse
// @Failure      404  {object}  common.AppError
// @Router       /api/auth/forgot-password [post]
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ForgotPasswordRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	if err := h.service.ForgotPassword(r.Context(), req); err != nil {
		return identityError(err)
	}

	common.WriteJSON(w, http.StatusOK, model.MessageResponse{Msg: "Check your e-mail for the reset code"})
	return nil
}

// ResetPassword godoc
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        reset body model.ResetPasswordRequest true "E-mail, OTP and new password"
// @Success      200  {object}  model.MessageResponse
// @Failure      400  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/auth/reset-password [post]
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ResetPasswordRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		return identityError(err)
	}

	common.WriteJSON(w, http.StatusOK, model.MessageResponse{Msg: "Password reset successful"})
	return nil
}
