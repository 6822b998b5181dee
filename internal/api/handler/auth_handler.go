package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/milkmix/farm-backend/internal/api/metrics"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

// AuthHandler serves the public account lifecycle endpoints.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUp registers an account and mails a verification OTP.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Account details"
// @Success      201   {object}  signUpResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	acc, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	metrics.AuthOperationsTotal.WithLabelValues("register", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, signUpResponse{
		Message: "User registered. Please verify your email with the OTP sent",
		UserID:  acc.ID,
		Email:   acc.Email,
	})
}

// SignIn authenticates with email and password.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  signInResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	metrics.AuthOperationsTotal.WithLabelValues("login", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toSignInResponse(res))
}

// CreateOTP sends a fresh verification OTP to an unverified account.
//
// @Summary      Resend verification OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      otpCreateRequest  true  "user_id or email"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /otp/create [post]
func (h *AuthHandler) CreateOTP(c echo.Context) error {
	var req otpCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.authService.ResendOTP(c.Request().Context(), ports.OTPTarget{UserID: req.UserID, Email: req.Email})
	metrics.AuthOperationsTotal.WithLabelValues("otp_create", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: "OTP sent to your email"})
}

// VerifyOTP verifies an account and signs it in.
//
// @Summary      Verify account OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      otpVerifyRequest  true  "user_id and otp"
// @Success      200   {object}  otpVerifyResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /otp/verify [post]
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req otpVerifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.VerifyAccount(c.Request().Context(), req.UserID, req.OTP)
	metrics.AuthOperationsTotal.WithLabelValues("verify", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, otpVerifyResponse{
		Message:      "Email verified successfully",
		AccessToken:  res.Session.AccessToken,
		RefreshToken: res.Session.RefreshToken,
		EmailAddress: res.Account.Email,
		Role:         res.Account.Role,
		IsVerified:   res.Account.IsVerified,
		Profile:      toProfileResponse(res.Profile),
	})
}

// PasswordResetOTP mails a password reset OTP.
//
// @Summary      Request a password reset OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      passwordResetOTPRequest  true  "Account email"
// @Success      201   {object}  passwordResetOTPResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /password-reset-otp [post]
func (h *AuthHandler) PasswordResetOTP(c echo.Context) error {
	var req passwordResetOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID, err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email)
	metrics.AuthOperationsTotal.WithLabelValues("reset_request", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, passwordResetOTPResponse{
		Message: "OTP sent to your email",
		UserID:  userID,
	})
}

// ResetOTPVerify exchanges a reset OTP for a one-shot secret key.
//
// @Summary      Verify a password reset OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      otpVerifyRequest  true  "user_id and otp"
// @Success      200   {object}  resetOTPVerifyResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /reset/otp-verify [post]
func (h *AuthHandler) ResetOTPVerify(c echo.Context) error {
	var req otpVerifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	secret, err := h.authService.AuthorizeReset(c.Request().Context(), req.UserID, req.OTP)
	metrics.AuthOperationsTotal.WithLabelValues("reset_verify", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resetOTPVerifyResponse{
		Message:   "OTP verified successfully",
		SecretKey: secret,
		UserID:    req.UserID,
	})
}

// PasswordResetConfirm sets a new password using the secret key.
//
// @Summary      Confirm a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      passwordResetConfirmRequest  true  "Reset confirmation"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /password-reset/confirm [post]
func (h *AuthHandler) PasswordResetConfirm(c echo.Context) error {
	var req passwordResetConfirmRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.authService.CompleteReset(c.Request().Context(), req.UserID, req.SecretKey, req.NewPassword)
	metrics.AuthOperationsTotal.WithLabelValues("reset_confirm", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Password reset successful"})
}

// PasswordChange replaces the caller's password.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      passwordChangeRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /password-change [post]
func (h *AuthHandler) PasswordChange(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req passwordChangeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err = h.authService.ChangePassword(c.Request().Context(), actor.ID, req.CurrentPassword, req.NewPassword)
	metrics.AuthOperationsTotal.WithLabelValues("password_change", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

// Refresh issues a new access token.
//
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  refreshResponse
// @Failure      400   {object}  errorResponse
// @Router       /refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	access, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	metrics.AuthOperationsTotal.WithLabelValues("refresh", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, refreshResponse{AccessToken: access})
}
