package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

const fieldRequired = "This field is required"

// AuthDeps groups the collaborators of AuthService.
type AuthDeps struct {
	Accounts    ports.AccountRepository
	Profiles    ports.ProfileRepository
	ProfileSvc  ports.ProfileService
	Credentials *CredentialService
	OTPs        *OTPService
	Sessions    ports.TokenIssuer
	Mailer      ports.Mailer
	Notifier    ports.Notifier
	Tx          ports.TxManager
	Policy      PasswordPolicy
}

// AuthService implements the account lifecycle.
type AuthService struct {
	accounts ports.AccountRepository
	profiles ports.ProfileRepository
	profSvc  ports.ProfileService
	creds    *CredentialService
	otps     *OTPService
	sessions ports.TokenIssuer
	mailer   ports.Mailer
	notifier ports.Notifier
	tx       ports.TxManager
	policy   PasswordPolicy
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(deps AuthDeps, log zerolog.Logger) *AuthService {
	policy := deps.Policy
	if policy.MinLength == 0 {
		policy = NewPasswordPolicy()
	}
	return &AuthService{
		accounts: deps.Accounts,
		profiles: deps.Profiles,
		profSvc:  deps.ProfileSvc,
		creds:    deps.Credentials,
		otps:     deps.OTPs,
		sessions: deps.Sessions,
		mailer:   deps.Mailer,
		notifier: deps.Notifier,
		tx:       deps.Tx,
		policy:   policy,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an unverified account with its profile and mails an OTP.
// A mail failure is returned but the account is kept; the client can ask for
// another code.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	verr := domain.NewValidationError()
	email := domain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	if email == "" {
		verr.Add("email", fieldRequired)
	}
	if in.Password == "" {
		verr.Add("password", fieldRequired)
	}
	if name == "" {
		verr.Add("name", fieldRequired)
	}
	role, ok := domain.ParseRole(in.Role)
	switch {
	case !ok:
		verr.Add("role", "Invalid role. Must be one of: user, farm, consultant")
	case role == domain.RoleAdmin:
		return nil, domain.ErrPrivilegedRole
	case !role.SelfRegistrable():
		verr.Add("role", "Farm users are created by their farm")
	}
	if in.Password != "" {
		mergeValidation(verr, s.policy.Check("password", in.Password, email))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var acc *domain.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		acc, err = s.creds.Create(ctx, NewAccount{
			Email:             email,
			Password:          in.Password,
			Role:              role,
			ReplaceUnverified: true,
		})
		if err != nil {
			return err
		}
		return s.profiles.Create(ctx, &domain.Profile{
			UserID:     acc.ID,
			Name:       name,
			JoinedDate: acc.CreatedAt,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("account_id", acc.ID).Str("role", string(role)).Msg("account registered")

	if err := s.sendOTP(ctx, acc.Email, domain.PurposeVerification); err != nil {
		return nil, err
	}
	return acc, nil
}

// ResendOTP issues a new verification code for an unverified account.
func (s *AuthService) ResendOTP(ctx context.Context, target ports.OTPTarget) error {
	var (
		acc *domain.Account
		err error
	)
	switch {
	case target.UserID != "":
		acc, err = s.accounts.FindByID(ctx, target.UserID)
	case target.Email != "":
		acc, err = s.accounts.FindByEmail(ctx, domain.NormalizeEmail(target.Email))
	default:
		return domain.FieldError("user_id", fieldRequired)
	}
	if err != nil {
		return err
	}
	if acc.IsVerified {
		return domain.ErrAlreadyVerified
	}
	return s.sendOTP(ctx, acc.Email, domain.PurposeVerification)
}

// VerifyAccount checks the code, marks the account verified and active, and
// logs the user in.
func (s *AuthService) VerifyAccount(ctx context.Context, userID, code string) (*domain.AuthResult, error) {
	if err := requireFields(map[string]string{"user_id": userID, "otp": code}); err != nil {
		return nil, err
	}

	acc, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acc.IsVerified {
		return nil, domain.ErrAlreadyVerified
	}
	if _, err := s.otps.Verify(ctx, acc.Email, code); err != nil {
		return nil, err
	}

	acc.IsVerified = true
	acc.IsActive = true
	acc.UpdatedAt = s.now()
	if err := s.accounts.Update(ctx, acc); err != nil {
		return nil, fmt.Errorf("activate account: %w", err)
	}
	if err := s.otps.Consume(ctx, acc.Email); err != nil {
		s.log.Warn().Err(err).Str("account_id", acc.ID).Msg("verified otp not deleted")
	}

	s.log.Info().Str("account_id", acc.ID).Msg("account verified")
	return s.startSession(ctx, acc)
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords fail the same way; inactive accounts fail with ErrAccountInactive.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if err := requireFields(map[string]string{"email": email, "password": password}); err != nil {
		return nil, err
	}

	acc, err := s.creds.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !acc.IsActive {
		return nil, domain.ErrAccountInactive
	}
	return s.startSession(ctx, acc)
}

// RequestPasswordReset mails a reset code to a verified account and returns its id.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return "", domain.FieldError("email", fieldRequired)
	}

	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !acc.IsVerified {
		return "", domain.ErrNotVerified
	}
	if err := s.sendOTP(ctx, acc.Email, domain.PurposePasswordReset); err != nil {
		return "", err
	}
	return acc.ID, nil
}

// AuthorizeReset checks the reset code and returns the secret needed by
// CompleteReset. The code record is kept until the reset completes.
func (s *AuthService) AuthorizeReset(ctx context.Context, userID, code string) (string, error) {
	if err := requireFields(map[string]string{"user_id": userID, "otp": code}); err != nil {
		return "", err
	}

	acc, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if _, err := s.otps.Verify(ctx, acc.Email, code); err != nil {
		return "", err
	}
	return s.otps.AttachSecret(ctx, acc.Email)
}

// CompleteReset sets a new password once secret matches the live code record.
func (s *AuthService) CompleteReset(ctx context.Context, userID, secret, newPassword string) error {
	if err := requireFields(map[string]string{
		"user_id":      userID,
		"secret_key":   secret,
		"new_password": newPassword,
	}); err != nil {
		return err
	}

	acc, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.otps.CheckSecret(ctx, acc.Email, secret); err != nil {
		return err
	}
	if !acc.IsVerified {
		return domain.ErrNotVerified
	}
	if err := s.policy.Check("new_password", newPassword, acc.Email); err != nil {
		return err
	}
	if err := s.creds.SetPassword(ctx, acc, newPassword); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if err := s.otps.Consume(ctx, acc.Email); err != nil {
		s.log.Warn().Err(err).Str("account_id", acc.ID).Msg("reset otp not deleted")
	}

	s.log.Info().Str("account_id", acc.ID).Msg("password reset")
	s.notifyPasswordChanged(acc)
	return nil
}

// ChangePassword replaces the password of an authenticated account.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if err := requireFields(map[string]string{
		"current_password": currentPassword,
		"new_password":     newPassword,
	}); err != nil {
		return err
	}

	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !s.creds.Matches(acc, currentPassword) {
		return domain.ErrIncorrectPassword
	}
	if err := s.policy.Check("new_password", newPassword, acc.Email); err != nil {
		return err
	}
	if err := s.creds.SetPassword(ctx, acc, newPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.notifyPasswordChanged(acc)
	return nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(_ context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", domain.FieldError("refresh_token", fieldRequired)
	}
	return s.sessions.Refresh(refreshToken)
}

func (s *AuthService) startSession(ctx context.Context, acc *domain.Account) (*domain.AuthResult, error) {
	session, err := s.sessions.IssueTokens(acc)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	profile, err := s.profSvc.GetOrCreate(ctx, acc)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{Account: acc, Profile: profile, Session: session}, nil
}

func (s *AuthService) sendOTP(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	code, err := s.otps.Issue(ctx, email)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, otpMail(email, code, purpose, s.otps.TTL())); err != nil {
		s.log.Error().Err(err).Str("email", email).Str("purpose", string(purpose)).Msg("otp mail not sent")
		return fmt.Errorf("%w: %v", domain.ErrMailDelivery, err)
	}
	return nil
}

func (s *AuthService) notifyPasswordChanged(acc *domain.Account) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(domain.Mail{
		To:      acc.Email,
		Subject: "Your password was changed",
		Text:    "The password of your account was just changed. If this was not you, reset it immediately.",
		Kind:    "password_changed",
	})
}

func otpMail(email, code string, purpose domain.OTPPurpose, ttl time.Duration) domain.Mail {
	subject := "Your OTP Code"
	if purpose == domain.PurposePasswordReset {
		subject = "Your password reset code"
	}
	return domain.Mail{
		To:      email,
		Subject: subject,
		Text:    fmt.Sprintf("Your OTP is %s. It expires in %d seconds.", code, int(ttl.Seconds())),
		Kind:    "otp",
	}
}

// requireFields reports every empty entry of fields as a missing field.
func requireFields(fields map[string]string) error {
	verr := domain.NewValidationError()
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			verr.Add(name, fieldRequired)
		}
	}
	return verr.OrNil()
}

func mergeValidation(dst *domain.ValidationError, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		for field, msgs := range verr.Fields {
			for _, m := range msgs {
				dst.Add(field, m)
			}
		}
	}
}
