package ports

import (
	"context"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// RegisterInput is the public sign-up payload.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// OTPTarget identifies the account an OTP is requested for. UserID wins when
// both are set; Email is accepted for older clients.
type OTPTarget struct {
	UserID string
	Email  string
}

// AuthService drives the account lifecycle: sign-up, verification, login and
// password recovery.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	ResendOTP(ctx context.Context, target OTPTarget) error
	VerifyAccount(ctx context.Context, userID, code string) (*domain.AuthResult, error)
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	AuthorizeReset(ctx context.Context, userID, code string) (string, error)
	CompleteReset(ctx context.Context, userID, secret, newPassword string) error
	ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// ProfileService reads and edits account profiles.
type ProfileService interface {
	GetOrCreate(ctx context.Context, acc *domain.Account) (*domain.Profile, error)
	Get(ctx context.Context, accountID string) (*domain.AccountProfile, error)
	Update(ctx context.Context, accountID string, upd domain.ProfileUpdate) (*domain.Profile, error)
	ListAccounts(ctx context.Context) ([]domain.AccountProfile, error)
}
