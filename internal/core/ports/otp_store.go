package ports

import (
	"context"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// OTPStore persists at most one OneTimeCode per email.
type OTPStore interface {
	// Replace drops any code held for otp.Email and stores otp in its place.
	Replace(ctx context.Context, otp *domain.OneTimeCode) error
	// Get returns domain.ErrOTPNotFound when no code is held for email.
	Get(ctx context.Context, email string) (*domain.OneTimeCode, error)
	IncrementAttempts(ctx context.Context, email string) (int, error)
	SetSecret(ctx context.Context, email, secret string) error
	Delete(ctx context.Context, email string) error
}
