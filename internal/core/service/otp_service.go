package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

const (
	// DefaultOTPTTL is how long an issued code stays valid.
	DefaultOTPTTL = 120 * time.Second

	otpMin   = 100000
	otpRange = 900000
)

// OTPService issues and checks one-time codes. Every call goes to the store.
type OTPService struct {
	store       ports.OTPStore
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	log         zerolog.Logger
}

// OTPOption customises an OTPService.
type OTPOption func(*OTPService)

// WithOTPTTL overrides the validity window of issued codes.
func WithOTPTTL(ttl time.Duration) OTPOption {
	return func(s *OTPService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxAttempts locks a code after n mismatches. Zero disables the lock.
func WithMaxAttempts(n int) OTPOption {
	return func(s *OTPService) { s.maxAttempts = n }
}

// WithOTPClock replaces the time source, used by tests.
func WithOTPClock(now func() time.Time) OTPOption {
	return func(s *OTPService) { s.now = now }
}

func NewOTPService(store ports.OTPStore, log zerolog.Logger, opts ...OTPOption) *OTPService {
	s := &OTPService{
		store: store,
		ttl:   DefaultOTPTTL,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the validity window of issued codes.
func (s *OTPService) TTL() time.Duration { return s.ttl }

// Issue stores a fresh code for email, replacing any previous one.
func (s *OTPService) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	otp := &domain.OneTimeCode{
		Email:     domain.NormalizeEmail(email),
		Code:      code,
		CreatedAt: s.now(),
	}
	if err := s.store.Replace(ctx, otp); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks code against the live record for email. It does not consume
// the record; callers decide between Consume and AttachSecret.
func (s *OTPService) Verify(ctx context.Context, email, code string) (*domain.OneTimeCode, error) {
	email = domain.NormalizeEmail(email)

	otp, err := s.store.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	if s.maxAttempts > 0 && otp.Attempts >= s.maxAttempts {
		return nil, domain.ErrOTPLocked
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		attempts, incErr := s.store.IncrementAttempts(ctx, email)
		if incErr != nil && !errors.Is(incErr, domain.ErrOTPNotFound) {
			s.log.Warn().Err(incErr).Str("email", email).Msg("otp attempt counter not updated")
		}
		if s.maxAttempts > 0 && attempts >= s.maxAttempts {
			s.log.Info().Str("email", email).Int("attempts", attempts).Msg("otp locked")
		}
		return nil, domain.ErrInvalidOTP
	}

	if otp.Expired(s.now(), s.ttl) {
		return nil, domain.ErrOTPExpired
	}
	return otp, nil
}

// Consume deletes the record for email.
func (s *OTPService) Consume(ctx context.Context, email string) error {
	return s.store.Delete(ctx, domain.NormalizeEmail(email))
}

// AttachSecret mints a single-use secret and stores it on the live record.
func (s *OTPService) AttachSecret(ctx context.Context, email string) (string, error) {
	secret := uuid.NewString()
	if err := s.store.SetSecret(ctx, domain.NormalizeEmail(email), secret); err != nil {
		return "", err
	}
	return secret, nil
}

// CheckSecret fails with domain.ErrOTPNotFound when the record is gone and
// domain.ErrInvalidSecret when secret does not match. An unset secret never matches.
func (s *OTPService) CheckSecret(ctx context.Context, email, secret string) error {
	otp, err := s.store.Get(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if otp.SecretKey == "" || subtle.ConstantTimeCompare([]byte(otp.SecretKey), []byte(secret)) != 1 {
		return domain.ErrInvalidSecret
	}
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}
