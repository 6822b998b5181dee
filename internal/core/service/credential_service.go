package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

// NewAccount describes an account to create.
type NewAccount struct {
	Email    string
	Password string
	Role     domain.Role
	Active   bool
	Verified bool

	// ReplaceUnverified lets a new sign-up take over an email whose previous
	// owner never completed verification.
	ReplaceUnverified bool
}

// CredentialService owns password hashing and account authentication.
type CredentialService struct {
	accounts  ports.AccountRepository
	profiles  ports.ProfileRepository
	cost      int
	dummyHash []byte
	now       func() time.Time
}

func NewCredentialService(accounts ports.AccountRepository, profiles ports.ProfileRepository, cost int) *CredentialService {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	// Compared against when the email is unknown so both failure paths cost the same.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("farm-backend-dummy-password"), cost)
	return &CredentialService{
		accounts:  accounts,
		profiles:  profiles,
		cost:      cost,
		dummyHash: dummy,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create hashes the password and inserts the account. When an unverified
// account already holds the email and ReplaceUnverified is set, that account
// and its profile are removed first; run inside a transaction so the swap is atomic.
func (s *CredentialService) Create(ctx context.Context, in NewAccount) (*domain.Account, error) {
	email := domain.NormalizeEmail(in.Email)

	existing, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
	case err != nil:
		return nil, fmt.Errorf("lookup account: %w", err)
	case existing.IsVerified || !in.ReplaceUnverified:
		return nil, domain.ErrEmailTaken
	default:
		if err := s.profiles.DeleteByUserID(ctx, existing.ID); err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
			return nil, fmt.Errorf("drop stale profile: %w", err)
		}
		if err := s.accounts.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("drop stale account: %w", err)
		}
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	acc := &domain.Account{
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     in.Active,
		IsVerified:   in.Verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Authenticate returns the account for email when password matches. Unknown
// emails and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	acc, err := s.accounts.FindByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrAccountNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if !s.Matches(acc, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return acc, nil
}

// Matches reports whether password is the account's current password.
func (s *CredentialService) Matches(acc *domain.Account, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) == nil
}

// SetPassword re-hashes and stores a new password. Unverified accounts are refused.
func (s *CredentialService) SetPassword(ctx context.Context, acc *domain.Account, password string) error {
	if !acc.IsVerified {
		return domain.ErrNotVerified
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	acc.PasswordHash = hash
	acc.UpdatedAt = s.now()
	return s.accounts.Update(ctx, acc)
}

func (s *CredentialService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
