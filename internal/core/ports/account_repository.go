package ports

import (
	"context"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	// Create inserts acc and assigns its ID. A duplicate email yields domain.ErrEmailTaken.
	Create(ctx context.Context, acc *domain.Account) error
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// FindByIDs returns the accounts found, keyed by id.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Account, error)
	// Update overwrites the mutable fields: password hash, flags and updated_at.
	Update(ctx context.Context, acc *domain.Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.Account, error)
	// SearchByRoleAndName returns up to limit accounts with role whose profile
	// name contains name, case-insensitively.
	SearchByRoleAndName(ctx context.Context, role domain.Role, name string, limit int) ([]domain.AccountProfile, error)
}

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	Create(ctx context.Context, p *domain.Profile) error
	FindByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	// FindByUserIDs returns the profiles found, keyed by user id.
	FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
	DeleteByUserID(ctx context.Context, userID string) error
}
