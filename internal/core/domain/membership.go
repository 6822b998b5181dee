package domain

import (
	"fmt"
	"time"
)

// Membership links a farm_user account to the farm account it operates under.
type Membership struct {
	ID         string
	FarmID     string
	FarmUserID string
	IsActive   bool
	CreatedAt  time.Time
}

// NewMembership builds an active membership after checking both roles.
func NewMembership(farm, farmUser *Account, now time.Time) (*Membership, error) {
	if farm == nil || farm.Role != RoleFarm {
		return nil, fmt.Errorf("%w: farm must have role %q", ErrRoleMismatch, RoleFarm)
	}
	if farmUser == nil || farmUser.Role != RoleFarmUser {
		return nil, fmt.Errorf("%w: farm user must have role %q", ErrRoleMismatch, RoleFarmUser)
	}
	return &Membership{
		FarmID:     farm.ID,
		FarmUserID: farmUser.ID,
		IsActive:   true,
		CreatedAt:  now,
	}, nil
}

// MemberView is a membership joined with both sides' identity data.
type MemberView struct {
	Membership *Membership
	Farm       AccountProfile
	FarmUser   AccountProfile
}
