package domain

import (
	"strings"
	"time"
)

// Account is the identity record used for authentication.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile holds display attributes of an account.
type Profile struct {
	UserID         string    `json:"-"`
	Name           string    `json:"name"`
	PhoneNumber    string    `json:"phone_number"`
	Address        string    `json:"address"`
	ProfilePicture string    `json:"profile_picture"`
	JoinedDate     time.Time `json:"joined_date"`
}

// AccountProfile pairs an account with its (possibly missing) profile.
type AccountProfile struct {
	Account *Account
	Profile *Profile
}

// ProfileUpdate carries a partial profile change; nil fields are left as is.
type ProfileUpdate struct {
	Name           *string
	PhoneNumber    *string
	Address        *string
	ProfilePicture *string
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

// NormalizeEmail lower-cases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DefaultProfileName derives a display name from the local part of an email.
func DefaultProfileName(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return email
	}
	return local
}

// NewDefaultProfile returns the profile created lazily for an account that has none.
func NewDefaultProfile(acc *Account, now time.Time) *Profile {
	return &Profile{
		UserID:     acc.ID,
		Name:       DefaultProfileName(acc.Email),
		JoinedDate: now,
	}
}
