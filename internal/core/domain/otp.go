package domain

import "time"

// OneTimeCode is the single live verification code held for an email.
type OneTimeCode struct {
	Email     string
	Code      string
	SecretKey string
	CreatedAt time.Time
	Attempts  int
}

// Expired reports whether the code is older than ttl at now.
func (o *OneTimeCode) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(o.CreatedAt) > ttl
}

// OTPPurpose labels why a code was issued.
type OTPPurpose string

const (
	PurposeVerification  OTPPurpose = "verification"
	PurposePasswordReset OTPPurpose = "password_reset"
)
