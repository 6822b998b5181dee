package domain

import "time"

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Session is the token pair handed out after a successful login or verification.
type Session struct {
	AccessToken    string
	RefreshToken   string
	AccessTokenTTL time.Duration
}

// Claims is the verified content of a token.
type Claims struct {
	AccountID string
	Role      Role
	Type      TokenType
	TokenID   string
	ExpiresAt time.Time
}

// AuthResult is returned by flows that end in an authenticated session.
type AuthResult struct {
	Account *Account
	Profile *Profile
	Session *Session
}
