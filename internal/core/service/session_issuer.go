package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type tokenClaims struct {
	Role string           `json:"role"`
	Type domain.TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and verifies stateless HS256 access and refresh tokens.
type SessionIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewSessionIssuer(secret string, accessTTL, refreshTTL time.Duration) *SessionIssuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &SessionIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssueTokens returns a fresh access/refresh pair for acc.
func (s *SessionIssuer) IssueTokens(acc *domain.Account) (*domain.Session, error) {
	access, err := s.sign(acc.ID, acc.Role, domain.TokenAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(acc.ID, acc.Role, domain.TokenRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		AccessToken:    access,
		RefreshToken:   refresh,
		AccessTokenTTL: s.accessTTL,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *SessionIssuer) Refresh(refreshToken string) (string, error) {
	claims, err := s.parse(refreshToken, domain.TokenRefresh)
	if err != nil {
		return "", err
	}
	return s.sign(claims.AccountID, claims.Role, domain.TokenAccess, s.accessTTL)
}

// ParseAccess verifies an access token and returns its claims.
func (s *SessionIssuer) ParseAccess(token string) (*domain.Claims, error) {
	return s.parse(token, domain.TokenAccess)
}

func (s *SessionIssuer) sign(subject string, role domain.Role, typ domain.TokenType, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Role: string(role),
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (s *SessionIssuer) parse(raw string, want domain.TokenType) (*domain.Claims, error) {
	var claims tokenClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", domain.ErrInvalidToken)
		}
		return nil, domain.ErrInvalidToken
	}
	if claims.Type != want || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	out := &domain.Claims{
		AccountID: claims.Subject,
		Role:      domain.Role(claims.Role),
		Type:      claims.Type,
		TokenID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
