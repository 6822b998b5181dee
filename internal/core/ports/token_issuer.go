package ports

import "github.com/milkmix/farm-backend/internal/core/domain"

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	IssueTokens(acc *domain.Account) (*domain.Session, error)
	Refresh(refreshToken string) (string, error)
	ParseAccess(token string) (*domain.Claims, error)
}
