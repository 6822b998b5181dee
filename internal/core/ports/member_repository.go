package ports

import (
	"context"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// MemberRepository defines persistence operations for farm memberships.
type MemberRepository interface {
	// Create checks both account roles and inserts an active membership.
	// A duplicate (farm, farm_user) pair yields domain.ErrMembershipExists.
	Create(ctx context.Context, farm, farmUser *domain.Account) (*domain.Membership, error)
	FindByID(ctx context.Context, id string) (*domain.Membership, error)
	ListActiveByFarm(ctx context.Context, farmID string) ([]*domain.Membership, error)
	FindActiveByFarmUser(ctx context.Context, farmUserID string) (*domain.Membership, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// ConsultantRepository defines persistence operations for consultant requests and links.
type ConsultantRepository interface {
	CreateRequest(ctx context.Context, r *domain.ConsultantRequest) error
	FindRequest(ctx context.Context, id string) (*domain.ConsultantRequest, error)
	HasPendingRequest(ctx context.Context, farmID, consultantID string) (bool, error)
	// UpdateRequestStatus moves a request from one status to another and fails
	// with domain.ErrRequestNotFound when it is no longer in from.
	UpdateRequestStatus(ctx context.Context, id string, from, to domain.RequestStatus) error
	ListRequestsByFarm(ctx context.Context, farmID string, status domain.RequestStatus) ([]*domain.ConsultantRequest, error)
	ListRequestsByConsultant(ctx context.Context, consultantID string, status domain.RequestStatus) ([]*domain.ConsultantRequest, error)
	CreateLink(ctx context.Context, l *domain.ConsultantLink) error
	HasActiveLink(ctx context.Context, farmID, consultantID string) (bool, error)
}
