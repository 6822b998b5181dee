package ports

import (
	"context"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// AddMemberInput carries the new farm user's credentials and profile.
// FarmID is only read when the actor is an admin acting for a farm.
type AddMemberInput struct {
	FarmID         string
	Email          string
	Password       string
	Name           string
	PhoneNumber    string
	ProfilePicture string
}

// MemberService manages farm memberships.
type MemberService interface {
	AddMember(ctx context.Context, actor domain.Actor, in AddMemberInput) (*domain.MemberView, error)
	ListMembers(ctx context.Context, farmID string) ([]*domain.MemberView, error)
	GetSelfMembership(ctx context.Context, farmUserID string) (*domain.MemberView, error)
	DeactivateMember(ctx context.Context, actor domain.Actor, memberID string) error
}

// ConsultantService manages consultant requests and farm links.
type ConsultantService interface {
	SearchFarms(ctx context.Context, name string) ([]domain.AccountProfile, error)
	SendRequest(ctx context.Context, actor domain.Actor, farmID, consultantID string) (*domain.ConsultantRequestView, error)
	ManageRequest(ctx context.Context, actor domain.Actor, requestID string, action domain.RequestAction) (*domain.ConsultantRequestView, error)
	PendingRequests(ctx context.Context, actor domain.Actor) ([]*domain.ConsultantRequestView, error)
	AcceptedFarms(ctx context.Context, actor domain.Actor) ([]*domain.ConsultantRequestView, error)
	FarmMembers(ctx context.Context, actor domain.Actor, farmID string) ([]*domain.MemberView, error)
}
