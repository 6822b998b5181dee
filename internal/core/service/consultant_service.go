package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

const farmSearchLimit = 10

// ConsultantService runs the consultant invitation workflow.
type ConsultantService struct {
	accounts    ports.AccountRepository
	consultants ports.ConsultantRepository
	members     ports.MemberService
	tx          ports.TxManager
	dir         accountDirectory
	log         zerolog.Logger
	now         func() time.Time
}

func NewConsultantService(
	accounts ports.AccountRepository,
	profiles ports.ProfileRepository,
	consultants ports.ConsultantRepository,
	members ports.MemberService,
	tx ports.TxManager,
	log zerolog.Logger,
) *ConsultantService {
	return &ConsultantService{
		accounts:    accounts,
		consultants: consultants,
		members:     members,
		tx:          tx,
		dir:         accountDirectory{accounts: accounts, profiles: profiles},
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SearchFarms finds farms whose profile name contains name.
func (s *ConsultantService) SearchFarms(ctx context.Context, name string) ([]domain.AccountProfile, error) {
	farms, err := s.accounts.SearchByRoleAndName(ctx, domain.RoleFarm, strings.TrimSpace(name), farmSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search farms: %w", err)
	}
	return farms, nil
}

// SendRequest files a pending request from a consultant to a farm. A
// consultant may only send on their own behalf; admins may send for anyone.
func (s *ConsultantService) SendRequest(ctx context.Context, actor domain.Actor, farmID, consultantID string) (*domain.ConsultantRequestView, error) {
	if consultantID == "" && actor.Role == domain.RoleConsultant {
		consultantID = actor.ID
	}
	if err := requireFields(map[string]string{"farm": farmID, "consultant": consultantID}); err != nil {
		return nil, err
	}
	if actor.ID != consultantID && actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if farmID == consultantID {
		return nil, domain.ErrSelfRequest
	}

	verr := domain.NewValidationError()
	if err := s.expectRole(ctx, farmID, domain.RoleFarm); err != nil {
		if !errors.Is(err, domain.ErrRoleMismatch) {
			return nil, err
		}
		verr.Add("farm", `Selected user must have role "farm"`)
	}
	if err := s.expectRole(ctx, consultantID, domain.RoleConsultant); err != nil {
		if !errors.Is(err, domain.ErrRoleMismatch) {
			return nil, err
		}
		verr.Add("consultant", `Selected user must have role "consultant"`)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	linked, err := s.consultants.HasActiveLink(ctx, farmID, consultantID)
	if err != nil {
		return nil, fmt.Errorf("check link: %w", err)
	}
	if linked {
		return nil, domain.ErrAlreadyLinked
	}
	pending, err := s.consultants.HasPendingRequest(ctx, farmID, consultantID)
	if err != nil {
		return nil, fmt.Errorf("check pending request: %w", err)
	}
	if pending {
		return nil, domain.ErrPendingRequest
	}

	now := s.now()
	req := &domain.ConsultantRequest{
		FarmID:       farmID,
		ConsultantID: consultantID,
		Status:       domain.RequestPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.consultants.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.log.Info().Str("request_id", req.ID).Str("farm_id", farmID).Str("consultant_id", consultantID).Msg("consultant request sent")
	return s.view(ctx, req)
}

// ManageRequest accepts or declines a pending request. Accepting links the
// consultant to the farm in the same transaction.
func (s *ConsultantService) ManageRequest(ctx context.Context, actor domain.Actor, requestID string, action domain.RequestAction) (*domain.ConsultantRequestView, error) {
	target, ok := action.Target()
	if !ok {
		return nil, domain.FieldError("action", "Invalid action. Must be 'accept' or 'decline'")
	}

	req, err := s.consultants.FindRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(target) {
		return nil, domain.ErrRequestNotFound
	}
	if actor.ID != req.FarmID && actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	now := s.now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.consultants.UpdateRequestStatus(ctx, req.ID, req.Status, target); err != nil {
			return err
		}
		if target != domain.RequestAccepted {
			return nil
		}
		return s.consultants.CreateLink(ctx, &domain.ConsultantLink{
			FarmID:       req.FarmID,
			ConsultantID: req.ConsultantID,
			IsActive:     true,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("manage request: %w", err)
	}

	req.Status = target
	req.UpdatedAt = now
	s.log.Info().Str("request_id", req.ID).Str("status", string(target)).Msg("consultant request updated")
	return s.view(ctx, req)
}

// PendingRequests lists requests waiting on the calling farm.
func (s *ConsultantService) PendingRequests(ctx context.Context, actor domain.Actor) ([]*domain.ConsultantRequestView, error) {
	if actor.Role != domain.RoleFarm && actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	rs, err := s.consultants.ListRequestsByFarm(ctx, actor.ID, domain.RequestPending)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return s.dir.requestViews(ctx, rs)
}

// AcceptedFarms lists accepted requests: those of the calling consultant, or
// for a farm caller the consultants it accepted.
func (s *ConsultantService) AcceptedFarms(ctx context.Context, actor domain.Actor) ([]*domain.ConsultantRequestView, error) {
	var (
		rs  []*domain.ConsultantRequest
		err error
	)
	switch actor.Role {
	case domain.RoleConsultant, domain.RoleAdmin:
		rs, err = s.consultants.ListRequestsByConsultant(ctx, actor.ID, domain.RequestAccepted)
	case domain.RoleFarm:
		rs, err = s.consultants.ListRequestsByFarm(ctx, actor.ID, domain.RequestAccepted)
	default:
		return nil, domain.ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("list accepted requests: %w", err)
	}
	return s.dir.requestViews(ctx, rs)
}

// FarmMembers lists a farm's active members for the farm itself, an admin or
// a consultant linked to the farm.
func (s *ConsultantService) FarmMembers(ctx context.Context, actor domain.Actor, farmID string) ([]*domain.MemberView, error) {
	if actor.Role != domain.RoleAdmin && actor.ID != farmID {
		linked, err := s.consultants.HasActiveLink(ctx, farmID, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("check link: %w", err)
		}
		if !linked {
			return nil, domain.ErrForbidden
		}
	}
	return s.members.ListMembers(ctx, farmID)
}

func (s *ConsultantService) expectRole(ctx context.Context, id string, role domain.Role) error {
	acc, err := s.accounts.FindByID(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.ErrRoleMismatch
	}
	if err != nil {
		return err
	}
	if acc.Role != role {
		return domain.ErrRoleMismatch
	}
	return nil
}

func (s *ConsultantService) view(ctx context.Context, req *domain.ConsultantRequest) (*domain.ConsultantRequestView, error) {
	views, err := s.dir.requestViews(ctx, []*domain.ConsultantRequest{req})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}
