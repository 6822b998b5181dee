package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

// MemberService creates and lists farm memberships.
type MemberService struct {
	accounts ports.AccountRepository
	profiles ports.ProfileRepository
	members  ports.MemberRepository
	creds    *CredentialService
	phones   *ProfileService
	tx       ports.TxManager
	notifier ports.Notifier
	policy   PasswordPolicy
	dir      accountDirectory
	log      zerolog.Logger
}

func NewMemberService(
	accounts ports.AccountRepository,
	profiles ports.ProfileRepository,
	members ports.MemberRepository,
	creds *CredentialService,
	phones *ProfileService,
	tx ports.TxManager,
	notifier ports.Notifier,
	log zerolog.Logger,
) *MemberService {
	return &MemberService{
		accounts: accounts,
		profiles: profiles,
		members:  members,
		creds:    creds,
		phones:   phones,
		tx:       tx,
		notifier: notifier,
		policy:   NewPasswordPolicy(),
		dir:      accountDirectory{accounts: accounts, profiles: profiles},
		log:      log,
	}
}

// AddMember creates a verified farm_user account, its profile and the
// membership in one transaction. If any step fails nothing is kept.
func (s *MemberService) AddMember(ctx context.Context, actor domain.Actor, in ports.AddMemberInput) (*domain.MemberView, error) {
	farmID, err := s.resolveFarm(actor, in.FarmID)
	if err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(in.Email)
	verr := domain.NewValidationError()
	if email == "" {
		verr.Add("email", fieldRequired)
	}
	if in.Password == "" {
		verr.Add("password", fieldRequired)
	} else {
		mergeValidation(verr, s.policy.Check("password", in.Password, email))
	}
	phone, perr := s.phones.NormalizePhone(in.PhoneNumber)
	if perr != nil {
		verr.Add("phone_number", "Enter a valid phone number.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	farm, err := s.loadFarm(ctx, farmID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = domain.DefaultProfileName(email)
	}

	var (
		user    *domain.Account
		profile *domain.Profile
		member  *domain.Membership
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.creds.Create(ctx, NewAccount{
			Email:    email,
			Password: in.Password,
			Role:     domain.RoleFarmUser,
			Active:   true,
			Verified: true,
		})
		if err != nil {
			return err
		}

		profile = &domain.Profile{
			UserID:         user.ID,
			Name:           name,
			PhoneNumber:    phone,
			ProfilePicture: strings.TrimSpace(in.ProfilePicture),
			JoinedDate:     user.CreatedAt,
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return err
		}

		member, err = s.members.Create(ctx, farm, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}

	s.log.Info().
		Str("farm_id", farm.ID).
		Str("farm_user_id", user.ID).
		Str("member_id", member.ID).
		Msg("member added")

	farmProfile, _ := s.profiles.FindByUserID(ctx, farm.ID)
	s.notifyAdded(user, farmProfile)

	return &domain.MemberView{
		Membership: member,
		Farm:       domain.AccountProfile{Account: farm, Profile: farmProfile},
		FarmUser:   domain.AccountProfile{Account: user, Profile: profile},
	}, nil
}

// ListMembers returns the active members of a farm.
func (s *MemberService) ListMembers(ctx context.Context, farmID string) ([]*domain.MemberView, error) {
	if _, err := s.loadFarm(ctx, farmID); err != nil {
		return nil, err
	}
	ms, err := s.members.ListActiveByFarm(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return s.dir.memberViews(ctx, ms)
}

// GetSelfMembership returns the active membership of a farm user.
func (s *MemberService) GetSelfMembership(ctx context.Context, farmUserID string) (*domain.MemberView, error) {
	m, err := s.members.FindActiveByFarmUser(ctx, farmUserID)
	if err != nil {
		return nil, err
	}
	views, err := s.dir.memberViews(ctx, []*domain.Membership{m})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// DeactivateMember switches a membership off. Only the owning farm or an admin may do so.
func (s *MemberService) DeactivateMember(ctx context.Context, actor domain.Actor, memberID string) error {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin && actor.ID != m.FarmID {
		return domain.ErrForbidden
	}
	if !m.IsActive {
		return nil
	}
	if err := s.members.SetActive(ctx, m.ID, false); err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}
	s.log.Info().Str("member_id", m.ID).Str("by", actor.ID).Msg("member deactivated")
	return nil
}

func (s *MemberService) resolveFarm(actor domain.Actor, farmID string) (string, error) {
	switch actor.Role {
	case domain.RoleFarm:
		if farmID != "" && farmID != actor.ID {
			return "", domain.ErrForbidden
		}
		return actor.ID, nil
	case domain.RoleAdmin:
		if farmID == "" {
			return "", domain.FieldError("farm", fieldRequired)
		}
		return farmID, nil
	default:
		return "", domain.ErrForbidden
	}
}

func (s *MemberService) loadFarm(ctx context.Context, farmID string) (*domain.Account, error) {
	farm, err := s.accounts.FindByID(ctx, farmID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrFarmNotFound
	}
	if err != nil {
		return nil, err
	}
	if farm.Role != domain.RoleFarm {
		return nil, domain.ErrFarmNotFound
	}
	return farm, nil
}

func (s *MemberService) notifyAdded(user *domain.Account, farm *domain.Profile) {
	if s.notifier == nil {
		return
	}
	farmName := "a farm"
	if farm != nil && farm.Name != "" {
		farmName = farm.Name
	}
	s.notifier.Notify(domain.Mail{
		To:      user.Email,
		Subject: "You have been added to " + farmName,
		Text:    fmt.Sprintf("An account was created for you as a member of %s. Sign in with %s.", farmName, user.Email),
		Kind:    "member_added",
	})
}
