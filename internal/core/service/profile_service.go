package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"

	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

// DefaultPhoneRegion is used to parse phone numbers written without a country code.
const DefaultPhoneRegion = "US"

var errInvalidPhone = errors.New("invalid phone number")

type ProfileService struct {
	accounts ports.AccountRepository
	profiles ports.ProfileRepository
	region   string
	now      func() time.Time
}

func NewProfileService(accounts ports.AccountRepository, profiles ports.ProfileRepository, phoneRegion string) *ProfileService {
	if phoneRegion == "" {
		phoneRegion = DefaultPhoneRegion
	}
	return &ProfileService{
		accounts: accounts,
		profiles: profiles,
		region:   strings.ToUpper(phoneRegion),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreate returns the profile of acc, creating the default one when missing.
func (s *ProfileService) GetOrCreate(ctx context.Context, acc *domain.Account) (*domain.Profile, error) {
	p, err := s.profiles.FindByUserID(ctx, acc.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	p = domain.NewDefaultProfile(acc, s.now())
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) Get(ctx context.Context, accountID string) (*domain.AccountProfile, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	p, err := s.GetOrCreate(ctx, acc)
	if err != nil {
		return nil, err
	}
	return &domain.AccountProfile{Account: acc, Profile: p}, nil
}

// Update applies a partial change. Phone numbers are stored in E.164 form.
func (s *ProfileService) Update(ctx context.Context, accountID string, upd domain.ProfileUpdate) (*domain.Profile, error) {
	ap, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	p := ap.Profile

	verr := domain.NewValidationError()
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			verr.Add("name", "Name cannot be empty")
		}
		p.Name = name
	}
	if upd.PhoneNumber != nil {
		phone, err := s.NormalizePhone(*upd.PhoneNumber)
		if err != nil {
			verr.Add("phone_number", "Enter a valid phone number.")
		}
		p.PhoneNumber = phone
	}
	if upd.Address != nil {
		p.Address = strings.TrimSpace(*upd.Address)
	}
	if upd.ProfilePicture != nil {
		p.ProfilePicture = strings.TrimSpace(*upd.ProfilePicture)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

// ListAccounts returns every account with its profile, if any.
func (s *ProfileService) ListAccounts(ctx context.Context) ([]domain.AccountProfile, error) {
	accs, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return s.attachProfiles(ctx, accs)
}

func (s *ProfileService) attachProfiles(ctx context.Context, accs []*domain.Account) ([]domain.AccountProfile, error) {
	ids := make([]string, 0, len(accs))
	for _, a := range accs {
		ids = append(ids, a.ID)
	}
	profiles, err := s.profiles.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	out := make([]domain.AccountProfile, 0, len(accs))
	for _, a := range accs {
		out = append(out, domain.AccountProfile{Account: a, Profile: profiles[a.ID]})
	}
	return out, nil
}

// NormalizePhone parses raw in the configured region and formats it as E.164.
// An empty input stays empty.
func (s *ProfileService) NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(raw, s.region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", errInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
