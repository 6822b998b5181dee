package service

import (
	"context"
	"fmt"

	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

// accountDirectory resolves account ids to accounts joined with profiles.
type accountDirectory struct {
	accounts ports.AccountRepository
	profiles ports.ProfileRepository
}

func (d accountDirectory) load(ctx context.Context, ids []string) (map[string]domain.AccountProfile, error) {
	ids = uniqueIDs(ids)
	accs, err := d.accounts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	profiles, err := d.profiles.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	out := make(map[string]domain.AccountProfile, len(accs))
	for id, acc := range accs {
		out[id] = domain.AccountProfile{Account: acc, Profile: profiles[id]}
	}
	return out, nil
}

func (d accountDirectory) memberViews(ctx context.Context, ms []*domain.Membership) ([]*domain.MemberView, error) {
	ids := make([]string, 0, 2*len(ms))
	for _, m := range ms {
		ids = append(ids, m.FarmID, m.FarmUserID)
	}
	dir, err := d.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*domain.MemberView, 0, len(ms))
	for _, m := range ms {
		views = append(views, &domain.MemberView{
			Membership: m,
			Farm:       dir[m.FarmID],
			FarmUser:   dir[m.FarmUserID],
		})
	}
	return views, nil
}

func (d accountDirectory) requestViews(ctx context.Context, rs []*domain.ConsultantRequest) ([]*domain.ConsultantRequestView, error) {
	ids := make([]string, 0, 2*len(rs))
	for _, r := range rs {
		ids = append(ids, r.FarmID, r.ConsultantID)
	}
	dir, err := d.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*domain.ConsultantRequestView, 0, len(rs))
	for _, r := range rs {
		views = append(views, &domain.ConsultantRequestView{
			Request:    r,
			Farm:       dir[r.FarmID],
			Consultant: dir[r.ConsultantID],
		})
	}
	return views, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
