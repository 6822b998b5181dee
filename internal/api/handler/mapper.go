package handler

import (
	"github.com/milkmix/farm-backend/internal/core/domain"
)

// --- Domain → Response ---

func toProfileResponse(p *domain.Profile) *profileResponse {
	if p == nil {
		return nil
	}
	return &profileResponse{
		Name:           p.Name,
		PhoneNumber:    p.PhoneNumber,
		Address:        p.Address,
		ProfilePicture: p.ProfilePicture,
		JoinedDate:     p.JoinedDate,
	}
}

func toMemberProfile(p *domain.Profile) *memberProfileResponse {
	if p == nil {
		return nil
	}
	return &memberProfileResponse{
		Name:           p.Name,
		PhoneNumber:    p.PhoneNumber,
		ProfilePicture: p.ProfilePicture,
		JoinedDate:     p.JoinedDate,
	}
}

func toAccountResponse(ap domain.AccountProfile) *accountResponse {
	return &accountResponse{
		ID:          ap.Account.ID,
		Email:       ap.Account.Email,
		Role:        ap.Account.Role,
		IsVerified:  ap.Account.IsVerified,
		UserProfile: toProfileResponse(ap.Profile),
	}
}

func toSignInResponse(r *domain.AuthResult) signInResponse {
	return signInResponse{
		AccessToken:          r.Session.AccessToken,
		RefreshToken:         r.Session.RefreshToken,
		EmailAddress:         r.Account.Email,
		Role:                 r.Account.Role,
		IsVerified:           r.Account.IsVerified,
		Profile:              toProfileResponse(r.Profile),
		AccessTokenValidTill: r.Session.AccessTokenTTL.Milliseconds(),
	}
}

func toMemberResponse(v *domain.MemberView) *memberResponse {
	resp := &memberResponse{
		MemberID:        v.Membership.ID,
		FarmID:          v.Membership.FarmID,
		FarmUserID:      v.Membership.FarmUserID,
		FarmName:        profileName(v.Farm.Profile),
		FarmUserProfile: toMemberProfile(v.FarmUser.Profile),
		CreatedAt:       v.Membership.CreatedAt,
		IsActive:        v.Membership.IsActive,
	}
	if v.Farm.Account != nil {
		resp.FarmEmail = v.Farm.Account.Email
	}
	if v.FarmUser.Account != nil {
		resp.FarmUserEmail = v.FarmUser.Account.Email
	}
	return resp
}

func toMemberResponses(vs []*domain.MemberView) []*memberResponse {
	out := make([]*memberResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toMemberResponse(v))
	}
	return out
}

func toFarmSearchResponses(farms []domain.AccountProfile) []*farmSearchResponse {
	out := make([]*farmSearchResponse, 0, len(farms))
	for _, f := range farms {
		out = append(out, &farmSearchResponse{
			ID:      f.Account.ID,
			Email:   f.Account.Email,
			Profile: toMemberProfile(f.Profile),
		})
	}
	return out
}

func toConsultantRequestResponse(v *domain.ConsultantRequestView) *consultantRequestResponse {
	resp := &consultantRequestResponse{
		ID:                       v.Request.ID,
		Farm:                     v.Request.FarmID,
		FarmName:                 profileName(v.Farm.Profile),
		FarmProfilePicture:       profilePicture(v.Farm.Profile),
		Consultant:               v.Request.ConsultantID,
		ConsultantName:           profileName(v.Consultant.Profile),
		ConsultantProfilePicture: profilePicture(v.Consultant.Profile),
		Status:                   string(v.Request.Status),
		CreatedAt:                v.Request.CreatedAt,
		UpdatedAt:                v.Request.UpdatedAt,
	}
	if v.Farm.Account != nil {
		resp.FarmEmail = v.Farm.Account.Email
	}
	if v.Consultant.Account != nil {
		resp.ConsultantEmail = v.Consultant.Account.Email
	}
	return resp
}

func toConsultantRequestResponses(vs []*domain.ConsultantRequestView) []*consultantRequestResponse {
	out := make([]*consultantRequestResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toConsultantRequestResponse(v))
	}
	return out
}

// profileName and profilePicture render null for a missing profile.
func profileName(p *domain.Profile) *string {
	if p == nil {
		return nil
	}
	return &p.Name
}

func profilePicture(p *domain.Profile) *string {
	if p == nil || p.ProfilePicture == "" {
		return nil
	}
	return &p.ProfilePicture
}

// --- Request → Domain ---

func toProfileUpdate(req profileUpdateRequest) domain.ProfileUpdate {
	return domain.ProfileUpdate{
		Name:           req.Name,
		PhoneNumber:    req.PhoneNumber,
		Address:        req.Address,
		ProfilePicture: req.ProfilePicture,
	}
}
