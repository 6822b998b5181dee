package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

func requestView(status domain.RequestStatus) *domain.ConsultantRequestView {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &domain.ConsultantRequestView{
		Request: &domain.ConsultantRequest{
			ID: "r1", FarmID: "farm1", ConsultantID: "c1", Status: status, CreatedAt: now, UpdatedAt: now,
		},
		Farm: domain.AccountProfile{
			Account: &domain.Account{ID: "farm1", Email: "farm@example.com"},
			Profile: &domain.Profile{Name: "Green Acres"},
		},
		Consultant: domain.AccountProfile{
			Account: &domain.Account{ID: "c1", Email: "advice@example.com"},
		},
	}
}

func TestConsultantHandler_SearchFarms(t *testing.T) {
	stub := &stubConsultantService{
		searchFn: func(_ context.Context, name string) ([]domain.AccountProfile, error) {
			if name != "green" {
				t.Fatalf("unexpected name %q", name)
			}
			return []domain.AccountProfile{{
				Account: &domain.Account{ID: "farm1", Email: "farm@example.com"},
				Profile: &domain.Profile{Name: "Green Acres"},
			}}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/consultants/search/farm?name=green", "", &domain.Actor{ID: "c1", Role: domain.RoleConsultant})

	if err := NewConsultantHandler(stub).SearchFarms(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	data := resp["data"].([]any)
	if len(data) != 1 || data[0].(map[string]any)["email"] != "farm@example.com" {
		t.Fatalf("unexpected data: %+v", resp)
	}
}

func TestConsultantHandler_SendRequest(t *testing.T) {
	stub := &stubConsultantService{
		sendFn: func(_ context.Context, actor domain.Actor, farmID, consultantID string) (*domain.ConsultantRequestView, error) {
			if farmID != "farm1" || actor.ID != "c1" {
				t.Fatalf("unexpected call: %+v %s", actor, farmID)
			}
			return requestView(domain.RequestPending), nil
		},
	}
	c, rec := newContext(http.MethodPost, "/consultants/request", `{"farm":"farm1"}`, &domain.Actor{ID: "c1", Role: domain.RoleConsultant})

	if err := NewConsultantHandler(stub).SendRequest(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	data := decode(t, rec)["data"].(map[string]any)
	if data["status"] != "pending" || data["farm_name"] != "Green Acres" || data["consultant_name"] != nil {
		t.Fatalf("unexpected data: %+v", data)
	}
}

func TestConsultantHandler_ManageRequest(t *testing.T) {
	stub := &stubConsultantService{
		manageFn: func(_ context.Context, _ domain.Actor, id string, action domain.RequestAction) (*domain.ConsultantRequestView, error) {
			target, _ := action.Target()
			return requestView(target), nil
		},
	}
	h := NewConsultantHandler(stub)
	farm := &domain.Actor{ID: "farm1", Role: domain.RoleFarm}

	c, rec := newContext(http.MethodPost, "/consultants/request/r1/manage", `{"action":"accept"}`, farm)
	c.SetParamNames("id")
	c.SetParamValues("r1")
	if err := h.ManageRequest(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if msg := decode(t, rec)["message"]; msg != "Consultant request accepted successfully" {
		t.Fatalf("unexpected message: %v", msg)
	}

	c, _ = newContext(http.MethodPost, "/consultants/request/r1/manage", `{"action":"maybe"}`, farm)
	c.SetParamNames("id")
	c.SetParamValues("r1")
	var verr *domain.ValidationError
	if err := h.ManageRequest(c); !errors.As(err, &verr) || len(verr.Fields["action"]) == 0 {
		t.Fatalf("expected action validation error, got %v", err)
	}
}

func TestConsultantHandler_Lists(t *testing.T) {
	stub := &stubConsultantService{
		pendingFn: func(context.Context, domain.Actor) ([]*domain.ConsultantRequestView, error) {
			return []*domain.ConsultantRequestView{requestView(domain.RequestPending)}, nil
		},
		acceptedFn: func(_ context.Context, actor domain.Actor) ([]*domain.ConsultantRequestView, error) {
			if actor.Role == domain.RoleUser {
				return nil, domain.ErrForbidden
			}
			return nil, nil
		},
	}
	h := NewConsultantHandler(stub)

	c, rec := newContext(http.MethodGet, "/consultants/request-list", "", &domain.Actor{ID: "farm1", Role: domain.RoleFarm})
	if err := h.PendingRequests(c); err != nil {
		t.Fatalf("pending: %v", err)
	}
	if data := decode(t, rec)["data"].([]any); len(data) != 1 {
		t.Fatalf("expected one request, got %d", len(data))
	}

	c, rec = newContext(http.MethodGet, "/consultants/farm/list", "", &domain.Actor{ID: "c1", Role: domain.RoleConsultant})
	if err := h.AcceptedFarms(c); err != nil {
		t.Fatalf("accepted: %v", err)
	}
	if data := decode(t, rec)["data"].([]any); len(data) != 0 {
		t.Fatalf("expected empty list, got %d", len(data))
	}

	c, _ = newContext(http.MethodGet, "/consultants/farm/list", "", &domain.Actor{ID: "u1", Role: domain.RoleUser})
	if err := h.AcceptedFarms(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestConsultantHandler_FarmMembers(t *testing.T) {
	stub := &stubConsultantService{
		membersFn: func(_ context.Context, actor domain.Actor, farmID string) ([]*domain.MemberView, error) {
			if actor.ID != "c1" || farmID != "farm1" {
				return nil, domain.ErrForbidden
			}
			return []*domain.MemberView{memberView()}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/consultants/farm/farm1/member-list", "", &domain.Actor{ID: "c1", Role: domain.RoleConsultant})
	c.SetParamNames("farm_id")
	c.SetParamValues("farm1")

	if err := NewConsultantHandler(stub).FarmMembers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if data := decode(t, rec)["data"].([]any); len(data) != 1 {
		t.Fatalf("expected one member, got %d", len(data))
	}
}
