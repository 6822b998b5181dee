package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/milkmix/farm-backend/internal/api/middleware"
	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

// newContext builds an echo context with the validator installed. A non-nil
// actor is injected the way the Auth middleware does it.
func newContext(method, target, body string, actor *domain.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != nil {
		c.Set(middleware.ContextAccountID, actor.ID)
		c.Set(middleware.ContextRole, actor.Role)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

// --- Auth ---

type stubAuthService struct {
	registerFn       func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error)
	resendFn         func(ctx context.Context, target ports.OTPTarget) error
	verifyFn         func(ctx context.Context, userID, code string) (*domain.AuthResult, error)
	loginFn          func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	requestResetFn   func(ctx context.Context, email string) (string, error)
	authorizeResetFn func(ctx context.Context, userID, code string) (string, error)
	completeResetFn  func(ctx context.Context, userID, secret, newPassword string) error
	changeFn         func(ctx context.Context, accountID, current, next string) error
	refreshFn        func(ctx context.Context, token string) (string, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) ResendOTP(ctx context.Context, target ports.OTPTarget) error {
	return s.resendFn(ctx, target)
}

func (s *stubAuthService) VerifyAccount(ctx context.Context, userID, code string) (*domain.AuthResult, error) {
	return s.verifyFn(ctx, userID, code)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return s.requestResetFn(ctx, email)
}

func (s *stubAuthService) AuthorizeReset(ctx context.Context, userID, code string) (string, error) {
	return s.authorizeResetFn(ctx, userID, code)
}

func (s *stubAuthService) CompleteReset(ctx context.Context, userID, secret, newPassword string) error {
	return s.completeResetFn(ctx, userID, secret, newPassword)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, accountID, current, next string) error {
	return s.changeFn(ctx, accountID, current, next)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (string, error) {
	return s.refreshFn(ctx, token)
}

// --- Profiles ---

type stubProfileService struct {
	getFn    func(ctx context.Context, accountID string) (*domain.AccountProfile, error)
	updateFn func(ctx context.Context, accountID string, upd domain.ProfileUpdate) (*domain.Profile, error)
	listFn   func(ctx context.Context) ([]domain.AccountProfile, error)
}

func (s *stubProfileService) GetOrCreate(ctx context.Context, acc *domain.Account) (*domain.Profile, error) {
	ap, err := s.getFn(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	return ap.Profile, nil
}

func (s *stubProfileService) Get(ctx context.Context, accountID string) (*domain.AccountProfile, error) {
	return s.getFn(ctx, accountID)
}

func (s *stubProfileService) Update(ctx context.Context, accountID string, upd domain.ProfileUpdate) (*domain.Profile, error) {
	return s.updateFn(ctx, accountID, upd)
}

func (s *stubProfileService) ListAccounts(ctx context.Context) ([]domain.AccountProfile, error) {
	return s.listFn(ctx)
}

// --- Members ---

type stubMemberService struct {
	addFn        func(ctx context.Context, actor domain.Actor, in ports.AddMemberInput) (*domain.MemberView, error)
	listFn       func(ctx context.Context, farmID string) ([]*domain.MemberView, error)
	selfFn       func(ctx context.Context, farmUserID string) (*domain.MemberView, error)
	deactivateFn func(ctx context.Context, actor domain.Actor, memberID string) error
}

func (s *stubMemberService) AddMember(ctx context.Context, actor domain.Actor, in ports.AddMemberInput) (*domain.MemberView, error) {
	return s.addFn(ctx, actor, in)
}

func (s *stubMemberService) ListMembers(ctx context.Context, farmID string) ([]*domain.MemberView, error) {
	return s.listFn(ctx, farmID)
}

func (s *stubMemberService) GetSelfMembership(ctx context.Context, farmUserID string) (*domain.MemberView, error) {
	return s.selfFn(ctx, farmUserID)
}

func (s *stubMemberService) DeactivateMember(ctx context.Context, actor domain.Actor, memberID string) error {
	return s.deactivateFn(ctx, actor, memberID)
}

// --- Consultants ---

type stubConsultantService struct {
	searchFn   func(ctx context.Context, name string) ([]domain.AccountProfile, error)
	sendFn     func(ctx context.Context, actor domain.Actor, farmID, consultantID string) (*domain.ConsultantRequestView, error)
	manageFn   func(ctx context.Context, actor domain.Actor, requestID string, action domain.RequestAction) (*domain.ConsultantRequestView, error)
	pendingFn  func(ctx context.Context, actor domain.Actor) ([]*domain.ConsultantRequestView, error)
	acceptedFn func(ctx context.Context, actor domain.Actor) ([]*domain.ConsultantRequestView, error)
	membersFn  func(ctx context.Context, actor domain.Actor, farmID string) ([]*domain.MemberView, error)
}

func (s *stubConsultantService) SearchFarms(ctx context.Context, name string) ([]domain.AccountProfile, error) {
	return s.searchFn(ctx, name)
}

func (s *stubConsultantService) SendRequest(ctx context.Context, actor domain.Actor, farmID, consultantID string) (*domain.ConsultantRequestView, error) {
	return s.sendFn(ctx, actor, farmID, consultantID)
}

func (s *stubConsultantService) ManageRequest(ctx context.Context, actor domain.Actor, requestID string, action domain.RequestAction) (*domain.ConsultantRequestView, error) {
	return s.manageFn(ctx, actor, requestID, action)
}

func (s *stubConsultantService) PendingRequests(ctx context.Context, actor domain.Actor) ([]*domain.ConsultantRequestView, error) {
	return s.pendingFn(ctx, actor)
}

func (s *stubConsultantService) AcceptedFarms(ctx context.Context, actor domain.Actor) ([]*domain.ConsultantRequestView, error) {
	return s.acceptedFn(ctx, actor)
}

func (s *stubConsultantService) FarmMembers(ctx context.Context, actor domain.Actor, farmID string) ([]*domain.MemberView, error) {
	return s.membersFn(ctx, actor, farmID)
}
