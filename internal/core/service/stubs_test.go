package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// memDB backs every stub repository. Stored values are always clones so a
// shallow map copy is enough to snapshot it for rollback.
type memDB struct {
	mu       sync.Mutex
	seq      int
	accounts map[string]*domain.Account
	profiles map[string]*domain.Profile
	members  map[string]*domain.Membership
	requests map[string]*domain.ConsultantRequest
	links    map[string]*domain.ConsultantLink

	failMemberCreate error
}

func newMemDB() *memDB {
	return &memDB{
		accounts: make(map[string]*domain.Account),
		profiles: make(map[string]*domain.Profile),
		members:  make(map[string]*domain.Membership),
		requests: make(map[string]*domain.ConsultantRequest),
		links:    make(map[string]*domain.ConsultantLink),
	}
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s%04d", prefix, db.seq)
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func cloneProfile(p *domain.Profile) *domain.Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// stubTx snapshots memDB and restores it when fn fails.
type stubTx struct{ db *memDB }

func (t stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.db.mu.Lock()
	snap := struct {
		accounts map[string]*domain.Account
		profiles map[string]*domain.Profile
		members  map[string]*domain.Membership
		requests map[string]*domain.ConsultantRequest
		links    map[string]*domain.ConsultantLink
	}{maps.Clone(t.db.accounts), maps.Clone(t.db.profiles), maps.Clone(t.db.members), maps.Clone(t.db.requests), maps.Clone(t.db.links)}
	t.db.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.db.mu.Lock()
		t.db.accounts, t.db.profiles, t.db.members = snap.accounts, snap.profiles, snap.members
		t.db.requests, t.db.links = snap.requests, snap.links
		t.db.mu.Unlock()
		return err
	}
	return nil
}

type stubAccounts struct{ db *memDB }

func (r stubAccounts) Create(_ context.Context, acc *domain.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.accounts {
		if a.Email == acc.Email {
			return domain.ErrEmailTaken
		}
	}
	acc.ID = r.db.nextID("acc")
	r.db.accounts[acc.ID] = cloneAccount(acc)
	return nil
}

func (r stubAccounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r stubAccounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r stubAccounts) FindByIDs(_ context.Context, ids []string) (map[string]*domain.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[string]*domain.Account, len(ids))
	for _, id := range ids {
		if a, ok := r.db.accounts[id]; ok {
			out[id] = cloneAccount(a)
		}
	}
	return out, nil
}

func (r stubAccounts) Update(_ context.Context, acc *domain.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.accounts[acc.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	r.db.accounts[acc.ID] = cloneAccount(acc)
	return nil
}

func (r stubAccounts) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.accounts, id)
	return nil
}

func (r stubAccounts) List(_ context.Context) ([]*domain.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*domain.Account, 0, len(r.db.accounts))
	for _, a := range r.db.accounts {
		out = append(out, cloneAccount(a))
	}
	return out, nil
}

func (r stubAccounts) SearchByRoleAndName(_ context.Context, role domain.Role, name string, limit int) ([]domain.AccountProfile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.AccountProfile
	for id, a := range r.db.accounts {
		p, ok := r.db.profiles[id]
		if a.Role != role || !ok || !strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			continue
		}
		out = append(out, domain.AccountProfile{Account: cloneAccount(a), Profile: cloneProfile(p)})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r stubAccounts) count() int {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.accounts)
}

type stubProfiles struct{ db *memDB }

func (r stubProfiles) Create(_ context.Context, p *domain.Profile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.profiles[p.UserID]; ok {
		return errors.New("duplicate profile")
	}
	r.db.profiles[p.UserID] = cloneProfile(p)
	return nil
}

func (r stubProfiles) FindByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (r stubProfiles) FindByUserIDs(_ context.Context, ids []string) (map[string]*domain.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[string]*domain.Profile, len(ids))
	for _, id := range ids {
		if p, ok := r.db.profiles[id]; ok {
			out[id] = cloneProfile(p)
		}
	}
	return out, nil
}

func (r stubProfiles) Update(_ context.Context, p *domain.Profile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.profiles[p.UserID]; !ok {
		return domain.ErrProfileNotFound
	}
	r.db.profiles[p.UserID] = cloneProfile(p)
	return nil
}

func (r stubProfiles) DeleteByUserID(_ context.Context, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.profiles[userID]; !ok {
		return domain.ErrProfileNotFound
	}
	delete(r.db.profiles, userID)
	return nil
}

type stubMembers struct{ db *memDB }

func (r stubMembers) Create(_ context.Context, farm, farmUser *domain.Account) (*domain.Membership, error) {
	m, err := domain.NewMembership(farm, farmUser, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failMemberCreate != nil {
		return nil, r.db.failMemberCreate
	}
	for _, existing := range r.db.members {
		if existing.FarmID == m.FarmID && existing.FarmUserID == m.FarmUserID {
			return nil, domain.ErrMembershipExists
		}
	}
	m.ID = r.db.nextID("mem")
	c := *m
	r.db.members[m.ID] = &c
	return m, nil
}

func (r stubMembers) FindByID(_ context.Context, id string) (*domain.Membership, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.members[id]
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}
	c := *m
	return &c, nil
}

func (r stubMembers) ListActiveByFarm(_ context.Context, farmID string) ([]*domain.Membership, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*domain.Membership
	for _, m := range r.db.members {
		if m.FarmID == farmID && m.IsActive {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r stubMembers) FindActiveByFarmUser(_ context.Context, farmUserID string) (*domain.Membership, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.members {
		if m.FarmUserID == farmUserID && m.IsActive {
			c := *m
			return &c, nil
		}
	}
	return nil, domain.ErrMembershipNotFound
}

func (r stubMembers) SetActive(_ context.Context, id string, active bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.members[id]
	if !ok {
		return domain.ErrMembershipNotFound
	}
	c := *m
	c.IsActive = active
	r.db.members[id] = &c
	return nil
}

type stubConsultants struct{ db *memDB }

func (r stubConsultants) CreateRequest(_ context.Context, req *domain.ConsultantRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req.ID = r.db.nextID("req")
	c := *req
	r.db.requests[req.ID] = &c
	return nil
}

func (r stubConsultants) FindRequest(_ context.Context, id string) (*domain.ConsultantRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req, ok := r.db.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	c := *req
	return &c, nil
}

func (r stubConsultants) HasPendingRequest(_ context.Context, farmID, consultantID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, req := range r.db.requests {
		if req.FarmID == farmID && req.ConsultantID == consultantID && req.Status == domain.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (r stubConsultants) UpdateRequestStatus(_ context.Context, id string, from, to domain.RequestStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req, ok := r.db.requests[id]
	if !ok || req.Status != from {
		return domain.ErrRequestNotFound
	}
	c := *req
	c.Status = to
	r.db.requests[id] = &c
	return nil
}

func (r stubConsultants) listRequests(match func(*domain.ConsultantRequest) bool) []*domain.ConsultantRequest {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*domain.ConsultantRequest
	for _, req := range r.db.requests {
		if match(req) {
			c := *req
			out = append(out, &c)
		}
	}
	return out
}

func (r stubConsultants) ListRequestsByFarm(_ context.Context, farmID string, status domain.RequestStatus) ([]*domain.ConsultantRequest, error) {
	return r.listRequests(func(req *domain.ConsultantRequest) bool {
		return req.FarmID == farmID && req.Status == status
	}), nil
}

func (r stubConsultants) ListRequestsByConsultant(_ context.Context, consultantID string, status domain.RequestStatus) ([]*domain.ConsultantRequest, error) {
	return r.listRequests(func(req *domain.ConsultantRequest) bool {
		return req.ConsultantID == consultantID && req.Status == status
	}), nil
}

func (r stubConsultants) CreateLink(_ context.Context, l *domain.ConsultantLink) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.links {
		if existing.FarmID == l.FarmID && existing.ConsultantID == l.ConsultantID {
			return domain.ErrAlreadyLinked
		}
	}
	l.ID = r.db.nextID("lnk")
	c := *l
	r.db.links[l.ID] = &c
	return nil
}

func (r stubConsultants) HasActiveLink(_ context.Context, farmID, consultantID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.links {
		if l.FarmID == farmID && l.ConsultantID == consultantID && l.IsActive {
			return true, nil
		}
	}
	return false, nil
}

type stubOTPStore struct {
	mu   sync.Mutex
	otps map[string]*domain.OneTimeCode
}

func newStubOTPStore() *stubOTPStore {
	return &stubOTPStore{otps: make(map[string]*domain.OneTimeCode)}
}

func (s *stubOTPStore) Replace(_ context.Context, otp *domain.OneTimeCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *otp
	s.otps[otp.Email] = &c
	return nil
}

func (s *stubOTPStore) Get(_ context.Context, email string) (*domain.OneTimeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[email]
	if !ok {
		return nil, domain.ErrOTPNotFound
	}
	c := *otp
	return &c, nil
}

func (s *stubOTPStore) IncrementAttempts(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[email]
	if !ok {
		return 0, domain.ErrOTPNotFound
	}
	otp.Attempts++
	return otp.Attempts, nil
}

func (s *stubOTPStore) SetSecret(_ context.Context, email, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[email]
	if !ok {
		return domain.ErrOTPNotFound
	}
	otp.SecretKey = secret
	return nil
}

func (s *stubOTPStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.otps, email)
	return nil
}

func (s *stubOTPStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.otps)
}

func (s *stubOTPStore) code(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if otp, ok := s.otps[email]; ok {
		return otp.Code
	}
	return ""
}

type stubMailer struct {
	mu   sync.Mutex
	sent []domain.Mail
	err  error
}

func (m *stubMailer) Send(_ context.Context, mail domain.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []domain.Mail
}

func (n *stubNotifier) Notify(m domain.Mail) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
}

func (n *stubNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.Kind)
	}
	return out
}

// fixture wires every service over the in-memory stubs.
type fixture struct {
	db          *memDB
	accounts    stubAccounts
	profiles    stubProfiles
	otpStore    *stubOTPStore
	mailer      *stubMailer
	notifier    *stubNotifier
	clock       *fakeClock
	otps        *OTPService
	creds       *CredentialService
	sessions    *SessionIssuer
	profileSvc  *ProfileService
	auth        *AuthService
	members     *MemberService
	consultants *ConsultantService
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T, otpOpts ...OTPOption) *fixture {
	t.Helper()
	log := zerolog.New(io.Discard)

	f := &fixture{
		db:       newMemDB(),
		otpStore: newStubOTPStore(),
		mailer:   &stubMailer{},
		notifier: &stubNotifier{},
		clock:    &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	f.accounts = stubAccounts{db: f.db}
	f.profiles = stubProfiles{db: f.db}
	tx := stubTx{db: f.db}

	opts := append([]OTPOption{WithOTPClock(f.clock.Now)}, otpOpts...)
	f.otps = NewOTPService(f.otpStore, log, opts...)
	f.creds = NewCredentialService(f.accounts, f.profiles, bcrypt.MinCost)
	f.sessions = NewSessionIssuer("test-secret", time.Minute, time.Hour)
	f.profileSvc = NewProfileService(f.accounts, f.profiles, "US")
	f.auth = NewAuthService(AuthDeps{
		Accounts:    f.accounts,
		Profiles:    f.profiles,
		ProfileSvc:  f.profileSvc,
		Credentials: f.creds,
		OTPs:        f.otps,
		Sessions:    f.sessions,
		Mailer:      f.mailer,
		Notifier:    f.notifier,
		Tx:          tx,
	}, log)
	f.members = NewMemberService(f.accounts, f.profiles, stubMembers{db: f.db}, f.creds, f.profileSvc, tx, f.notifier, log)
	f.consultants = NewConsultantService(f.accounts, f.profiles, stubConsultants{db: f.db}, f.members, tx, log)
	return f
}

// seedAccount stores an account directly, bypassing the lifecycle.
func (f *fixture) seedAccount(t *testing.T, email, password string, role domain.Role, verified bool, name string) *domain.Account {
	t.Helper()
	acc, err := f.creds.Create(context.Background(), NewAccount{
		Email:    email,
		Password: password,
		Role:     role,
		Active:   verified,
		Verified: verified,
	})
	if err != nil {
		t.Fatalf("seed account %s: %v", email, err)
	}
	if name != "" {
		if err := f.profiles.Create(context.Background(), &domain.Profile{UserID: acc.ID, Name: name}); err != nil {
			t.Fatalf("seed profile %s: %v", email, err)
		}
	}
	return acc
}
