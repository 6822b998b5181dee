package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

func register(t *testing.T, f *fixture, email string) *domain.Account {
	t.Helper()
	acc, err := f.auth.Register(context.Background(), ports.RegisterInput{Email: email, Password: "pw123456", Name: "Alice"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return acc
}

func TestAuthService_Register_IssuesSingleOTP(t *testing.T) {
	f := newFixture(t)

	acc := register(t, f, "a@x.com")

	if acc.Role != domain.RoleUser || acc.IsVerified || acc.IsActive {
		t.Fatalf("unexpected account state: %+v", acc)
	}
	if f.otpStore.count() != 1 {
		t.Fatalf("expected exactly one otp, got %d", f.otpStore.count())
	}
	otp, _ := f.otpStore.Get(context.Background(), "a@x.com")
	if !otp.CreatedAt.Equal(f.clock.Now()) || f.otps.TTL() != 120*time.Second {
		t.Fatalf("otp must expire 120s after creation, created=%v ttl=%v", otp.CreatedAt, f.otps.TTL())
	}
	if len(f.mailer.sent) != 1 || f.mailer.sent[0].To != "a@x.com" || f.mailer.sent[0].Kind != "otp" {
		t.Fatalf("expected one otp mail, got %+v", f.mailer.sent)
	}
	p, err := f.profiles.FindByUserID(context.Background(), acc.ID)
	if err != nil || p.Name != "Alice" {
		t.Fatalf("expected profile named Alice, got %+v %v", p, err)
	}
}

func TestAuthService_Register_RoleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.auth.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "pw123456", Name: "A", Role: "admin"}); !errors.Is(err, domain.ErrPrivilegedRole) {
		t.Fatalf("expected ErrPrivilegedRole, got %v", err)
	}

	_, err := f.auth.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "pw123456", Name: "A", Role: "farm_user"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields["role"]) == 0 {
		t.Fatalf("expected role validation error, got %v", err)
	}

	acc, err := f.auth.Register(ctx, ports.RegisterInput{Email: "farm@x.com", Password: "pw123456", Name: "Farm", Role: "farm"})
	if err != nil || acc.Role != domain.RoleFarm {
		t.Fatalf("expected farm account, got %v %v", acc, err)
	}
}

func TestAuthService_Register_CollectsFieldErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(context.Background(), ports.RegisterInput{Role: "wizard"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"email", "password", "name", "role"} {
		if len(verr.Fields[field]) == 0 {
			t.Fatalf("missing error for %s: %v", field, verr.Fields)
		}
	}
}

func TestAuthService_Register_VerifiedEmailConflict(t *testing.T) {
	f := newFixture(t)
	f.seedAccount(t, "a@x.com", "pw123456", domain.RoleUser, true, "a")

	_, err := f.auth.Register(context.Background(), ports.RegisterInput{Email: "a@x.com", Password: "pw123456", Name: "A"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Register_MailFailureKeepsAccount(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	_, err := f.auth.Register(context.Background(), ports.RegisterInput{Email: "a@x.com", Password: "pw123456", Name: "A"})
	if !errors.Is(err, domain.ErrMailDelivery) {
		t.Fatalf("expected ErrMailDelivery, got %v", err)
	}
	if _, err := f.accounts.FindByEmail(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("account must survive a mail failure: %v", err)
	}

	f.mailer.err = nil
	acc, _ := f.accounts.FindByEmail(context.Background(), "a@x.com")
	if err := f.auth.ResendOTP(context.Background(), ports.OTPTarget{UserID: acc.ID}); err != nil {
		t.Fatalf("ResendOTP: %v", err)
	}
}

func TestAuthService_VerifyAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := register(t, f, "a@x.com")

	if _, err := f.auth.VerifyAccount(ctx, acc.ID, "000000"); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}

	res, err := f.auth.VerifyAccount(ctx, acc.ID, f.otpStore.code("a@x.com"))
	if err != nil {
		t.Fatalf("VerifyAccount: %v", err)
	}
	if !res.Account.IsVerified || !res.Account.IsActive {
		t.Fatalf("account not activated: %+v", res.Account)
	}
	if res.Session.AccessToken == "" || res.Session.RefreshToken == "" {
		t.Fatalf("expected tokens")
	}
	if res.Profile == nil || res.Profile.Name != "Alice" {
		t.Fatalf("unexpected profile %+v", res.Profile)
	}
	if f.otpStore.count() != 0 {
		t.Fatalf("otp must be consumed")
	}

	stored, _ := f.accounts.FindByID(ctx, acc.ID)
	if !stored.IsVerified || !stored.IsActive {
		t.Fatalf("activation not persisted")
	}

	if _, err := f.auth.VerifyAccount(ctx, acc.ID, "123456"); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("second verification must fail with ErrAlreadyVerified, got %v", err)
	}
	if err := f.auth.ResendOTP(ctx, ports.OTPTarget{Email: "a@x.com"}); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified on resend, got %v", err)
	}
}

func TestAuthService_VerifyAccount_ExpiredThenReissued(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := register(t, f, "a@x.com")
	code := f.otpStore.code("a@x.com")

	f.clock.Advance(121 * time.Second)
	if _, err := f.auth.VerifyAccount(ctx, acc.ID, code); !errors.Is(err, domain.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}

	if err := f.auth.ResendOTP(ctx, ports.OTPTarget{UserID: acc.ID}); err != nil {
		t.Fatalf("ResendOTP: %v", err)
	}
	if _, err := f.auth.VerifyAccount(ctx, acc.ID, f.otpStore.code("a@x.com")); err != nil {
		t.Fatalf("fresh code should verify: %v", err)
	}
}

func TestAuthService_ResendOTP_UnknownAccount(t *testing.T) {
	f := newFixture(t)
	if err := f.auth.ResendOTP(context.Background(), ports.OTPTarget{UserID: "missing"}); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	var verr *domain.ValidationError
	if err := f.auth.ResendOTP(context.Background(), ports.OTPTarget{}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.seedAccount(t, "a@x.com", "pw123456", domain.RoleFarm, true, "")

	res, err := f.auth.Login(ctx, "a@x.com", "pw123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Account.ID != acc.ID || res.Session.AccessToken == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Profile == nil || res.Profile.Name != "a" {
		t.Fatalf("expected lazily created profile named after the email, got %+v", res.Profile)
	}
}

func TestAuthService_Login_FailureShapes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAccount(t, "a@x.com", "pw123456", domain.RoleUser, true, "")
	register(t, f, "pending@x.com")

	_, errUnknown := f.auth.Login(ctx, "ghost@x.com", "pw123456")
	_, errWrong := f.auth.Login(ctx, "a@x.com", "bad-password")
	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) || !errors.Is(errWrong, domain.ErrInvalidCredentials) {
		t.Fatalf("expected uniform ErrInvalidCredentials, got %v / %v", errUnknown, errWrong)
	}

	if _, err := f.auth.Login(ctx, "pending@x.com", "pw123456"); !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.seedAccount(t, "a@x.com", "pw123456", domain.RoleUser, true, "")

	userID, err := f.auth.RequestPasswordReset(ctx, "a@x.com")
	if err != nil || userID != acc.ID {
		t.Fatalf("RequestPasswordReset: %q %v", userID, err)
	}

	if _, err := f.auth.AuthorizeReset(ctx, acc.ID, "000000"); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}

	secret, err := f.auth.AuthorizeReset(ctx, acc.ID, f.otpStore.code("a@x.com"))
	if err != nil || secret == "" {
		t.Fatalf("AuthorizeReset: %q %v", secret, err)
	}
	if f.otpStore.count() != 1 {
		t.Fatalf("otp must be kept until the reset completes")
	}

	if err := f.auth.CompleteReset(ctx, acc.ID, "wrong", "brand-new-pass"); !errors.Is(err, domain.ErrInvalidSecret) {
		t.Fatalf("expected ErrInvalidSecret, got %v", err)
	}

	var verr *domain.ValidationError
	if err := f.auth.CompleteReset(ctx, acc.ID, secret, "123"); !errors.As(err, &verr) || len(verr.Fields["new_password"]) == 0 {
		t.Fatalf("expected new_password policy error, got %v", err)
	}

	if err := f.auth.CompleteReset(ctx, acc.ID, secret, "brand-new-pass"); err != nil {
		t.Fatalf("CompleteReset: %v", err)
	}
	if _, err := f.auth.Login(ctx, "a@x.com", "brand-new-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	if err := f.auth.CompleteReset(ctx, acc.ID, secret, "another-pass-2"); !errors.Is(err, domain.ErrOTPNotFound) {
		t.Fatalf("reusing the secret must fail with ErrOTPNotFound, got %v", err)
	}
	if got := f.notifier.kinds(); len(got) != 1 || got[0] != "password_changed" {
		t.Fatalf("expected one password_changed notification, got %v", got)
	}
}

func TestAuthService_RequestPasswordReset_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "pending@x.com")

	if _, err := f.auth.RequestPasswordReset(ctx, "ghost@x.com"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := f.auth.RequestPasswordReset(ctx, "pending@x.com"); !errors.Is(err, domain.ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.seedAccount(t, "a@x.com", "pw123456", domain.RoleUser, true, "")

	if err := f.auth.ChangePassword(ctx, acc.ID, "nope", "brand-new-pass"); !errors.Is(err, domain.ErrIncorrectPassword) {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}

	var verr *domain.ValidationError
	if err := f.auth.ChangePassword(ctx, acc.ID, "", ""); !errors.As(err, &verr) || len(verr.Fields) != 2 {
		t.Fatalf("expected both fields reported, got %v", err)
	}

	if err := f.auth.ChangePassword(ctx, acc.ID, "pw123456", "brand-new-pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := f.auth.Login(ctx, "a@x.com", "brand-new-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAccount(t, "a@x.com", "pw123456", domain.RoleUser, true, "")
	res, _ := f.auth.Login(ctx, "a@x.com", "pw123456")

	access, err := f.auth.Refresh(ctx, res.Session.RefreshToken)
	if err != nil || access == "" {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := f.auth.Refresh(ctx, "garbage"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
