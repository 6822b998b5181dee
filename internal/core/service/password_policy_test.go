package service

import (
	"errors"
	"testing"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

func TestPasswordPolicy_Check(t *testing.T) {
	p := NewPasswordPolicy()

	tests := []struct {
		name     string
		password string
		email    string
		wantMsgs int
	}{
		{"valid", "pw123456", "a@x.com", 0},
		{"too short", "abc12", "a@x.com", 1},
		{"numeric", "1234567890123", "a@x.com", 1},
		{"common and numeric", "12345678", "a@x.com", 2},
		{"similar to email", "farmer-joe-2024", "farmer-joe@x.com", 1},
		{"short numeric", "1234", "a@x.com", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Check("password", tt.password, tt.email)
			if tt.wantMsgs == 0 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if got := len(verr.Fields["password"]); got != tt.wantMsgs {
				t.Fatalf("expected %d messages, got %d: %v", tt.wantMsgs, got, verr.Fields)
			}
		})
	}
}
