package domain

import (
	"errors"
	"sort"
	"strings"
)

// Lookup failures.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrOTPNotFound        = errors.New("otp not found")
	ErrFarmNotFound       = errors.New("farm not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrRequestNotFound    = errors.New("consultant request not found")
)

// Conflicts.
var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrMembershipExists = errors.New("membership already exists")
	ErrAlreadyLinked    = errors.New("consultant already linked to farm")
	ErrPendingRequest   = errors.New("pending consultant request already exists")
	ErrRoleMismatch     = errors.New("account role mismatch")
	ErrSelfRequest      = errors.New("farm and consultant are the same account")
)

// Verification and credential failures.
var (
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPLocked          = errors.New("otp locked after too many attempts")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrNotVerified        = errors.New("account not verified")
	ErrInvalidSecret      = errors.New("invalid secret key")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Authorization failures.
var (
	ErrAccountInactive = errors.New("account inactive")
	ErrPrivilegedRole  = errors.New("privileged role cannot self-register")
	ErrForbidden       = errors.New("access forbidden")
)

// ErrMailDelivery wraps failures of the outbound mail transport.
var ErrMailDelivery = errors.New("mail delivery failed")

// ValidationError collects per-field messages for a rejected input.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// FieldError is shorthand for a ValidationError with a single message.
func FieldError(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

// Add appends msg to the messages of field.
func (v *ValidationError) Add(field, msg string) {
	v.Fields[field] = append(v.Fields[field], msg)
}

// Empty reports whether no field messages were collected.
func (v *ValidationError) Empty() bool { return len(v.Fields) == 0 }

// OrNil returns v when it carries messages, nil otherwise.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
