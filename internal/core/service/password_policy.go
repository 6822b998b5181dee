package service

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

const minPasswordLength = 8

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "sunshine": {},
	"princess": {}, "football": {}, "baseball": {}, "welcome1": {}, "abc12345": {},
	"11111111": {}, "00000000": {}, "letmein1": {}, "trustno1": {}, "admin123": {},
	"passw0rd": {}, "superman": {}, "starwars": {}, "whatever": {}, "dragon123": {},
}

// PasswordPolicy rejects weak passwords. Violations are reported together.
type PasswordPolicy struct {
	MinLength int
}

func NewPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: minPasswordLength}
}

// Check returns a *domain.ValidationError under field listing every rule
// password breaks, or nil.
func (p PasswordPolicy) Check(field, password, email string) error {
	verr := domain.NewValidationError()

	if len([]rune(password)) < p.MinLength {
		verr.Add(field, fmt.Sprintf("This password is too short. It must contain at least %d characters.", p.MinLength))
	}
	if password != "" && isNumeric(password) {
		verr.Add(field, "This password is entirely numeric.")
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		verr.Add(field, "This password is too common.")
	}
	if similarToEmail(password, email) {
		verr.Add(field, "The password is too similar to the email address.")
	}

	return verr.OrNil()
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func similarToEmail(password, email string) bool {
	pw := strings.ToLower(password)
	email = domain.NormalizeEmail(email)
	if email == "" || pw == "" {
		return false
	}
	if pw == email {
		return true
	}
	local := domain.DefaultProfileName(email)
	return len(local) >= 4 && strings.Contains(pw, local)
}
