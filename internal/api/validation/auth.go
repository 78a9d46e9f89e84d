package validation

import (
	"net/mail"
	"strings"
)

const minPasswordLength = 8

// LoginRequest mirrors the fields needed for login validation.
type LoginRequest struct {
	Email    string
	Password string
}

// ValidateLoginRequest validates the fields of a local login request.
func ValidateLoginRequest(req LoginRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	return errs
}

// ValidateEmail validates a single email field (magic-link requests).
func ValidateEmail(email string) []FieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return []FieldError{{Field: "email", Message: "email is required"}}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return []FieldError{{Field: "email", Message: "email must be a valid address"}}
	}
	return nil
}

// ValidatePassword validates a new password (setup and set-password flows).
func ValidatePassword(password string) []FieldError {
	if password == "" {
		return []FieldError{{Field: "password", Message: "password is required"}}
	}
	if len(password) < minPasswordLength {
		return []FieldError{{Field: "password", Message: "password must be at least 8 characters"}}
	}
	return nil
}
