package services

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidationError carries a field-level message, surfaced verbatim to the
// caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var (
	usernameCharsRe = regexp.MustCompile(`^[a-z0-9._]+$`)
	emailRe         = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ValidateUsername enforces ^(?![_.])(?!.*[_.]$)[a-z0-9._]+$ (RE2 has no
// lookaheads, so the edge rules are explicit) plus the 3..20 length bounds.
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return &ValidationError{Field: "username", Message: "must be at least 3 characters"}
	}
	if len(username) > 20 {
		return &ValidationError{Field: "username", Message: "cannot exceed 20 characters"}
	}
	if !usernameCharsRe.MatchString(username) ||
		strings.HasPrefix(username, "_") || strings.HasPrefix(username, ".") ||
		strings.HasSuffix(username, "_") || strings.HasSuffix(username, ".") {
		return &ValidationError{
			Field:   "username",
			Message: "only lowercase letters, numbers, _ and . are allowed, cannot start or end with _ or .",
		}
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return &ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword requires >=8 chars with at least one uppercase, one
// lowercase and one digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		return &ValidationError{Field: "password", Message: "must contain at least one uppercase letter"}
	}
	if !lower {
		return &ValidationError{Field: "password", Message: "must contain at least one lowercase letter"}
	}
	if !digit {
		return &ValidationError{Field: "password", Message: "must contain at least one number"}
	}
	return nil
}
