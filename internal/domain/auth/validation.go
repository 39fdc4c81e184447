package auth

import (
	"strings"

	"perfreview/internal/domain/apperr"
)

const (
	MinNameLength     = 2
	MinPasswordLength = 6
)

func ValidatePassword(issues *apperr.Issues, field, password string) {
	if len(password) < MinPasswordLength {
		issues.Add(field, "must be at least 6 characters long")
	}
	if !strings.ContainsAny(password, "0123456789") {
		issues.Add(field, "must contain at least one number")
	}
}

func ValidateName(issues *apperr.Issues, field, value string) {
	if len([]rune(strings.TrimSpace(value))) < MinNameLength {
		issues.Add(field, "must be at least 2 characters")
	}
}

// ValidateEmail is a shape check only; deliverability is not verified.
func ValidateEmail(issues *apperr.Issues, field, value string) {
	value = strings.TrimSpace(value)
	at := strings.LastIndex(value, "@")
	if at < 1 || at == len(value)-1 || strings.ContainsAny(value, " \t") || !strings.Contains(value[at+1:], ".") {
		issues.Add(field, "must be a valid email")
	}
}
