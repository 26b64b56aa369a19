package users

import (
	"fmt"
	"regexp"

	"github.com/ilepins/userauth/internal/shared"
)

const (
	usernameMinLength = 3
	usernameMaxLength = 50
	passwordMinLength = 8
	passwordMaxLength = 128
)

var (
	usernamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	uppercasePattern = regexp.MustCompile(`[A-Z]`)
	lowercasePattern = regexp.MustCompile(`[a-z]`)
	digitPattern     = regexp.MustCompile(`\d`)
	emailPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// validateUsername checks length and character-set constraints.
func validateUsername(username string) error {
	if len(username) < usernameMinLength || len(username) > usernameMaxLength || !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-50 characters and contain only letters, numbers, and underscores", shared.ErrInvalidUsername)
	}
	return nil
}

// validatePassword enforces the password policy. The returned error names the
// first unmet rule.
func validatePassword(password string) error {
	switch {
	case password == "":
		return fmt.Errorf("%w: password is required", shared.ErrWeakPassword)
	case len(password) < passwordMinLength:
		return fmt.Errorf("%w: password must be at least %d characters long", shared.ErrWeakPassword, passwordMinLength)
	case len(password) > passwordMaxLength:
		return fmt.Errorf("%w: password must be no more than %d characters long", shared.ErrWeakPassword, passwordMaxLength)
	case !uppercasePattern.MatchString(password):
		return fmt.Errorf("%w: password must contain at least one uppercase letter", shared.ErrWeakPassword)
	case !lowercasePattern.MatchString(password):
		return fmt.Errorf("%w: password must contain at least one lowercase letter", shared.ErrWeakPassword)
	case !digitPattern.MatchString(password):
		return fmt.Errorf("%w: password must contain at least one number", shared.ErrWeakPassword)
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", shared.ErrInvalidInput)
	}
	return nil
}
