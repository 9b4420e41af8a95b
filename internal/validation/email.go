package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var ErrInvalidEmail = errors.New("invalid email address")

// ValidateEmail accepts a bare RFC 5322 address of at most 254 characters.
// Display-name forms like "Bob <bob@example.com>" are rejected.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: required", ErrInvalidEmail)
	}
	if len(email) > 254 {
		return fmt.Errorf("%w: too long (max 254 characters)", ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) || addr.Name != "" {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	return nil
}
