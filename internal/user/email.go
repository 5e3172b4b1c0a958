package user

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var ErrInvalidEmail = errors.New("invalid email address")

// NormalizeEmail trims and lowercases raw and accepts it only when it is a
// bare address, without a display name or angle brackets.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return email, nil
}
