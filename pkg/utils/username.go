package utils

import (
	"errors"
	"strings"
)

// ValidateUsername enforces the account naming rules: 3-20 characters,
// letters, digits and underscores only, must start with a letter.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	if len(username) > 20 {
		return errors.New("username must be at most 20 characters")
	}
	first := username[0]
	if !(first >= 'a' && first <= 'z') && !(first >= 'A' && first <= 'Z') {
		return errors.New("username must start with a letter")
	}
	for _, r := range username {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			continue
		}
		return errors.New("username may only contain letters, digits and underscores")
	}
	return nil
}

// NormalizeUsername lowercases the username for case-insensitive uniqueness.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
