// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Input limits for account fields.
const (
	UsernameMaxLength = 150
	PasswordMinLength = 8
	PasswordMaxLength = 128
	EmailMaxLength    = 254
	URLMaxLength      = 255
)

// ValidatePassword checks length bounds and rejects purely numeric passwords.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < PasswordMinLength {
		return fmt.Errorf("password must be at least %d characters long", PasswordMinLength)
	}
	if n > PasswordMaxLength {
		return fmt.Errorf("password must not exceed %d characters", PasswordMaxLength)
	}

	numeric := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return fmt.Errorf("your password cannot be entirely numeric")
	}

	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}

	if utf8.RuneCountInString(username) > UsernameMaxLength {
		return fmt.Errorf("username must not exceed %d characters", UsernameMaxLength)
	}

	// Letters, digits and @/./+/-/_ only
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may contain only letters, numbers, and @/./+/-/_ characters")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	if len(email) > EmailMaxLength {
		return fmt.Errorf("email must not exceed %d characters", EmailMaxLength)
	}

	return nil
}

// ValidateURL accepts absolute http(s) URLs up to URLMaxLength bytes.
func ValidateURL(raw string) error {
	if len(raw) > URLMaxLength {
		return fmt.Errorf("ensure this value has at most %d characters", URLMaxLength)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") || strings.ContainsAny(u.Host, " ") {
		return fmt.Errorf("enter a valid URL")
	}
	return nil
}
