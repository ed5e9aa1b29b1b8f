// Package validation checks registration and login form input before it
// reaches the network layer.
package validation

import (
	"regexp"
	"strings"

	"github.com/example/signlingo/internal/apperr"
)

const MinPasswordLength = 8

var (
	fullNamePattern = regexp.MustCompile(`^[A-Za-z\s]{3,}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._-]+@gmail\.com$`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
	specialPattern  = regexp.MustCompile(`[@#$%^&*!]`)
)

// User-facing messages
const (
	MsgFullName = "Name must be at least 3 letters (alphabets only)"
	MsgEmail    = "Invalid e-mail. Use a valid Gmail address"
	MsgPassword = "Min 8 chars with uppercase, lowercase, number & special char"
	MsgRequired = "Please fill in all fields"
)

// FullName accepts letters and spaces, at least three characters
func FullName(name string) bool {
	return fullNamePattern.MatchString(name)
}

// Email accepts Gmail addresses only
func Email(email string) bool {
	return emailPattern.MatchString(email)
}

// Password requires upper, lower, digit and a special character
func Password(pass string) bool {
	if len(pass) < MinPasswordLength {
		return false
	}
	return upperPattern.MatchString(pass) &&
		lowerPattern.MatchString(pass) &&
		digitPattern.MatchString(pass) &&
		specialPattern.MatchString(pass)
}

// Registration validates the full registration form
func Registration(fullName, email, password string) error {
	const op = "validate registration"
	if strings.TrimSpace(fullName) == "" || email == "" || password == "" {
		return apperr.New(apperr.Validation, op, MsgRequired)
	}
	if !FullName(fullName) {
		return apperr.New(apperr.Validation, op, MsgFullName)
	}
	if !Email(email) {
		return apperr.New(apperr.Validation, op, MsgEmail)
	}
	if !Password(password) {
		return apperr.New(apperr.Validation, op, MsgPassword)
	}
	return nil
}

// Login validates the login form. The password is only checked for presence.
func Login(email, password string) error {
	const op = "validate login"
	if email == "" || password == "" {
		return apperr.New(apperr.Validation, op, MsgRequired)
	}
	if !Email(email) {
		return apperr.New(apperr.Validation, op, MsgEmail)
	}
	return nil
}
