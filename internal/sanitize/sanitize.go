// Package sanitize cleans free-form user input before it reaches a query or
// a stored record.
package sanitize

import (
	"errors"
	"html"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidPhone = errors.New("invalid phone number")
)

const dateLayout = "2006-01-02"

var (
	strict     = bluemonday.StrictPolicy()
	spaces     = regexp.MustCompile(`\s+`)
	nameStrip  = regexp.MustCompile(`[^\p{L}\p{M} .'\-]`)
	phoneStrip = regexp.MustCompile(`[^\d]`)
)

// Text removes all markup, collapses runs of whitespace and trims.
func Text(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// Name keeps letters, spaces, '.', '\'' and '-'.
func Name(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(nameStrip.ReplaceAllString(Text(s), ""), " "))
}

// Phone keeps digits and an optional leading '+'. Punctuation used for
// grouping ("0812-3456 789") is dropped.
func Phone(s string) (string, error) {
	s = strings.TrimSpace(Text(s))
	if s == "" {
		return "", nil
	}
	plus := strings.HasPrefix(s, "+")
	digits := phoneStrip.ReplaceAllString(s, "")
	if len(digits) < 6 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	if plus {
		return "+" + digits, nil
	}
	return digits, nil
}

// Email lowercases, trims and validates a bare address.
func Email(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndex(s, "@")+1:], ".") {
		return "", ErrInvalidEmail
	}
	return s, nil
}

// Date accepts YYYY-MM-DD or an empty string.
func Date(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", ErrInvalidDate
	}
	return s, nil
}
