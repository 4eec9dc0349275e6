// Package phone normalizes player contact numbers to E.164.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidNumber = errors.New("invalid phone number")

const minDigits = 10

// IsPhoneNumber reports whether s looks like a phone number rather than an
// email or free text: only digits and common separators, at least ten digits.
func IsPhoneNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= minDigits
}

// Normalize parses raw using region as the default country (ISO 3166-1
// alpha-2, e.g. "GB") and returns it in E.164 form.
func Normalize(raw, region string) (string, error) {
	if !IsPhoneNumber(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidNumber, err)
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return "", fmt.Errorf("%w: %q is not a possible number", ErrInvalidNumber, raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
