package utils

import (
	"errors"
	"strings"
)

// NormalizePhone strips spaces, dashes and parentheses so "+357 99 000000"
// and "+35799000000" key the same verification entry.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		switch r {
		case ' ', '-', '(', ')', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidatePhone accepts E.164-style numbers: a leading +, then 7 to 15 digits.
func ValidatePhone(phone string) error {
	p := NormalizePhone(phone)
	if !strings.HasPrefix(p, "+") {
		return errors.New("phone number must start with a country code, e.g. +357")
	}
	digits := p[1:]
	if len(digits) < 7 || len(digits) > 15 {
		return errors.New("phone number must have 7 to 15 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return errors.New("phone number may only contain digits after the +")
		}
	}
	return nil
}
