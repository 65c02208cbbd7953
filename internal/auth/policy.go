package auth

import "strings"

// passwordSpecials is the punctuation set a password must draw from.
const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// MinPasswordLength is the minimum accepted password length in characters.
const MinPasswordLength = 8

// AcceptablePassword reports whether a plaintext password meets the
// strength policy: at least MinPasswordLength characters with at least
// one uppercase letter, one lowercase letter, one digit, and one
// character from passwordSpecials. Pure function, no side effects.
func AcceptablePassword(password string) bool {
	var length int
	var upper, lower, digit, special bool
	for _, r := range password {
		length++
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return length >= MinPasswordLength && upper && lower && digit && special
}
