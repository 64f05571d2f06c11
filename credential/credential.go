package credential

import (
	"regexp"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password accepted at login, registration
// and reset.
const MinPasswordLength = 8

// OTPLength is the number of digits in an email verification code.
const OTPLength = 6

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,20}$`)
)

// IsEmail reports whether value has the local@domain.tld shape with no
// whitespace in either part.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// IsUsername reports whether value is 3 to 20 characters from [A-Za-z0-9_.-].
func IsUsername(value string) bool {
	return usernamePattern.MatchString(value)
}

// ValidateIdentifier reports whether value is usable as a login identifier,
// either an email address or a username.
func ValidateIdentifier(value string) bool {
	return IsEmail(value) || IsUsername(value)
}

// ValidatePassword reports whether value satisfies the length policy.
// Length is counted in characters, not bytes.
func ValidatePassword(value string) bool {
	return utf8.RuneCountInString(value) >= MinPasswordLength
}

// PasswordsMatch reports whether the confirmation equals the password.
func PasswordsMatch(password, confirmation string) bool {
	return password == confirmation
}

// IsOTP reports whether value is exactly OTPLength ASCII digits.
func IsOTP(value string) bool {
	if len(value) != OTPLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
