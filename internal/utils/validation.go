package contextutils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	// Digits only; the validator "numeric" tag would also admit sign and decimal point.
	citizenMobileRegex = regexp.MustCompile(`^[0-9]{10}$`)
)

// IsValidCitizenMobile checks that a citizen mobile number is exactly 10 digits.
func IsValidCitizenMobile(mobile string) bool {
	return citizenMobileRegex.MatchString(mobile)
}

// IsValidUsername checks that a username is 3-50 characters of letters, digits and underscores.
func IsValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 50 {
		return false
	}
	return usernameRegex.MatchString(username)
}

// IsValidPassword checks the minimum password length requirement.
func IsValidPassword(password string) bool {
	return validate.Var(password, "required,min=6") == nil
}
