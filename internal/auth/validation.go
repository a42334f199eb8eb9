package auth

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	maxNameLen     = 50
	maxEmailLen    = 254
	minPasswordLen = 8
	// bcrypt ignores everything after 72 bytes
	maxPasswordBytes = 72
)

var (
	personNamePattern = regexp.MustCompile(`^\p{L}[\p{L}\p{M} '.\-]*$`)

	nameRules     = fmt.Sprintf("required,max=%d,personname", maxNameLen)
	emailRules    = fmt.Sprintf("required,max=%d,email", maxEmailLen)
	passwordRules = fmt.Sprintf("required,min=%d,strongpassword", minPasswordLen)
)

// Validator checks the shape of account fields and request bodies.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Both registrations only fail on an empty tag name.
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates a request body against its validate tags.
func (v *Validator) Struct(s any) error {
	return v.v.Struct(s)
}

func (v *Validator) ValidName(name string) bool {
	return v.v.Var(name, nameRules) == nil
}

func (v *Validator) ValidEmail(email string) bool {
	return v.v.Var(email, emailRules) == nil
}

func (v *Validator) ValidPassword(password string) bool {
	return v.v.Var(password, passwordRules) == nil
}

// isStrongPassword requires a lowercase letter, an uppercase letter and a
// digit, within bcrypt's input limit.
func isStrongPassword(p string) bool {
	if len(p) > maxPasswordBytes {
		return false
	}
	var lower, upper, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
