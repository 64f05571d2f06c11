package registration

import (
	"github.com/MrEthical07/loginflow/credential"
	"github.com/go-playground/validator/v10"
)

// Fields is the registration form. Rules are checked in declaration order
// and the first failure is reported.
type Fields struct {
	Username        string     `json:"username" validate:"username"`
	Email           string     `json:"email" validate:"emailaddr"`
	Password        string     `json:"password" validate:"password"`
	ConfirmPassword string     `json:"confirmPassword" validate:"eqfield=Password"`
	DOB             *BirthDate `json:"dob" validate:"required"`
}

// Validate checks f with the credential rules. It returns
// credential.ErrPasswordMismatch for a differing confirmation and a
// *credential.FieldError for anything else.
func Validate(v *validator.Validate, f Fields, minYear, maxYear int) error {
	if err := credential.FirstError(v.Struct(f)); err != nil {
		return err
	}
	if !f.DOB.Valid(minYear, maxYear) {
		return &credential.FieldError{Field: "dob", Rule: "date"}
	}
	return nil
}
