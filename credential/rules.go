package credential

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Rule tags registered by RegisterRules.
const (
	TagIdentifier = "identifier"
	TagUsername   = "username"
	TagEmail      = "emailaddr"
	TagPassword   = "password"
	TagOTP        = "otp"
)

// RegisterRules installs the package predicates as validator tags and makes
// field errors report the json name of the field.
func RegisterRules(v *validator.Validate) error {
	rules := map[string]func(string) bool{
		TagIdentifier: ValidateIdentifier,
		TagUsername:   IsUsername,
		TagEmail:      IsEmail,
		TagPassword:   ValidatePassword,
		TagOTP:        IsOTP,
	}
	for tag, pred := range rules {
		pred := pred
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return pred(fl.Field().String())
		}); err != nil {
			return err
		}
	}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return nil
}

// NewValidator returns a validator with RegisterRules applied.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterRules(v); err != nil {
		// Registration only fails on an empty tag or nil func.
		panic(err)
	}
	return v
}

// FirstError converts the first violation reported by validator into the
// package taxonomy. eqfield violations become ErrPasswordMismatch.
func FirstError(err error) error {
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return err
	}
	fe := ve[0]
	if fe.Tag() == "eqfield" {
		return ErrPasswordMismatch
	}
	return &FieldError{Field: fe.Field(), Rule: fe.Tag()}
}
