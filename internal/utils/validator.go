// internal/utils/validator.go
package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	// NIT: 9 or 10 digits, optionally followed by a dash and the check digit.
	nitPattern = regexp.MustCompile(`^[0-9]{6,10}(-[0-9])?$`)
	otpPattern = regexp.MustCompile(`^[0-9]{6}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("slug", matchPattern(slugPattern))
	validate.RegisterValidation("nit", validateNIT)
	validate.RegisterValidation("otp_code", matchPattern(otpPattern))
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func matchPattern(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func validateNIT(fl validator.FieldLevel) bool {
	nit := strings.ReplaceAll(strings.TrimSpace(fl.Field().String()), ".", "")
	return nitPattern.MatchString(nit)
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasNumber bool

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	return hasUpper && hasLower && hasNumber
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "strong_password":
		return "Password must have at least 8 characters with uppercase, lowercase and a number"
	case "slug":
		return e.Field() + " must contain only lowercase letters, numbers and dashes"
	case "nit":
		return "NIT must have 6 to 10 digits and an optional check digit"
	case "otp_code":
		return "Code must have 6 digits"
	default:
		return e.Field() + " is invalid"
	}
}
