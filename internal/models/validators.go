package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"notely-be/internal/apperrors"
	"notely-be/internal/password"
)

// RegisterCustomValidators adds the project's tags to v and makes field errors
// report the JSON (or query) name of the field.
func RegisterCustomValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(fieldName)
	if err := v.RegisterValidation("otp", ValidateOTPRule); err != nil {
		return err
	}
	return v.RegisterValidation("password", ValidatePasswordRule)
}

// RegisterGinValidators installs the custom tags on gin's binding engine.
func RegisterGinValidators() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return RegisterCustomValidators(v)
	}
	return nil
}

// NewValidator returns a validator that reads the same `binding` tags gin
// does, for checks outside the HTTP boundary.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	if err := RegisterCustomValidators(v); err != nil {
		panic(err)
	}
	return v
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// ValidateOTPRule accepts exactly six ASCII digits.
func ValidateOTPRule(fl validator.FieldLevel) bool {
	return IsOTP(fl.Field().String())
}

func IsOTP(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidatePasswordRule rejects passwords longer than bcrypt can hash. The
// limit is in bytes, so multi-byte characters count for more than one.
func ValidatePasswordRule(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= password.MaxBytes
}

// ToValidationError converts validator failures into field-level details.
// Other errors are returned unchanged.
func ToValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &apperrors.ValidationError{}
	for _, fe := range verrs {
		ve.Add(fe.Field(), fieldMessage(fe))
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "otp":
		return "must be a 6-digit code"
	case "password":
		return fmt.Sprintf("must be at most %d bytes", password.MaxBytes)
	default:
		return "is invalid"
	}
}
