package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Check validates v against its `validate` tags and reports the first
// failing field as a validation error.
func Check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	fe := fields[0]
	switch fe.Tag() {
	case "required":
		return Invalid(fe.Field() + " is required")
	case "email":
		return Invalid(fe.Field() + " must be a valid email")
	case "min":
		return Invalid(fe.Field() + " must be at least " + fe.Param() + " characters")
	case "max":
		return Invalid(fe.Field() + " must be at most " + fe.Param() + " characters")
	}
	return Invalid(fe.Field() + " is invalid")
}
