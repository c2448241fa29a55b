package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

// NewValidator returns a validator that reports wire field names (form tag, then json tag).
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
	_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, err := dto.OptionalFloat(fl.Field().String())
		return err == nil
	})
	return v
}

// validationFailure converts validator output into a 422 carrying per-field messages.
func validationFailure(err error) *appErrors.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "Validation failed")
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return appErrors.WithFields(appErrors.Clone(appErrors.ErrUnprocessable, "Validation failed"), fields)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "number":
		return fmt.Sprintf("The %s field must be an integer.", field)
	case "numeric", "decimal":
		return fmt.Sprintf("The %s field must be a number.", field)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "datetime":
		return fmt.Sprintf("The %s field must be a valid date.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
