// Package validation checks request structs against their `validate` tags.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report json names so messages match the request body
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s and returns an ErrInvalidInput listing every failed field.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.Errorf(models.ErrInvalidInput, "%s", err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, message(fe))
	}
	return models.Errorf(models.ErrInvalidInput, "%s", strings.Join(msgs, "; "))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + ": This field is required."
	case "email":
		return field + ": Enter a valid email address."
	case "max":
		return fmt.Sprintf("%s: Ensure this field has no more than %s characters.", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s: Ensure this field has at least %s items.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of %s.", field, fe.Param())
	case "datetime":
		return field + ": Date has wrong format. Use YYYY-MM-DD."
	case "latitude", "longitude":
		return fmt.Sprintf("%s: must be a valid %s.", field, fe.Tag())
	default:
		return fmt.Sprintf("%s: failed %s validation.", field, fe.Tag())
	}
}
