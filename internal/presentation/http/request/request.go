package request

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/drxagencia/dashboards/pkg/errorbank"
)

// Validator adapts go-playground/validator to echo.
type Validator struct {
	v *validator.Validate
}

// NewValidator reports field errors under their JSON names.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i any) error {
	return cv.v.Struct(i)
}

var defaultValidator = NewValidator()

// Bind decodes the request body into dst and validates it. Failures come
// back as bad_request errors with a field -> rule detail map.
func Bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	v := c.Echo().Validator
	if v == nil {
		v = defaultValidator
	}
	if err := v.Validate(dst); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			details := make(map[string]any, len(fields))
			for _, fe := range fields {
				details[fe.Field()] = fe.Tag()
			}
			return errorbank.BadRequest("invalid payload", errorbank.WithDetails(details))
		}
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	return nil
}
