// Package validator wraps go-playground/validator with the API's custom rules
// and turns failures into apperrors validation errors keyed by JSON field name.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/rbac"

	"github.com/go-playground/validator/v10"
)

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func New() *Validator {
	return NewWithClock(time.Now)
}

// NewWithClock uses now for date rules such as notfuture.
func NewWithClock(now func() time.Time) *Validator {
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled()), now: now}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.validate.RegisterCustomTypeFunc(nullableValue[string], Nullable[string]{})

	v.mustRegister("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	v.mustRegister("slug", func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	// notreserved=<resource> consults the RBAC field policies.
	v.mustRegister("notreserved", func(fl validator.FieldLevel) bool {
		return !rbac.IsReserved(rbac.Resource(fl.Param()), fl.FieldName(), fl.Field().String())
	})
	v.mustRegister("notfuture", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(v.now().Year())
	})

	return v
}

func (v *Validator) mustRegister(tag string, fn validator.Func) {
	if err := v.validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Validate checks s and returns an *apperrors.Error of kind validation on failure.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make(map[string][]string)
	for _, fe := range validationErrors {
		fields[fe.Field()] = append(fields[fe.Field()], v.message(fe))
	}
	return apperrors.Validation(fields)
}

func (v *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "username":
		return "Enter a valid username. It may contain only letters, numbers, and @/./+/-/_ characters."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	case "notreserved":
		return fmt.Sprintf("%q is a reserved value.", fe.Value())
	case "notfuture":
		return fmt.Sprintf("Must not be later than %d.", v.now().Year())
	default:
		return fmt.Sprintf("Invalid value (failed on '%s' tag).", fe.Tag())
	}
}
