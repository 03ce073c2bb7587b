package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their json names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct runs the validate tags of s and maps the first failure to ErrValidation.
func checkStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return validationErr("", err)
	}
	return nil
}

// checkVar validates a single value, used for optional patch fields.
func checkVar(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return validationErr(field, err)
	}
	return nil
}

func validationErr(field string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fe := verrs[0]
	if field == "" {
		field = fe.Field()
	}

	unit := "characters"
	if fe.Kind() == reflect.Slice {
		unit = "items"
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s required", ErrValidation, field)
	case "max":
		return fmt.Errorf("%w: %s must be at most %s %s", ErrValidation, field, fe.Param(), unit)
	case "min":
		return fmt.Errorf("%w: %s must be at least %s %s", ErrValidation, field, fe.Param(), unit)
	case "email":
		return fmt.Errorf("%w: %s must be a valid email", ErrValidation, field)
	case "gt":
		return fmt.Errorf("%w: %s must be > %s", ErrValidation, field, fe.Param())
	case "gte":
		return fmt.Errorf("%w: %s must be >= %s", ErrValidation, field, fe.Param())
	case "lte":
		return fmt.Errorf("%w: %s must be <= %s", ErrValidation, field, fe.Param())
	default:
		return fmt.Errorf("%w: %s is invalid (%s)", ErrValidation, field, fe.Tag())
	}
}

// nameFields checks the optional name fields of a patch and returns the
// columns to update. With required set, first_name and surname may not be
// blanked.
func nameFields(required bool, first, second, surname *string) (map[string]any, error) {
	mainTag := "max=50"
	if required {
		mainTag = "required,max=50"
	}
	fields := map[string]any{}
	for _, f := range []struct {
		column string
		value  *string
		tag    string
	}{
		{"first_name", first, mainTag},
		{"second_name", second, "max=50"},
		{"surname", surname, mainTag},
	} {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if err := checkVar(f.column, v, f.tag); err != nil {
			return nil, err
		}
		fields[f.column] = v
	}
	return fields, nil
}
