package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
)

// validate is the shared validator instance. Custom enum validators are
// registered once here; field names in errors come from the json tags so
// messages match the wire shape callers see.
var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("techniquecategory", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("sessiontype", func(fl validator.FieldLevel) bool {
		return SessionType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("beltrank", func(fl validator.FieldLevel) bool {
		return BeltRank(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("tagcategory", func(fl validator.FieldLevel) bool {
		return TagCategory(fl.Field().String()).Valid()
	})

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateStruct runs tag validation and converts the first failure into
// an apperror.ValidationFailed with a readable message.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperror.ValidationFailed(fe.Field(), validationMessage(fe))
	}
	return apperror.ValidationFailed("", err.Error())
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be %s characters or less", field, fe.Param())
		case reflect.Slice, reflect.Map, reflect.Array:
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		default:
			return fmt.Sprintf("%s must be at most %s", field, fe.Param())
		}
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "techniquecategory":
		return fmt.Sprintf("%s must be one of: %s", field, joinCategories())
	case "sessiontype":
		return fmt.Sprintf("%s must be one of: gi, nogi, open-mat, wrestling", field)
	case "beltrank":
		return fmt.Sprintf("%s must be one of: white, blue, purple, brown, black", field)
	case "tagcategory":
		return fmt.Sprintf("%s must be one of: position, attribute, style, custom", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func joinCategories() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// trimStrings trims whitespace from every element, keeping order and
// repeats.
func trimStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// dedupeStrings removes exact duplicates, preserving first-occurrence
// order. Comparison is case-sensitive.
func dedupeStrings(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
