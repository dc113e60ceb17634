package service

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"lead-crm/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal("validation failed", err)
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return domain.Validation("Validation failed", fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// ParsePage reads the raw page/limit query values. Empty values take the
// defaults; anything else must be a positive integer.
func ParsePage(rawPage, rawLimit string) (domain.Page, error) {
	p := domain.Page{Page: domain.DefaultPage, Limit: domain.DefaultLimit}
	var fields []domain.FieldError
	if n, ok := positiveInt(rawPage); !ok {
		fields = append(fields, domain.FieldError{Field: "page", Message: "must be a positive integer"})
	} else if n > 0 {
		p.Page = n
	}
	if n, ok := positiveInt(rawLimit); !ok {
		fields = append(fields, domain.FieldError{Field: "limit", Message: "must be a positive integer"})
	} else if n > 0 {
		p.Limit = n
	}
	if len(fields) == 0 && p.Page-1 > math.MaxInt/p.Limit {
		// the offset would not fit in an int
		fields = append(fields, domain.FieldError{Field: "page", Message: "is out of range"})
	}
	if len(fields) > 0 {
		return domain.Page{}, domain.Validation("Invalid pagination parameters", fields...)
	}
	return p, nil
}

// positiveInt returns (0, true) for an empty value.
func positiveInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
