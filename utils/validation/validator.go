package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// PhoneRegex accepts local 09xxxxxxxxx numbers and the +98 international form
	PhoneRegex = regexp.MustCompile(`^(\+98|0)?9\d{9}$`)

	// slugUnsafe matches everything that may not appear in a slug
	slugUnsafe = regexp.MustCompile(`[^a-z0-9\-]+`)
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New()

	// phone tag for Iranian mobile numbers
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return PhoneRegex.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to a field -> message map
func FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			field := strings.ToLower(e.Field())
			switch e.Tag() {
			case "required":
				errors[field] = fmt.Sprintf("%s is required", e.Field())
			case "phone":
				errors[field] = "Invalid phone number"
			case "email":
				errors[field] = "Invalid email format"
			case "min":
				errors[field] = fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
			case "max":
				errors[field] = fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
			case "oneof":
				errors[field] = fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
			default:
				errors[field] = fmt.Sprintf("%s is invalid", e.Field())
			}
		}
	}

	return errors
}

// SanitizeString trims whitespace and strips control characters
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// NormalizePhone converts +98 numbers to the local 0-prefixed form
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+98") {
		return "0" + phone[3:]
	}
	if strings.HasPrefix(phone, "98") && len(phone) == 12 {
		return "0" + phone[2:]
	}
	return phone
}

// Slugify builds a URL-safe slug from a title
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugUnsafe.ReplaceAllString(s, "")
	s = strings.Trim(s, "-")
	return s
}
