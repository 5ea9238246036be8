// utils/validation.go
package utils

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var tenDigits = regexp.MustCompile(`^\d{10}$`)

// ValidatePhone reports whether phone is exactly ten digits.
func ValidatePhone(phone string) bool {
	return tenDigits.MatchString(phone)
}

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return ValidatePhone(fl.Field().String())
	})
}

// FieldErrors flattens binding errors into field -> message.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["body"] = "Invalid request body"
		return out
	}
	for _, fe := range verrs {
		out[lowerFirst(fe.Field())] = messageFor(fe)
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email address"
	case "phone10":
		return "Phone number must be exactly 10 digits"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "oneof":
		return "Must be one of: " + fe.Param()
	}
	return "Invalid value"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
