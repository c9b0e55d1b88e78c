package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/go-playground/validator/v10"
)

// requiredMessages replaces the generic "is required" for fields whose
// wording clients already display.
var requiredMessages = map[string]string{
	"name":            "Please add a name",
	"email":           "Please add an email",
	"password":        "Please add a password",
	"currentPassword": "Please provide your current password",
	"newPassword":     "Please provide a new password",
}

func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("lead_email", func(fl validator.FieldLevel) bool {
		return models.IsValidEmail(fl.Field().String())
	})
	return v
}

// ValidationMessage renders the first failed rule of err.
func ValidationMessage(err error) (field, message string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", err.Error()
	}
	fe := verrs[0]
	field = fe.Field()
	switch fe.Tag() {
	case "required":
		if msg, ok := requiredMessages[field]; ok {
			return field, msg
		}
		return field, field + " is required"
	case "lead_email", "email":
		return field, "Please add a valid email"
	case "min":
		return field, field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field, field + " must have at most " + fe.Param() + " items"
	case "oneof":
		return field, field + " must be one of: " + fe.Param()
	case "uuid":
		return field, field + " must be a valid id"
	default:
		return field, field + " is invalid"
	}
}
