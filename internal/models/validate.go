package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so messages match the wire format.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateRequest validates a request struct and converts the first failure into a *ValidationError.
func ValidateRequest(req interface{}) error {
	return validateStruct(req)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	field := lowerFirst(fe.Field())
	return &ValidationError{Field: field, Message: fieldMessage(field, fe)}
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		switch field {
		case "text":
			return "Entry text cannot be empty"
		case "entryId":
			return "Entry ID is required"
		case "images":
			return "No images provided"
		}
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must contain valid URLs", field)
	case "email":
		return "A valid email address is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		if field == "images" {
			return "No images provided"
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// lowerFirst normalises "images[0]" to "images" and "Text" to "text".
func lowerFirst(s string) string {
	if i := strings.Index(s, "["); i > 0 {
		s = s[:i]
	}
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// IsImageURL reports whether s is an absolute URL usable as an image reference.
func IsImageURL(s string) bool {
	return validate.Var(s, "required,url") == nil
}
