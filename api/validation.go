package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ValidateRequest returns one detail per failed struct tag, or nil.
func ValidateRequest(obj any) []ErrorDetail {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []ErrorDetail{{Kind: "InvalidCommand", Message: err.Error()}}
	}

	details := make([]ErrorDetail, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, ErrorDetail{
			Field:   fe.Field(),
			Kind:    "InvalidCommand",
			Message: getErrorMsg(fe),
		})
	}
	return details
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "numeric":
		return "Value must be a decimal number"
	case "max":
		return "Value is too long"
	case "email":
		return "Value must be a valid email address"
	case "oneof":
		return "Value must be one of: " + err.Param()
	default:
		return "Invalid value"
	}
}
