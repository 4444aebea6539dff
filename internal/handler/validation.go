package handler

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// formatValidationErrors turns validator errors into field/message pairs
func formatValidationErrors(err error) []map[string]string {
	var details []map[string]string

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return details
	}

	for _, fieldErr := range validationErrors {
		details = append(details, map[string]string{
			"field":   fieldErr.Field(),
			"message": fmt.Sprintf("failed on '%s' validation", fieldErr.Tag()),
		})
	}

	return details
}
