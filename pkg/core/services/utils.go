package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jakechorley/volunteer-portal/internal/config"
)

// ErrValidation wraps form validation failures; nothing is sent when it is returned
var ErrValidation = errors.New("validation failed")

// validateStruct runs the struct tags and reports failing fields as one ErrValidation
func validateStruct(v any) error {
	err := config.Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: invalid fields: %s", ErrValidation, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
