package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Tag     string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "min":
		return fmt.Sprintf("%s is below the allowed minimum", e.Field)
	case "max":
		return fmt.Sprintf("%s is above the allowed maximum", e.Field)
	case "oneof":
		return fmt.Sprintf("%s must be one of the allowed values", e.Field)
	default:
		return fmt.Sprintf("%s failed validation", e.Field)
	}
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks a configuration against its struct tags plus pipeline
// invariants the tags cannot express.
func Validate(cfg *Config) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})

	if err := validate.Struct(cfg); err != nil {
		var verrs ValidationErrors
		for _, fe := range err.(validator.ValidationErrors) {
			verrs = append(verrs, ValidationError{
				Field: fe.Namespace(),
				Tag:   fe.Tag(),
				Value: fe.Value(),
			})
		}
		return verrs
	}

	// Median of an even sample count averages two judgments; warn-level
	// concern but an explicit error keeps runs reproducible.
	if cfg.Grading.Samples%2 == 0 {
		return ValidationErrors{{
			Field:   "Grading.Samples",
			Message: "grading sample count must be odd so the median is a real sample",
		}}
	}

	return nil
}
