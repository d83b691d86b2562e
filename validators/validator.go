// Package validators plugs go-playground/validator into echo and turns its
// failures into field-level messages suitable for a form.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/anonto42/job-board/backend/internal/models"
	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to a human readable message
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + fe[f]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator implements echo.Validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the job board's custom rules registered
func NewValidator() *Validator {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	_ = validate.RegisterValidation("trimmed_min", func(fl validator.FieldLevel) bool {
		min, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= min
	})

	_ = validate.RegisterValidation("jobtype", func(fl validator.FieldLevel) bool {
		return models.JobType(fl.Field().String()).Valid()
	})

	return &Validator{validate: validate}
}

// Validate checks i and returns FieldErrors when any rule fails
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

var requiredMessages = map[string]string{
	"title":       "Job title is required",
	"company":     "Company name is required",
	"location":    "Location is required",
	"description": "Job description is required",
	"job_type":    "Job type is required",
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		if msg, ok := requiredMessages[fe.Field()]; ok {
			return msg
		}
		return "This field is required"
	case "trimmed_min":
		if fe.Field() == "description" {
			return fmt.Sprintf("Description must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "jobtype":
		names := make([]string, len(models.JobTypes))
		for i, t := range models.JobTypes {
			names[i] = string(t)
		}
		return "Job type must be one of " + strings.Join(names, ", ")
	case "email":
		return "Must be a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	}
	return fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
}
