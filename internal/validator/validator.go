package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/tetex-tech/exam-service/internal/models"
)

// Validator wraps struct-tag validation for inbound requests and fetched
// exam documents.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new validator instance with the custom rules registered.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate performs validation and converts field errors to the shared type
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if converted := ToValidationErrors(err); len(converted) > 0 {
			return converted
		}
		return err
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("grading_type", validateGradingType)
	validate.RegisterValidation("username", validateUsername)
}

func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).IsValid()
}

func validateGradingType(fl validator.FieldLevel) bool {
	switch models.GradingType(fl.Field().String()) {
	case models.GradingAuto, models.GradingManual, "":
		return true
	}
	return false
}

// validateUsername bounds the username; it becomes part of the archive
// filename, so it must stay a sane length.
func validateUsername(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return len(name) >= 1 && len(name) <= 100
}
