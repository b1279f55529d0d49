package services

import (
	"errors"

	apperrors "github.com/tetex-tech/exam-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Exam document errors
	ErrExamNotFound      = errors.New("exam not found")
	ErrDocumentMalformed = errors.New("exam document is malformed")

	// Packaging errors
	ErrPackagingFailed  = errors.New("failed to package submission")
	ErrPackagingTimeout = errors.New("submission packaging timed out")

	// Viewer errors. Decode failures are deliberately collapsed into one
	// sentinel so responses never reveal whether the archive, the key
	// envelope, or the ciphertext was at fault.
	ErrDecryptionFailed = errors.New("failed to decrypt result archive")
	ErrExportFailed     = errors.New("failed to export result workbook")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrExamNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsDecryptionFailure reports whether err is the opaque viewer decode error.
func IsDecryptionFailure(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}
