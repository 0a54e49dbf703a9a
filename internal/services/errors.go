package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/marks-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Not found errors
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrClassNotFound      = errors.New("class not found")
	ErrSubjectNotFound    = errors.New("subject not found")

	// Precondition errors
	ErrMultipleClassGrades   = errors.New("exam timetable can only be edited when the assessment has exactly one class grade")
	ErrClassGradeNotInScope  = errors.New("class grade is not part of this assessment")
	ErrSubjectNotGraded      = errors.New("assessment has no marks defined for this subject")
	ErrSubjectNotTaughtClass = errors.New("subject is not taught to this class")
	ErrSubjectNotTaughtGrade = errors.New("subject is not taught to this class grade")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// PreconditionError reports an operation attempted in a state that does not support it.
type PreconditionError struct {
	Operation string `json:"operation"`
	Reason    error  `json:"-"`
}

func (pe *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", pe.Operation, pe.Reason)
}

func (pe *PreconditionError) Unwrap() error {
	return pe.Reason
}

// TransientError wraps a storage or network failure that is safe to retry.
type TransientError struct {
	Operation string
	Err       error
}

func (te *TransientError) Error() string {
	return fmt.Sprintf("%s failed: %v", te.Operation, te.Err)
}

func (te *TransientError) Unwrap() error {
	return te.Err
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// singleValidationError wraps one field problem as ValidationErrors.
func singleValidationError(field, message, rule string, value interface{}) ValidationErrors {
	var errs ValidationErrors
	errs.Add(field, message, rule, value)
	return errs
}

func NewPreconditionError(operation string, reason error) *PreconditionError {
	return &PreconditionError{Operation: operation, Reason: reason}
}

func NewTransientError(operation string, err error) *TransientError {
	return &TransientError{Operation: operation, Err: err}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssessmentNotFound) ||
		errors.Is(err, ErrClassNotFound) ||
		errors.Is(err, ErrSubjectNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsPrecondition checks if error represents an unsupported state
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsTransient checks if error represents a retryable infrastructure failure
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
