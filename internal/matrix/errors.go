package matrix

import (
	"errors"
	"fmt"
)

// MatrixError represents an error detected while editing the matrix.
//
// Matrix errors include:
//   - Capacity exceeded: combination count above the hard ceiling
//   - Max attributes: attribute count already at the configured maximum
//   - Validation failed: at least one variant violates a field invariant
//   - Persist failed: the persistence collaborator rejected the save
//
// None of these tear down the editor state; the operator can always undo,
// edit or retry.
type MatrixError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// VariantID identifies the affected variant, if any.
	VariantID string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes matrix errors.
type ErrorCode string

const (
	// ErrCodeCapacityExceeded indicates the combination count exceeds the hard ceiling.
	ErrCodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"

	// ErrCodeMaxAttributes indicates the attribute limit has been reached.
	ErrCodeMaxAttributes ErrorCode = "MAX_ATTRIBUTES"

	// ErrCodeValidationFailed indicates a field invariant is violated.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// ErrCodePersistFailed indicates the persistence collaborator failed.
	ErrCodePersistFailed ErrorCode = "PERSIST_FAILED"

	// ErrCodeEmptySelection indicates a bulk action with nothing selected.
	ErrCodeEmptySelection ErrorCode = "EMPTY_SELECTION"

	// ErrCodeUnknownAction indicates a bulk action kind the engine does not handle.
	ErrCodeUnknownAction ErrorCode = "UNKNOWN_ACTION"

	// ErrCodeNotFound indicates a referenced attribute, value or variant is missing.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Error implements the error interface.
func (e *MatrixError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.VariantID != "" {
		msg = fmt.Sprintf("%s (variant=%s)", msg, e.VariantID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *MatrixError) Unwrap() error {
	return e.Err
}

// Sentinel errors for matching with errors.Is.
var (
	ErrEmptySelection = &MatrixError{Code: ErrCodeEmptySelection, Message: "no variants selected"}
	ErrMaxAttributes  = &MatrixError{Code: ErrCodeMaxAttributes, Message: "maximum number of attributes reached"}
)

// Is matches MatrixErrors by code so wrapped sentinels compare equal.
func (e *MatrixError) Is(target error) bool {
	var t *MatrixError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// hasCode reports whether err is a MatrixError with the given code.
func hasCode(err error, code ErrorCode) bool {
	var me *MatrixError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsCapacityError returns true if err is a combination capacity error.
func IsCapacityError(err error) bool {
	return hasCode(err, ErrCodeCapacityExceeded)
}

// IsValidationError returns true if err reports failed field validation.
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeValidationFailed)
}

// IsPersistError returns true if err reports a failed save.
func IsPersistError(err error) bool {
	return hasCode(err, ErrCodePersistFailed)
}

// IsNotFound returns true if err reports a missing attribute, value or variant.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// NewCapacityError creates a MatrixError for a combination count above the ceiling.
func NewCapacityError(count, limit int) *MatrixError {
	return &MatrixError{
		Code:    ErrCodeCapacityExceeded,
		Message: fmt.Sprintf("too many combinations (%d > %d); remove some attribute values", count, limit),
		Details: map[string]string{
			"count": fmt.Sprintf("%d", count),
			"limit": fmt.Sprintf("%d", limit),
		},
	}
}

// NewMaxAttributesError creates a MatrixError for an attribute limit breach.
func NewMaxAttributesError(have, adding, limit int) *MatrixError {
	return &MatrixError{
		Code:    ErrCodeMaxAttributes,
		Message: fmt.Sprintf("at most %d attributes allowed (have %d, adding %d)", limit, have, adding),
		Details: map[string]string{
			"have":   fmt.Sprintf("%d", have),
			"adding": fmt.Sprintf("%d", adding),
			"limit":  fmt.Sprintf("%d", limit),
		},
	}
}

// NewValidationError creates a MatrixError summarizing failed variants.
func NewValidationError(failures map[string]string) *MatrixError {
	return &MatrixError{
		Code:    ErrCodeValidationFailed,
		Message: fmt.Sprintf("%d variant(s) failed validation", len(failures)),
		Details: failures,
	}
}

// NewPersistError wraps a persistence collaborator failure.
func NewPersistError(err error) *MatrixError {
	return &MatrixError{
		Code:    ErrCodePersistFailed,
		Message: "failed to save variants",
		Err:     err,
	}
}

func notFound(kind, id string) *MatrixError {
	return &MatrixError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %q not found", kind, id),
	}
}
