// Package common holds the error taxonomy shared by the stores, the importer,
// the registry client and the notification dispatcher.
package common

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound means a lookup matched nothing.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the caller sent malformed or incomplete input.
	ErrValidation = errors.New("validation error")

	// ErrInvalidType means the notification type is not in the template table.
	ErrInvalidType = errors.New("invalid notification type")

	// ErrUpstream means an external HTTP call failed or returned a non-success status.
	ErrUpstream = errors.New("upstream transport error")

	// ErrUnauthorized means the request carries no valid caller identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmptyDataset means an import produced no usable rows.
	ErrEmptyDataset = errors.New("import produced no records")

	// ErrUnavailable means an optional collaborator (push provider) is not configured.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError names the offending fields. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields  []string
	Message string
}

// NewMissingFieldsError builds the error returned when required content fields are absent.
func NewMissingFieldsError(fields []string) *ValidationError {
	return &ValidationError{
		Fields:  fields,
		Message: "Missing required fields: " + strings.Join(fields, ", "),
	}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrValidation) succeed for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
