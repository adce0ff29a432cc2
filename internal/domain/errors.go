// Package domain contains business logic types and errors.
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/gRPC/etc by adapters.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a state conflict such as an overlapping sync cycle.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates business rule validation failed.
	ErrValidation = errors.New("validation failed")

	// ErrImport indicates external data was rejected before reaching the collection.
	ErrImport = errors.New("import rejected")

	// ErrStorage indicates a durable storage operation failed.
	ErrStorage = errors.New("storage failure")

	// ErrUnavailable indicates a required collaborator is unavailable.
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity   string
	Selector string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("%s not found for %s", e.Entity, e.Selector)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, selector string) error {
	return &NotFoundError{Entity: entity, Selector: selector}
}

// ConflictError provides context for conflict errors.
type ConflictError struct {
	Entity string
	Reason string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewConflictError creates a conflict error with context.
func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the invalid value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ImportErrorKind distinguishes the ways imported data can be rejected.
type ImportErrorKind int

const (
	// ImportMalformed means the payload was not parseable as structured data.
	ImportMalformed ImportErrorKind = iota

	// ImportInvalidShape means the payload parsed but is not an ordered
	// sequence of quote-shaped records.
	ImportInvalidShape
)

// String returns a stable name for the kind.
func (k ImportErrorKind) String() string {
	switch k {
	case ImportMalformed:
		return "malformed"
	case ImportInvalidShape:
		return "invalid_shape"
	default:
		return "unknown"
	}
}

// ImportError provides context for rejected imports.
type ImportError struct {
	Kind   ImportErrorKind
	Detail string
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("import rejected (%s): %s", e.Kind, e.Detail)
	}

	return fmt.Sprintf("import rejected (%s)", e.Kind)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ImportError) Unwrap() error {
	return ErrImport
}

// NewImportError creates an import error with context.
func NewImportError(kind ImportErrorKind, detail string) error {
	return &ImportError{Kind: kind, Detail: detail}
}

// ImportKind extracts the kind from an import error chain.
func ImportKind(err error) (ImportErrorKind, bool) {
	var importErr *ImportError
	if errors.As(err, &importErr) {
		return importErr.Kind, true
	}

	return 0, false
}

// StorageError provides context for durable storage failures.
// The cause is retained for logging but the chain unwraps to ErrStorage:
// callers branch on the taxonomy, not on driver internals.
type StorageError struct {
	Op    string
	Key   string
	Cause error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage %s %q failed: %v", e.Op, e.Key, e.Cause)
	}

	return fmt.Sprintf("storage %s %q failed", e.Op, e.Key)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *StorageError) Unwrap() error {
	return ErrStorage
}

// NewStorageError creates a storage error with context.
func NewStorageError(op, key string, cause error) error {
	return &StorageError{Op: op, Key: key, Cause: cause}
}

// UnavailableError provides context for unavailable collaborators.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsImport checks if an error is an import error.
func IsImport(err error) bool {
	return errors.Is(err, ErrImport)
}

// IsStorage checks if an error is a storage error.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
