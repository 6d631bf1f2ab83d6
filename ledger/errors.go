/*
errors.go - Centralized error types for the ledger engine

ERROR CATEGORIES:
  1. Validation errors - user-correctable input (block the action, keep state)
  2. Import errors - catalog file yields nothing usable (abort whole import)
  3. Configuration anomalies - e.g. a negative tax rate (reject before math)
  4. Persistence failures - snapshot write failed (warning, memory stays valid)

No error is retried automatically.

USAGE:
  if errors.Is(err, ledger.ErrPersistence) {
      // state changed in memory; tell the operator the snapshot is stale
  }
*/
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of every user-correctable input error.
	ErrValidation = errors.New("validation failed")

	// ErrImport is returned when a catalog import cannot produce any product.
	ErrImport = errors.New("import failed")

	// ErrInvalidTaxRate guards the exclusive-amount division.
	ErrInvalidTaxRate = errors.New("invalid tax rate")

	// ErrPersistence is returned when the in-memory mutation succeeded but the
	// snapshot could not be written.
	ErrPersistence = errors.New("snapshot not persisted")

	// ErrEmptyIdentity is returned when a receipt has no receipt number.
	ErrEmptyIdentity = errors.New("receipt number is required")

	// ErrDocumentNotFound is returned when a linkage correction matches nothing.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrNonNumericReceiptNumber is returned when auto-increment cannot parse
	// the current receipt number.
	ErrNonNumericReceiptNumber = errors.New("receipt number is not numeric")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError names one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field problem found in one pass.
type ValidationError struct {
	Action string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s", e.Action, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ImportError explains why a catalog import was aborted.
type ImportError struct {
	Source   string
	Reason   string
	Expected string // column semantics the importer looks for
	Err      error
}

func (e *ImportError) Error() string {
	msg := fmt.Sprintf("import %s: %s", e.Source, e.Reason)
	if e.Expected != "" {
		msg += " (expected columns: " + e.Expected + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ImportError) Unwrap() error {
	return ErrImport
}

// PersistError reports which snapshot could not be written.
type PersistError struct {
	Snapshot string
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("snapshot %s not persisted: %v", e.Snapshot, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrImport) ||
		errors.Is(err, ErrInvalidTaxRate) ||
		errors.Is(err, ErrEmptyIdentity) ||
		errors.Is(err, ErrNonNumericReceiptNumber)
}

// IsNotFound returns true if the error indicates a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// IsWarning returns true if the operation took effect and only the snapshot
// is behind.
func IsWarning(err error) bool {
	return errors.Is(err, ErrPersistence)
}
