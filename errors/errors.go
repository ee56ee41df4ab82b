// Package errors provides structured error types for the macrosnap sync engine.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error into the categories the sync engine reacts to.
type Kind string

const (
	// KindUnavailable means the remote account gate failed (no account,
	// restricted, or undetermined). Gates the whole sync; never surfaced as a
	// blocking user error.
	KindUnavailable Kind = "UNAVAILABLE"

	// KindTransient covers timeouts and rate limits. The next triggered sync
	// is the retry mechanism.
	KindTransient Kind = "TRANSIENT"

	// KindSchemaNotProvisioned means the remote zone or record type does not
	// exist yet. Expected on first run and suppressed from user-visible state.
	KindSchemaNotProvisioned Kind = "SCHEMA_NOT_PROVISIONED"

	// KindStorage is a local persistence failure (validation, medium
	// unavailable). Aborts only the current kind's phase.
	KindStorage Kind = "STORAGE"

	// KindData is a malformed record or missing required field. The offending
	// record is skipped; the pass continues.
	KindData Kind = "DATA"

	// KindNotFound is a missing remote record, e.g. deleting an already
	// deleted record.
	KindNotFound Kind = "NOT_FOUND"

	// KindInvalid is a caller error: bad configuration or arguments.
	KindInvalid Kind = "INVALID"
)

// Operation names the sync operation during which an error occurred.
type Operation string

const (
	OpSync         Operation = "sync"
	OpPush         Operation = "push"
	OpPull         Operation = "pull"
	OpDedup        Operation = "dedup"
	OpStore        Operation = "store"
	OpLoad         Operation = "load"
	OpDelete       Operation = "delete"
	OpAccountCheck Operation = "account_check"
	OpEnsureZone   Operation = "ensure_zone"
	OpClose        Operation = "close"
)

// SyncError is the structured error carried through every sync phase.
type SyncError struct {
	// Operation during which the error occurred
	Op Operation

	// Component that generated the error (e.g., "store", "remote")
	Component string

	// Kind classifies the error for phase-level handling
	Kind Kind

	// Underlying error
	Err error

	// Whether the next sync attempt may succeed
	Retryable bool

	// Metadata for additional context
	Metadata map[string]interface{}
}

func (e *SyncError) Error() string {
	var msg string
	if e.Component != "" {
		msg = fmt.Sprintf("%s operation failed in %s component", e.Op, e.Component)
	} else {
		msg = fmt.Sprintf("%s operation failed", e.Op)
	}

	if e.Kind != "" {
		msg += fmt.Sprintf(" [%s]", e.Kind)
	}

	return msg + fmt.Sprintf(": %v", e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// New creates a new SyncError.
func New(op Operation, err error) *SyncError {
	return &SyncError{
		Op:  op,
		Err: err,
	}
}

// NewWithComponent creates a new SyncError with component information.
func NewWithComponent(op Operation, component string, err error) *SyncError {
	return &SyncError{
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// NewRetryable creates a new retryable SyncError.
func NewRetryable(op Operation, err error) *SyncError {
	return &SyncError{
		Op:        op,
		Err:       err,
		Kind:      KindTransient,
		Retryable: true,
	}
}

// NewStorageError creates a local-persistence SyncError.
func NewStorageError(op Operation, cause error) *SyncError {
	return &SyncError{
		Kind:      KindStorage,
		Op:        op,
		Component: "store",
		Err:       cause,
	}
}

// NewDataError creates a per-record data SyncError.
func NewDataError(op Operation, cause error) *SyncError {
	return &SyncError{
		Kind: KindData,
		Op:   op,
		Err:  cause,
	}
}

// NewUnavailableError creates an account-availability SyncError.
func NewUnavailableError(op Operation, cause error) *SyncError {
	return &SyncError{
		Kind:      KindUnavailable,
		Op:        op,
		Component: "remote",
		Err:       cause,
	}
}

// NewSchemaNotProvisioned creates the benign first-run SyncError.
func NewSchemaNotProvisioned(op Operation, cause error) *SyncError {
	return &SyncError{
		Kind:      KindSchemaNotProvisioned,
		Op:        op,
		Component: "remote",
		Err:       cause,
	}
}

// NewValidationError creates an invalid-argument SyncError.
func NewValidationError(op Operation, cause error) *SyncError {
	return &SyncError{
		Kind: KindInvalid,
		Op:   op,
		Err:  cause,
	}
}

// KindOf extracts the Kind from an error chain, or "" if it carries none.
func KindOf(err error) Kind {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Kind
	}
	return ""
}

// IsRetryable checks if an error is a retryable SyncError.
func IsRetryable(err error) bool {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Retryable
	}
	return false
}

// IsSchemaNotProvisioned reports whether err is the benign first-run condition.
func IsSchemaNotProvisioned(err error) bool {
	return KindOf(err) == KindSchemaNotProvisioned
}

// IsUnavailable reports whether err is an account-availability failure.
func IsUnavailable(err error) bool {
	return KindOf(err) == KindUnavailable
}

// IsNotFound reports whether err is a missing-record failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
