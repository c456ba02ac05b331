// Package store provides repositories for agencies, clients, and workflows
// over the relational store's REST interface.
package store

import (
	"errors"
	"fmt"
)

// PostgREST error codes the service distinguishes.
const (
	codeUniqueViolation = "23505"
	codeMissingTable    = "PGRST116"
)

var (
	// ErrNotConfigured indicates the store credentials were not supplied. The
	// server keeps running; operations fail with a configuration hint.
	ErrNotConfigured = errors.New("relational store not configured: set SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY (or SUPABASE_ANON_KEY)")

	// ErrAgencyNotFound indicates an agency was not found by the given identifier.
	ErrAgencyNotFound = errors.New("agency not found")

	// ErrClientNotFound indicates a client was not found by the given identifier.
	ErrClientNotFound = errors.New("client not found")

	// ErrWorkflowNotFound indicates a workflow record was not found.
	ErrWorkflowNotFound = errors.New("workflow record not found")

	// ErrConflict indicates a uniqueness constraint rejected the write.
	ErrConflict = errors.New("record already exists")
)

// StoreError wraps a failed store call with the table and the upstream
// PostgREST error code and message.
type StoreError struct {
	Op      string
	Table   string
	Code    string
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s on %s failed: %s (code %s)", e.Op, e.Table, e.Message, e.Code)
	}

	if e.Message != "" {
		return fmt.Sprintf("%s on %s failed: %s", e.Op, e.Table, e.Message)
	}

	return fmt.Sprintf("%s on %s failed: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsNotFound checks if an error indicates any missing store record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAgencyNotFound) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrWorkflowNotFound)
}

// IsConflict checks if an error indicates a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotConfigured checks if an error indicates missing store credentials.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
