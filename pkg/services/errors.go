package services

import (
	"errors"
	"fmt"
)

var (
	// Validation errors (400 Bad Request).
	ErrInvalidStatus     = errors.New("invalid workflow status")
	ErrMissingRemoteID   = errors.New("workflow record missing automation-service id")
	ErrMissingLinkTarget = errors.New("link_existing_workflow requires existing_n8n_workflow_id")
	ErrEmptyTemplate     = errors.New("workflow template is required")
	ErrEmptyBusinessName = errors.New("business name is required")
)

// ProvisionError reports a provisioning failure together with the furthest
// step the flow reached before failing.
type ProvisionError struct {
	Step Step
	Err  error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning failed at %s: %v", e.Step, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is a client error that should return
// HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrMissingRemoteID) ||
		errors.Is(err, ErrMissingLinkTarget) ||
		errors.Is(err, ErrEmptyTemplate) ||
		errors.Is(err, ErrEmptyBusinessName)
}
