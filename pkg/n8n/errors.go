package n8n

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotFound indicates the automation service has no document with
	// the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found in automation service")

	// ErrMissingWorkflowID indicates a create response arrived without the
	// server-generated document identifier.
	ErrMissingWorkflowID = errors.New("created workflow missing id")

	// ErrUnexpectedListFormat indicates the list endpoint returned a body that
	// is neither an array nor a known envelope.
	ErrUnexpectedListFormat = errors.New("unexpected workflow list format")
)

// APIError carries the upstream status and body of a failed automation-service
// call so handlers can propagate them.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: automation service returned %d: %s", e.Op, e.Status, e.Body)
	}

	return fmt.Sprintf("%s: automation service returned %d", e.Op, e.Status)
}

// AsAPIError extracts an APIError from err, if one is present in its chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// IsNotFound checks if an error indicates a missing remote document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}
