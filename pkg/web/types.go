// Package web provides the HTTP handlers and request/response types for the
// dashboard API.
package web

import "encoding/json"

// CreateAgencyRequest is the body for registering an agency with its
// automation-platform credentials.
type CreateAgencyRequest struct {
	Name           string `json:"name"             validate:"required,min=1"`
	N8NInstanceURL string `json:"n8n_instance_url" validate:"required,url"`
	N8NAPIKey      string `json:"n8n_api_key"      validate:"required"`
	OpenAIAPIKey   string `json:"openai_api_key"   validate:"required"`
	TwilioAPIKey   string `json:"twilio_api_key"   validate:"required"`
}

// CreateWorkflowRequest is the body for provisioning a workflow. The two
// phone numbers must already be in normalized international format; the e164
// tags enforce server-side what the original UI only attempted client-side.
type CreateWorkflowRequest struct {
	BusinessName  string `json:"business_name"  validate:"required"`
	OwnerName     string `json:"owner_name"     validate:"required"`
	BusinessPhone string `json:"business_phone" validate:"required,e164"`
	TwilioNumber  string `json:"twilio_number"  validate:"required,e164"`
	Website       string `json:"website"        validate:"omitempty"`
	AgencyID      string `json:"agency_id"      validate:"omitempty"`

	LinkExistingWorkflow  bool   `json:"link_existing_workflow"`
	ExistingN8NWorkflowID string `json:"existing_n8n_workflow_id" validate:"omitempty"`
	ForceCreate           bool   `json:"force_create"`
}

// UpdateWorkflowRequest is the body for updating a workflow record's status.
type UpdateWorkflowRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused error"`
}

// ImportWorkflowRequest is the body for importing a raw workflow document
// into the automation service.
type ImportWorkflowRequest struct {
	WorkflowTemplate json.RawMessage `json:"workflow_template" validate:"required"`
	WorkflowName     string          `json:"workflow_name"`
}
