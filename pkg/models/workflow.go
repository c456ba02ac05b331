package models

import "time"

// WorkflowStatus is the lifecycle state of a provisioned workflow.
type WorkflowStatus string

const (
	WorkflowStatusActive WorkflowStatus = "active"
	WorkflowStatusPaused WorkflowStatus = "paused"
	WorkflowStatusError  WorkflowStatus = "error"
)

// Valid reports whether s is one of the known workflow statuses.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowStatusActive, WorkflowStatusPaused, WorkflowStatusError:
		return true
	}

	return false
}

// Workflow is the local record of a workflow provisioned in the automation
// service. N8NWorkflowID references the remote document; the webhook URLs are
// extracted from its trigger nodes after creation.
type Workflow struct {
	ID              string         `json:"id"`
	ClientID        string         `json:"client_id"`
	N8NWorkflowID   string         `json:"n8n_workflow_id"`
	WorkflowName    string         `json:"workflow_name"`
	Status          WorkflowStatus `json:"status"`
	LeadFormWebhook string         `json:"lead_form_webhook,omitempty"`
	IVRWebhook      string         `json:"ivr_webhook,omitempty"`
	N8NURL          string         `json:"n8n_url,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	LastActivity    *time.Time     `json:"last_activity,omitempty"`

	// Client is the owning client record, embedded under the "clients" key to
	// match the store's relationship embedding.
	Client *Client `json:"clients,omitempty"`
}
