// Package models defines the records stored for agencies, clients, and
// provisioned workflows.
package models

import "time"

// Agency is a tenant grouping of clients. It holds the credentials for the
// agency's own automation-platform instance.
type Agency struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"                      validate:"required"`
	N8NInstanceURL string     `json:"n8n_instance_url,omitempty"`
	N8NAPIKey      string     `json:"n8n_api_key,omitempty"`
	OpenAIAPIKey   string     `json:"openai_api_key,omitempty"`
	TwilioAPIKey   string     `json:"twilio_api_key,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}
