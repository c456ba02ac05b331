package models

import "time"

// Client is a contractor business a workflow is provisioned for. The record id
// is conventionally the business name, which is also how remote workflow names
// are reconciled back to clients.
type Client struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	BusinessName  string     `json:"business_name,omitempty"`
	OwnerName     string     `json:"owner_name,omitempty"`
	BusinessPhone string     `json:"business_phone,omitempty"`
	TwilioNumber  string     `json:"twilio_number,omitempty"`
	Website       string     `json:"website,omitempty"`
	AgencyID      string     `json:"agency_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}
