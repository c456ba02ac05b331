// Package n8n is a client for the automation service's public REST API. The
// workflow documents it exchanges are externally owned JSON graphs; nodes are
// kept as raw maps so fields this service does not understand round-trip
// untouched.
package n8n

import "encoding/json"

// Node type tags used by the document contract. Matching inside a document is
// always by type tag plus a case-insensitive name keyword.
const (
	NodeTypeWebhook     = "n8n-nodes-base.webhook"
	NodeTypeSet         = "n8n-nodes-base.set"
	NodeTypeSupabase    = "n8n-nodes-base.supabase"
	NodeTypeHTTPRequest = "n8n-nodes-base.httpRequest"
)

// Node is a single node of a workflow document. Only the handful of fields the
// service reads have accessors; everything else is opaque.
type Node map[string]any

func (n Node) str(key string) string {
	v, _ := n[key].(string)

	return v
}

func (n Node) Name() string { return n.str("name") }

func (n Node) Type() string { return n.str("type") }

// WebhookID is the server-generated callback identifier on trigger nodes.
func (n Node) WebhookID() string { return n.str("webhookId") }

// Parameters returns the node's parameter object, or nil when absent.
func (n Node) Parameters() map[string]any {
	m, _ := n["parameters"].(map[string]any)

	return m
}

// Document is a workflow document as served by the automation API. ID, Active,
// and the timestamps are server-owned; create payloads carry only the fields
// in CreatePayload.
type Document struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Active      bool           `json:"active,omitempty"`
	Nodes       []Node         `json:"nodes,omitempty"`
	Connections map[string]any `json:"connections,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	StaticData  map[string]any `json:"staticData,omitempty"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy of the document via a JSON round trip, so edits to
// the copy never leak into the original node maps.
func (d *Document) Clone() (*Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}

	var copied Document
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, err
	}

	return &copied, nil
}

// CreatePayload is the subset of a document the create endpoint accepts. The
// API rejects server-owned fields such as id, active, and the timestamps.
type CreatePayload struct {
	Name        string         `json:"name"`
	Nodes       []Node         `json:"nodes"`
	Connections map[string]any `json:"connections"`
	Settings    map[string]any `json:"settings"`
	StaticData  map[string]any `json:"staticData"`
}

// CreatePayload builds the create body for the document, substituting empty
// objects for absent collections the way the API expects.
func (d *Document) CreatePayload() CreatePayload {
	payload := CreatePayload{
		Name:        d.Name,
		Nodes:       d.Nodes,
		Connections: d.Connections,
		Settings:    d.Settings,
		StaticData:  d.StaticData,
	}

	if payload.Nodes == nil {
		payload.Nodes = []Node{}
	}

	if payload.Connections == nil {
		payload.Connections = map[string]any{}
	}

	if payload.Settings == nil {
		payload.Settings = map[string]any{}
	}

	if payload.StaticData == nil {
		payload.StaticData = map[string]any{}
	}

	return payload
}
