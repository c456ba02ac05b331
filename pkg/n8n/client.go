package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	apiKeyHeader   = "X-N8N-API-KEY"
	defaultTimeout = 30 * time.Second
)

// Client talks to an automation-service instance over its public REST API,
// authenticated with a static API key header.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// BaseURL returns the instance URL the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// EditorURL is the deep link into the instance's workflow editor.
func (c *Client) EditorURL(workflowID string) string {
	return c.baseURL + "/workflow/" + workflowID
}

// WebhookURL is the public callback URL for a generated webhook identifier.
func (c *Client) WebhookURL(webhookID string) string {
	return c.baseURL + "/webhook/" + webhookID
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) error {
	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request body: %w", op, err)
		}

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	req.Header.Set(apiKeyHeader, c.apiKey)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request to automation service failed: %w", op, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrWorkflowNotFound)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: failed to decode response: %w", op, err)
		}
	}

	return nil
}

// ListWorkflows fetches every workflow document on the instance. Depending on
// version the API answers with a bare array, {"data": [...]}, or
// {"workflows": [...]}; all three shapes are accepted.
func (c *Client) ListWorkflows(ctx context.Context) ([]Document, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "ListWorkflows", http.MethodGet, "/api/v1/workflows", nil, &raw); err != nil {
		return nil, err
	}

	var workflows []Document
	if err := json.Unmarshal(raw, &workflows); err == nil {
		return workflows, nil
	}

	var envelope struct {
		Data      []Document `json:"data"`
		Workflows []Document `json:"workflows"`
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("ListWorkflows: %w", ErrUnexpectedListFormat)
	}

	switch {
	case envelope.Data != nil:
		return envelope.Data, nil
	case envelope.Workflows != nil:
		return envelope.Workflows, nil
	}

	return nil, fmt.Errorf("ListWorkflows: %w", ErrUnexpectedListFormat)
}

// GetWorkflow fetches a single document by id, including its nodes.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*Document, error) {
	var doc Document
	if err := c.do(ctx, "GetWorkflow", http.MethodGet, "/api/v1/workflows/"+id, nil, &doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

// CreateWorkflow submits a new document and returns the server's copy, which
// carries the generated id.
func (c *Client) CreateWorkflow(ctx context.Context, doc *Document) (*Document, error) {
	var created Document
	if err := c.do(ctx, "CreateWorkflow", http.MethodPost, "/api/v1/workflows", doc.CreatePayload(), &created); err != nil {
		return nil, err
	}

	if created.ID == "" {
		return nil, fmt.Errorf("CreateWorkflow: %w", ErrMissingWorkflowID)
	}

	return &created, nil
}

// SetActive flips the document's active flag via PUT. Some instance versions
// reject this; Activate is the fallback.
func (c *Client) SetActive(ctx context.Context, id string, active bool) error {
	body := map[string]bool{"active": active}

	return c.do(ctx, "SetActive", http.MethodPut, "/api/v1/workflows/"+id, body, nil)
}

// Activate turns the document on through the dedicated activate endpoint.
func (c *Client) Activate(ctx context.Context, id string) error {
	return c.do(ctx, "Activate", http.MethodPost, "/api/v1/workflows/"+id+"/activate", nil, nil)
}

// DeleteWorkflow removes a document from the instance.
func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	return c.do(ctx, "DeleteWorkflow", http.MethodDelete, "/api/v1/workflows/"+id, nil, nil)
}
