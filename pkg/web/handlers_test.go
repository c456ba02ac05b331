package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/contractorkingdom/stl-admin/pkg/models"
	"github.com/contractorkingdom/stl-admin/pkg/n8n"
	"github.com/contractorkingdom/stl-admin/pkg/services"
	"github.com/contractorkingdom/stl-admin/pkg/store"
	"github.com/contractorkingdom/stl-admin/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app        *fiber.App
	automation *stubAutomation
	clients    *stubClientStore
	workflows  *stubWorkflowStore
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	automation := &stubAutomation{documents: map[string]*n8n.Document{
		"tmpl-1": {
			ID:   "tmpl-1",
			Name: "Template - STL",
			Nodes: []n8n.Node{
				{
					"id":         "hook",
					"name":       "Lead Form",
					"type":       n8n.NodeTypeWebhook,
					"webhookId":  "tmpl-hook",
					"parameters": map[string]any{"path": "tmpl-path"},
				},
			},
		},
	}}
	clients := &stubClientStore{rows: map[string]*models.Client{}}
	workflows := &stubWorkflowStore{rows: map[string]*models.Workflow{}}
	agencies := &stubAgencyStore{}

	logger := slog.Default()
	validate := validator.New(validator.WithRequiredStructEnabled())

	agencyService := services.NewAgencies(agencies, logger)
	clientService := services.NewClients(clients, workflows, logger)
	workflowService := services.NewWorkflows(automation, clients, workflows, logger)
	provisioner := services.NewProvisioner(automation, clients, workflows, "tmpl-1", logger)

	handlers := web.NewAPIHandlers(agencyService, clientService, workflowService, provisioner, &stubProbe{}, validate)

	app := fiber.New()
	api := app.Group("/api")
	api.Get("/agencies", handlers.GetAgencies)
	api.Post("/agencies", handlers.CreateAgency)
	api.Get("/clients", handlers.GetClients)
	api.Get("/clients/:id", handlers.GetClient)
	api.Delete("/clients/:id", handlers.DeleteClient)

	w := api.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/sync", handlers.SyncWorkflows)
	w.Post("/sync", handlers.SyncWorkflows)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/fix", handlers.FixWorkflow)

	api.Get("/n8n/workflows", handlers.GetRemoteWorkflows)
	api.Get("/store/health", handlers.StoreHealth)

	return &testEnv{app: app, automation: automation, clients: clients, workflows: workflows}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}

	return resp, decoded
}

func TestCreateWorkflow_FullProvisioning(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/workflows/", map[string]any{
		"business_name":  "Acme Plumbing",
		"owner_name":     "Jordan Smith",
		"business_phone": "+15551234567",
		"twilio_number":  "+15559876543",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["webhook_url"])

	workflow := body["workflow"].(map[string]any)
	assert.Equal(t, "Acme Plumbing - STL", workflow["workflow_name"])
	assert.Equal(t, "active", workflow["status"])

	// Both sides were written: a client row and a workflow row.
	assert.Contains(t, env.clients.rows, "Acme Plumbing")
	assert.Len(t, env.workflows.rows, 1)
}

func TestCreateWorkflow_ValidationErrors(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing business name", map[string]any{
			"owner_name":     "Jordan Smith",
			"business_phone": "+15551234567",
			"twilio_number":  "+15559876543",
		}},
		{"non e164 phone", map[string]any{
			"business_name":  "Acme Plumbing",
			"owner_name":     "Jordan Smith",
			"business_phone": "555-123-4567",
			"twilio_number":  "+15559876543",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, _ := doJSON(t, env.app, http.MethodPost, "/api/workflows/", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateWorkflow_ExistingGate(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.automation.documents["existing-1"] = &n8n.Document{
		ID:     "existing-1",
		Name:   "Acme Plumbing - STL",
		Active: true,
	}

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/workflows/", map[string]any{
		"business_name":  "Acme Plumbing",
		"owner_name":     "Jordan Smith",
		"business_phone": "+15551234567",
		"twilio_number":  "+15559876543",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["workflow_exists"])
	assert.NotContains(t, body, "success")

	existing := body["existing_workflow"].(map[string]any)
	assert.Equal(t, "existing-1", existing["id"])

	// The gate left both stores untouched.
	assert.Empty(t, env.clients.rows)
	assert.Empty(t, env.workflows.rows)
}

func TestCreateWorkflow_StoreFailureIsProvisioningError(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.workflows.insertErr = errors.New("store down")

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/workflows/", map[string]any{
		"business_name":  "Acme Plumbing",
		"owner_name":     "Jordan Smith",
		"business_phone": "+15551234567",
		"twilio_number":  "+15559876543",
	})

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["detail"], "persist_local")

	// The orphaned remote document was removed again.
	assert.Len(t, env.automation.deleted, 1)
}

func TestGetWorkflows_EmbedsClient(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.clients.rows["Acme Plumbing"] = &models.Client{ID: "Acme Plumbing", Name: "Acme Plumbing"}
	env.workflows.rows["aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"] = &models.Workflow{
		ID:            "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		ClientID:      "Acme Plumbing",
		N8NWorkflowID: "remote-1",
		WorkflowName:  "Acme Plumbing - STL",
		Status:        models.WorkflowStatusActive,
	}

	resp, body := doJSON(t, env.app, http.MethodGet, "/api/workflows/", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)

	workflows := body["workflows"].([]any)
	require.Len(t, workflows, 1)

	workflow := workflows[0].(map[string]any)
	client := workflow["clients"].(map[string]any)
	assert.Equal(t, "Acme Plumbing", client["id"])
}

func TestUpdateWorkflow_InvalidStatus(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, _ := doJSON(t, env.app, http.MethodPut, "/api/workflows/aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", map[string]any{
		"status": "running",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateWorkflow_MissingRecord(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, _ := doJSON(t, env.app, http.MethodPut, "/api/workflows/aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", map[string]any{
		"status": "paused",
	})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteClient_ReportsKeptRemoteDocuments(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.clients.rows["acme-plumbing"] = &models.Client{ID: "acme-plumbing", BusinessName: "Acme Plumbing"}
	env.workflows.rows["aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"] = &models.Workflow{
		ID:            "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		ClientID:      "acme-plumbing",
		N8NWorkflowID: "remote-1",
		WorkflowName:  "Acme Plumbing - STL",
	}
	env.automation.documents["remote-1"] = &n8n.Document{ID: "remote-1", Name: "Acme Plumbing - STL"}

	resp, body := doJSON(t, env.app, http.MethodDelete, "/api/clients/acme-plumbing", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	deleted := body["deleted"].(map[string]any)
	kept := deleted["n8n_workflows_kept"].([]any)
	require.Len(t, kept, 1)
	assert.Equal(t, "remote-1", kept[0].(map[string]any)["id"])

	// The automation-service document survives.
	assert.Contains(t, env.automation.documents, "remote-1")
	assert.Empty(t, env.automation.deleted)
}

func TestSyncWorkflows(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.clients.rows["Acme Plumbing"] = &models.Client{ID: "Acme Plumbing", Name: "Acme Plumbing"}
	env.automation.documents["remote-1"] = &n8n.Document{ID: "remote-1", Name: "Acme Plumbing - STL", Active: true}
	env.automation.documents["remote-2"] = &n8n.Document{ID: "remote-2", Name: "Stranger - STL"}

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/workflows/sync", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["synced"])

	// tmpl-1 and remote-2 have no matching client.
	assert.EqualValues(t, 2, body["skipped"])
}

func TestCreateAgency(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/agencies", map[string]any{
		"name":             "North Agency",
		"n8n_instance_url": "https://n8n.north.test",
		"n8n_api_key":      "key",
		"openai_api_key":   "openai",
		"twilio_api_key":   "twilio",
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	agency := body["agency"].(map[string]any)
	assert.Equal(t, "North Agency", agency["name"])
}

func TestCreateAgency_InvalidURL(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, _ := doJSON(t, env.app, http.MethodPost, "/api/agencies", map[string]any{
		"name":             "North Agency",
		"n8n_instance_url": "not a url",
		"n8n_api_key":      "key",
		"openai_api_key":   "openai",
		"twilio_api_key":   "twilio",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetClients_SetsNoStoreCacheControl(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, _ := doJSON(t, env.app, http.MethodGet, "/api/clients", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
}

func TestStoreHealth(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, body := doJSON(t, env.app, http.MethodGet, "/api/store/health", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["connected"])
}

// --- stubs ---

type stubProbe struct {
	err error
}

func (s *stubProbe) HealthCheck(_ context.Context) error { return s.err }

type stubAutomation struct {
	documents map[string]*n8n.Document
	deleted   []string
	nextID    int
}

func (s *stubAutomation) ListWorkflows(_ context.Context) ([]n8n.Document, error) {
	documents := make([]n8n.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		documents = append(documents, *doc)
	}

	return documents, nil
}

func (s *stubAutomation) GetWorkflow(_ context.Context, id string) (*n8n.Document, error) {
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("GetWorkflow: %w", n8n.ErrWorkflowNotFound)
	}

	return doc.Clone()
}

func (s *stubAutomation) CreateWorkflow(_ context.Context, doc *n8n.Document) (*n8n.Document, error) {
	s.nextID++

	created, err := doc.Clone()
	if err != nil {
		return nil, err
	}

	created.ID = fmt.Sprintf("remote-new-%d", s.nextID)
	s.documents[created.ID] = created

	return created, nil
}

func (s *stubAutomation) SetActive(_ context.Context, id string, active bool) error {
	if doc, ok := s.documents[id]; ok {
		doc.Active = active
	}

	return nil
}

func (s *stubAutomation) Activate(_ context.Context, id string) error { return nil }

func (s *stubAutomation) DeleteWorkflow(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.documents, id)

	return nil
}

func (s *stubAutomation) BaseURL() string { return "https://n8n.test" }

func (s *stubAutomation) EditorURL(workflowID string) string {
	return "https://n8n.test/workflow/" + workflowID
}

type stubAgencyStore struct {
	agencies []models.Agency
}

func (s *stubAgencyStore) List(_ context.Context) ([]models.Agency, error) {
	return s.agencies, nil
}

func (s *stubAgencyStore) Insert(_ context.Context, agency *models.Agency) (*models.Agency, error) {
	agency.ID = fmt.Sprintf("agency-%d", len(s.agencies)+1)
	s.agencies = append(s.agencies, *agency)
	copied := *agency

	return &copied, nil
}

type stubClientStore struct {
	rows map[string]*models.Client
}

func (s *stubClientStore) List(_ context.Context) ([]models.Client, error) {
	clients := make([]models.Client, 0, len(s.rows))
	for _, client := range s.rows {
		clients = append(clients, *client)
	}

	return clients, nil
}

func (s *stubClientStore) GetByID(_ context.Context, id string) (*models.Client, error) {
	client, ok := s.rows[id]
	if !ok {
		return nil, store.ErrClientNotFound
	}

	copied := *client

	return &copied, nil
}

func (s *stubClientStore) GetByName(_ context.Context, name string) (*models.Client, error) {
	for _, client := range s.rows {
		if client.Name == name {
			copied := *client

			return &copied, nil
		}
	}

	return nil, store.ErrClientNotFound
}

func (s *stubClientStore) GetByBusinessName(_ context.Context, businessName string) (*models.Client, error) {
	for _, client := range s.rows {
		if client.BusinessName == businessName {
			copied := *client

			return &copied, nil
		}
	}

	return nil, store.ErrClientNotFound
}

func (s *stubClientStore) Insert(_ context.Context, client *models.Client) (*models.Client, error) {
	copied := *client
	s.rows[client.ID] = &copied
	result := copied

	return &result, nil
}

func (s *stubClientStore) Update(_ context.Context, id string, _ map[string]any) error {
	if _, ok := s.rows[id]; !ok {
		return store.ErrClientNotFound
	}

	return nil
}

func (s *stubClientStore) Delete(_ context.Context, id string) error {
	if _, ok := s.rows[id]; !ok {
		return store.ErrClientNotFound
	}

	delete(s.rows, id)

	return nil
}

type stubWorkflowStore struct {
	rows      map[string]*models.Workflow
	insertErr error
}

func (s *stubWorkflowStore) List(_ context.Context, clientID string) ([]models.Workflow, error) {
	workflows := make([]models.Workflow, 0, len(s.rows))

	for _, workflow := range s.rows {
		if clientID != "" && workflow.ClientID != clientID {
			continue
		}

		workflows = append(workflows, *workflow)
	}

	return workflows, nil
}

func (s *stubWorkflowStore) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	workflow, ok := s.rows[id]
	if !ok {
		return nil, store.ErrWorkflowNotFound
	}

	copied := *workflow

	return &copied, nil
}

func (s *stubWorkflowStore) GetByRemoteID(_ context.Context, remoteID string) (*models.Workflow, error) {
	for _, workflow := range s.rows {
		if workflow.N8NWorkflowID == remoteID {
			copied := *workflow

			return &copied, nil
		}
	}

	return nil, store.ErrWorkflowNotFound
}

func (s *stubWorkflowStore) RemoteIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.rows))
	for _, workflow := range s.rows {
		ids = append(ids, workflow.N8NWorkflowID)
	}

	return ids, nil
}

func (s *stubWorkflowStore) Insert(_ context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}

	copied := *workflow
	s.rows[workflow.ID] = &copied
	result := copied

	return &result, nil
}

func (s *stubWorkflowStore) Update(_ context.Context, id string, fields map[string]any) (*models.Workflow, error) {
	workflow, ok := s.rows[id]
	if !ok {
		return nil, store.ErrWorkflowNotFound
	}

	if status, ok := fields["status"].(models.WorkflowStatus); ok {
		workflow.Status = status
	}

	copied := *workflow

	return &copied, nil
}

func (s *stubWorkflowStore) UpdateByRemoteID(_ context.Context, remoteID string, fields map[string]any) (*models.Workflow, error) {
	for id, workflow := range s.rows {
		if workflow.N8NWorkflowID == remoteID {
			return s.Update(context.Background(), id, fields)
		}
	}

	return nil, store.ErrWorkflowNotFound
}

func (s *stubWorkflowStore) Delete(_ context.Context, id string) error {
	if _, ok := s.rows[id]; !ok {
		return store.ErrWorkflowNotFound
	}

	delete(s.rows, id)

	return nil
}
