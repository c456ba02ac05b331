package services_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/contractorkingdom/stl-admin/pkg/models"
	"github.com/contractorkingdom/stl-admin/pkg/n8n"
	"github.com/contractorkingdom/stl-admin/pkg/store"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.Default()
}

// fakeAutomation is an in-memory stand-in for the automation-service client.
type fakeAutomation struct {
	documents map[string]*n8n.Document
	listErr   error
	getErr    error
	createErr error

	// setActiveErr makes the PUT path fail so the activate fallback runs.
	setActiveErr error
	activateErr  error

	created   []*n8n.Document
	activated []string
	deleted   []string
	nextID    int
}

func newFakeAutomation() *fakeAutomation {
	return &fakeAutomation{documents: make(map[string]*n8n.Document)}
}

func (f *fakeAutomation) ListWorkflows(_ context.Context) ([]n8n.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	documents := make([]n8n.Document, 0, len(f.documents))
	for _, doc := range f.documents {
		documents = append(documents, *doc)
	}

	return documents, nil
}

func (f *fakeAutomation) GetWorkflow(_ context.Context, id string) (*n8n.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	doc, ok := f.documents[id]
	if !ok {
		return nil, fmt.Errorf("GetWorkflow: %w", n8n.ErrWorkflowNotFound)
	}

	copied, err := doc.Clone()
	if err != nil {
		return nil, err
	}

	return copied, nil
}

func (f *fakeAutomation) CreateWorkflow(_ context.Context, doc *n8n.Document) (*n8n.Document, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	f.nextID++

	created, err := doc.Clone()
	if err != nil {
		return nil, err
	}

	created.ID = fmt.Sprintf("remote-%d", f.nextID)
	f.documents[created.ID] = created
	f.created = append(f.created, created)

	return created, nil
}

func (f *fakeAutomation) SetActive(_ context.Context, id string, active bool) error {
	if f.setActiveErr != nil {
		return f.setActiveErr
	}

	if doc, ok := f.documents[id]; ok {
		doc.Active = active
	}

	return nil
}

func (f *fakeAutomation) Activate(_ context.Context, id string) error {
	if f.activateErr != nil {
		return f.activateErr
	}

	f.activated = append(f.activated, id)

	if doc, ok := f.documents[id]; ok {
		doc.Active = true
	}

	return nil
}

func (f *fakeAutomation) DeleteWorkflow(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.documents, id)

	return nil
}

func (f *fakeAutomation) BaseURL() string { return "https://n8n.test" }

func (f *fakeAutomation) EditorURL(workflowID string) string {
	return "https://n8n.test/workflow/" + workflowID
}

// fakeClientStore keeps client rows in a map keyed by id.
type fakeClientStore struct {
	rows      map[string]*models.Client
	listErr   error
	insertErr error
	updateErr error
}

func newFakeClientStore() *fakeClientStore {
	return &fakeClientStore{rows: make(map[string]*models.Client)}
}

func (f *fakeClientStore) List(_ context.Context) ([]models.Client, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	clients := make([]models.Client, 0, len(f.rows))
	for _, client := range f.rows {
		clients = append(clients, *client)
	}

	return clients, nil
}

func (f *fakeClientStore) GetByID(_ context.Context, id string) (*models.Client, error) {
	client, ok := f.rows[id]
	if !ok {
		return nil, store.ErrClientNotFound
	}

	copied := *client

	return &copied, nil
}

func (f *fakeClientStore) GetByName(_ context.Context, name string) (*models.Client, error) {
	for _, client := range f.rows {
		if client.Name == name {
			copied := *client

			return &copied, nil
		}
	}

	return nil, store.ErrClientNotFound
}

func (f *fakeClientStore) GetByBusinessName(_ context.Context, businessName string) (*models.Client, error) {
	for _, client := range f.rows {
		if client.BusinessName == businessName {
			copied := *client

			return &copied, nil
		}
	}

	return nil, store.ErrClientNotFound
}

func (f *fakeClientStore) Insert(_ context.Context, client *models.Client) (*models.Client, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}

	copied := *client
	f.rows[client.ID] = &copied
	result := copied

	return &result, nil
}

func (f *fakeClientStore) Update(_ context.Context, id string, fields map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}

	client, ok := f.rows[id]
	if !ok {
		return store.ErrClientNotFound
	}

	if name, ok := fields["owner_name"].(string); ok {
		client.OwnerName = name
	}

	return nil
}

func (f *fakeClientStore) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return store.ErrClientNotFound
	}

	delete(f.rows, id)

	return nil
}

// fakeWorkflowStore keeps workflow rows in a map keyed by row id.
type fakeWorkflowStore struct {
	rows      map[string]*models.Workflow
	insertErr error
	remoteErr error
}

func newFakeWorkflowStore() *fakeWorkflowStore {
	return &fakeWorkflowStore{rows: make(map[string]*models.Workflow)}
}

func (f *fakeWorkflowStore) List(_ context.Context, clientID string) ([]models.Workflow, error) {
	workflows := make([]models.Workflow, 0, len(f.rows))

	for _, workflow := range f.rows {
		if clientID != "" && workflow.ClientID != clientID {
			continue
		}

		workflows = append(workflows, *workflow)
	}

	return workflows, nil
}

func (f *fakeWorkflowStore) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	workflow, ok := f.rows[id]
	if !ok {
		return nil, store.ErrWorkflowNotFound
	}

	copied := *workflow

	return &copied, nil
}

func (f *fakeWorkflowStore) GetByRemoteID(_ context.Context, remoteID string) (*models.Workflow, error) {
	for _, workflow := range f.rows {
		if workflow.N8NWorkflowID == remoteID {
			copied := *workflow

			return &copied, nil
		}
	}

	return nil, store.ErrWorkflowNotFound
}

func (f *fakeWorkflowStore) RemoteIDs(_ context.Context) ([]string, error) {
	if f.remoteErr != nil {
		return nil, f.remoteErr
	}

	ids := make([]string, 0, len(f.rows))
	for _, workflow := range f.rows {
		ids = append(ids, workflow.N8NWorkflowID)
	}

	return ids, nil
}

func (f *fakeWorkflowStore) Insert(_ context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}

	copied := *workflow
	f.rows[workflow.ID] = &copied
	result := copied

	return &result, nil
}

func (f *fakeWorkflowStore) Update(_ context.Context, id string, fields map[string]any) (*models.Workflow, error) {
	workflow, ok := f.rows[id]
	if !ok {
		return nil, store.ErrWorkflowNotFound
	}

	applyWorkflowFields(workflow, fields)
	copied := *workflow

	return &copied, nil
}

func (f *fakeWorkflowStore) UpdateByRemoteID(_ context.Context, remoteID string, fields map[string]any) (*models.Workflow, error) {
	for id, workflow := range f.rows {
		if workflow.N8NWorkflowID == remoteID {
			return f.Update(context.Background(), id, fields)
		}
	}

	return nil, store.ErrWorkflowNotFound
}

func (f *fakeWorkflowStore) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return store.ErrWorkflowNotFound
	}

	delete(f.rows, id)

	return nil
}

func applyWorkflowFields(workflow *models.Workflow, fields map[string]any) {
	if status, ok := fields["status"].(models.WorkflowStatus); ok {
		workflow.Status = status
	}

	if webhook, ok := fields["lead_form_webhook"].(string); ok {
		workflow.LeadFormWebhook = webhook
	}

	if webhook, ok := fields["ivr_webhook"].(string); ok {
		workflow.IVRWebhook = webhook
	}

	if clientID, ok := fields["client_id"].(string); ok {
		workflow.ClientID = clientID
	}

	if name, ok := fields["workflow_name"].(string); ok {
		workflow.WorkflowName = name
	}
}
