package store

import (
	"context"
	"net/url"

	"github.com/contractorkingdom/stl-admin/pkg/models"
)

// Workflows reads and writes workflow records.
type Workflows struct {
	store *Store
}

// List returns workflow records, newest first, optionally filtered to one
// client.
func (r *Workflows) List(ctx context.Context, clientID string) ([]models.Workflow, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "created_at.desc")

	if clientID != "" {
		params.Set("client_id", eq(clientID))
	}

	workflows := []models.Workflow{}
	if err := r.store.get(ctx, "ListWorkflows", "workflows", params, &workflows); err != nil {
		return nil, err
	}

	return workflows, nil
}

// GetByID fetches one workflow record by its row id.
func (r *Workflows) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	return r.getByColumn(ctx, "id", id)
}

// GetByRemoteID fetches one workflow record by the automation-service
// document id it references.
func (r *Workflows) GetByRemoteID(ctx context.Context, remoteID string) (*models.Workflow, error) {
	return r.getByColumn(ctx, "n8n_workflow_id", remoteID)
}

func (r *Workflows) getByColumn(ctx context.Context, column, value string) (*models.Workflow, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set(column, eq(value))
	params.Set("limit", "1")

	var rows []models.Workflow
	if err := r.store.get(ctx, "GetWorkflow", "workflows", params, &rows); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrWorkflowNotFound
	}

	return &rows[0], nil
}

// RemoteIDs returns the automation-service document ids of every recorded
// workflow, used by sync to skip documents that are already tracked.
func (r *Workflows) RemoteIDs(ctx context.Context) ([]string, error) {
	params := url.Values{}
	params.Set("select", "n8n_workflow_id")

	var rows []struct {
		N8NWorkflowID string `json:"n8n_workflow_id"`
	}

	if err := r.store.get(ctx, "ListWorkflowRemoteIDs", "workflows", params, &rows); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.N8NWorkflowID)
	}

	return ids, nil
}

// Insert creates a workflow record and returns the stored row.
func (r *Workflows) Insert(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	row := map[string]any{
		"client_id":       workflow.ClientID,
		"n8n_workflow_id": workflow.N8NWorkflowID,
		"workflow_name":   workflow.WorkflowName,
		"status":          workflow.Status,
		"n8n_url":         workflow.N8NURL,
	}

	if workflow.ID != "" {
		row["id"] = workflow.ID
	}

	row["lead_form_webhook"] = nullable(workflow.LeadFormWebhook)
	row["ivr_webhook"] = nullable(workflow.IVRWebhook)

	var created models.Workflow
	if err := r.store.insert(ctx, "InsertWorkflow", "workflows", row, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// Update patches a workflow record by row id and returns the updated row.
func (r *Workflows) Update(ctx context.Context, id string, fields map[string]any) (*models.Workflow, error) {
	return r.updateByColumn(ctx, "id", id, fields)
}

// UpdateByRemoteID patches a workflow record keyed by its automation-service
// document id.
func (r *Workflows) UpdateByRemoteID(ctx context.Context, remoteID string, fields map[string]any) (*models.Workflow, error) {
	return r.updateByColumn(ctx, "n8n_workflow_id", remoteID, fields)
}

func (r *Workflows) updateByColumn(ctx context.Context, column, value string, fields map[string]any) (*models.Workflow, error) {
	fields["updated_at"] = nowUTC()

	params := url.Values{}
	params.Set(column, eq(value))

	var updated models.Workflow
	if err := r.store.update(ctx, "UpdateWorkflow", "workflows", params, fields, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete removes one workflow record. The referenced automation-service
// document is left untouched.
func (r *Workflows) Delete(ctx context.Context, id string) error {
	params := url.Values{}
	params.Set("id", eq(id))

	return r.store.delete(ctx, "DeleteWorkflow", "workflows", params)
}

func nullable(value string) any {
	if value == "" {
		return nil
	}

	return value
}
