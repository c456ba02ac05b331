package services

import (
	"context"

	"github.com/contractorkingdom/stl-admin/pkg/models"
	"github.com/google/uuid"
)

// SyncedWorkflow records one document imported into the store by Sync.
type SyncedWorkflow struct {
	WorkflowID    string `json:"workflow_id"`
	N8NWorkflowID string `json:"n8n_workflow_id"`
	WorkflowName  string `json:"workflow_name"`
	ClientID      string `json:"client_id"`
}

// SkippedWorkflow records one document Sync left alone and why.
type SkippedWorkflow struct {
	N8NID        string `json:"n8n_id"`
	WorkflowName string `json:"workflow_name,omitempty"`
	Reason       string `json:"reason"`
}

// SyncResult tallies one sync run.
type SyncResult struct {
	Synced  []SyncedWorkflow  `json:"synced_workflows"`
	Skipped []SkippedWorkflow `json:"skipped_workflows"`
}

// Sync walks every document on the automation service and records the ones
// that reconcile to a known client and are not yet tracked. Documents are
// processed one at a time; a failure on one is recorded as skipped and the
// walk continues. Earlier items are never rolled back.
func (w *Workflows) Sync(ctx context.Context) (*SyncResult, error) {
	documents, err := w.automation.ListWorkflows(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := w.clients.List(ctx)
	if err != nil {
		return nil, err
	}

	trackedIDs, err := w.workflows.RemoteIDs(ctx)
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]struct{}, len(trackedIDs))
	for _, id := range trackedIDs {
		tracked[id] = struct{}{}
	}

	w.logger.Info("syncing workflows", "remote", len(documents), "tracked", len(tracked))

	result := &SyncResult{
		Synced:  []SyncedWorkflow{},
		Skipped: []SkippedWorkflow{},
	}

	for i := range documents {
		doc := &documents[i]

		if _, ok := tracked[doc.ID]; ok {
			result.Skipped = append(result.Skipped, SkippedWorkflow{N8NID: doc.ID, Reason: "Already exists"})

			continue
		}

		client := MatchClient(doc.Name, clients)
		if client == nil {
			result.Skipped = append(result.Skipped, SkippedWorkflow{
				N8NID:        doc.ID,
				WorkflowName: doc.Name,
				Reason:       `No matching client found for "` + CandidateClientName(doc.Name) + `"`,
			})

			continue
		}

		// Listing entries may omit nodes; fetch the full document so webhook
		// extraction sees them.
		detail, err := w.automation.GetWorkflow(ctx, doc.ID)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedWorkflow{N8NID: doc.ID, Reason: "Failed to fetch workflow details"})

			continue
		}

		saved, err := w.workflows.Insert(ctx, &models.Workflow{
			ID:              uuid.New().String(),
			ClientID:        client.ID,
			N8NWorkflowID:   doc.ID,
			WorkflowName:    doc.Name,
			Status:          statusFromActive(doc.Active),
			LeadFormWebhook: ExtractLeadFormWebhook(detail, w.automation.BaseURL()),
			IVRWebhook:      ExtractIVRWebhook(detail, w.automation.BaseURL()),
			N8NURL:          w.automation.EditorURL(doc.ID),
		})
		if err != nil {
			w.logger.Error("failed to sync workflow", "n8n_workflow_id", doc.ID, "error", err)
			result.Skipped = append(result.Skipped, SkippedWorkflow{N8NID: doc.ID, Reason: err.Error()})

			continue
		}

		w.logger.Info("synced workflow", "workflow_name", doc.Name, "client_id", client.ID)
		result.Synced = append(result.Synced, SyncedWorkflow{
			WorkflowID:    saved.ID,
			N8NWorkflowID: doc.ID,
			WorkflowName:  doc.Name,
			ClientID:      client.ID,
		})
	}

	return result, nil
}
