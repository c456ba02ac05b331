package services

import (
	"context"
	"log/slog"

	"github.com/contractorkingdom/stl-admin/pkg/models"
)

// Clients serves reads and deletes of client records.
type Clients struct {
	clients   ClientStore
	workflows WorkflowStore
	logger    *slog.Logger
}

func NewClients(clients ClientStore, workflows WorkflowStore, logger *slog.Logger) *Clients {
	return &Clients{
		clients:   clients,
		workflows: workflows,
		logger:    logger,
	}
}

// List returns every client, newest first. Duplicate ids indicate a store
// problem and are logged, but all rows are returned as-is.
func (c *Clients) List(ctx context.Context) ([]models.Client, error) {
	clients, err := c.clients.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(clients))
	for i := range clients {
		seen[clients[i].ID]++
	}

	for id, count := range seen {
		if count > 1 {
			c.logger.Warn("duplicate client id in store", "client_id", id, "count", count)
		}
	}

	return clients, nil
}

// Get fetches one client.
func (c *Clients) Get(ctx context.Context, id string) (*models.Client, error) {
	return c.clients.GetByID(ctx, id)
}

// DeletedClient summarizes what a delete removed and what it kept.
type DeletedClient struct {
	Client        DeletedClientInfo  `json:"client"`
	WorkflowCount int                `json:"workflow_count"`
	KeptRemote    []KeptRemoteRecord `json:"n8n_workflows_kept"`
}

type DeletedClientInfo struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
}

// KeptRemoteRecord names an automation-service document that survives its
// client's deletion and can be re-linked later.
type KeptRemoteRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Delete removes a client and cascades to its workflow records. The
// automation-service documents are deliberately kept; the summary lists them
// so they can be re-linked.
func (c *Clients) Delete(ctx context.Context, id string) (*DeletedClient, error) {
	client, err := c.clients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	workflows, err := c.workflows.List(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.clients.Delete(ctx, id); err != nil {
		return nil, err
	}

	kept := make([]KeptRemoteRecord, 0, len(workflows))
	for _, workflow := range workflows {
		kept = append(kept, KeptRemoteRecord{
			ID:   workflow.N8NWorkflowID,
			Name: workflow.WorkflowName,
		})
	}

	businessName := client.BusinessName
	if businessName == "" {
		businessName = client.Name
	}

	c.logger.Info("deleted client", "client_id", id, "workflows_removed", len(workflows))

	return &DeletedClient{
		Client:        DeletedClientInfo{ID: client.ID, BusinessName: businessName},
		WorkflowCount: len(workflows),
		KeptRemote:    kept,
	}, nil
}
