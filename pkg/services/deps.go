package services

import (
	"context"

	"github.com/contractorkingdom/stl-admin/pkg/models"
	"github.com/contractorkingdom/stl-admin/pkg/n8n"
)

// AutomationClient is the slice of the automation-service API the services
// consume. *n8n.Client satisfies it.
type AutomationClient interface {
	ListWorkflows(ctx context.Context) ([]n8n.Document, error)
	GetWorkflow(ctx context.Context, id string) (*n8n.Document, error)
	CreateWorkflow(ctx context.Context, doc *n8n.Document) (*n8n.Document, error)
	SetActive(ctx context.Context, id string, active bool) error
	Activate(ctx context.Context, id string) error
	DeleteWorkflow(ctx context.Context, id string) error
	BaseURL() string
	EditorURL(workflowID string) string
}

// AgencyStore persists agency records. *store.Agencies satisfies it.
type AgencyStore interface {
	List(ctx context.Context) ([]models.Agency, error)
	Insert(ctx context.Context, agency *models.Agency) (*models.Agency, error)
}

// ClientStore persists client records. *store.Clients satisfies it.
type ClientStore interface {
	List(ctx context.Context) ([]models.Client, error)
	GetByID(ctx context.Context, id string) (*models.Client, error)
	GetByName(ctx context.Context, name string) (*models.Client, error)
	GetByBusinessName(ctx context.Context, businessName string) (*models.Client, error)
	Insert(ctx context.Context, client *models.Client) (*models.Client, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// WorkflowStore persists workflow records. *store.Workflows satisfies it.
type WorkflowStore interface {
	List(ctx context.Context, clientID string) ([]models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	GetByRemoteID(ctx context.Context, remoteID string) (*models.Workflow, error)
	RemoteIDs(ctx context.Context) ([]string, error)
	Insert(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error)
	Update(ctx context.Context, id string, fields map[string]any) (*models.Workflow, error)
	UpdateByRemoteID(ctx context.Context, remoteID string, fields map[string]any) (*models.Workflow, error)
	Delete(ctx context.Context, id string) error
}
