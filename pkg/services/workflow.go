package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/contractorkingdom/stl-admin/pkg/models"
	"github.com/contractorkingdom/stl-admin/pkg/n8n"
	"github.com/contractorkingdom/stl-admin/pkg/store"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// isRecordID reports whether id looks like a local row id rather than an
// automation-service document id.
func isRecordID(id string) bool {
	return uuidPattern.MatchString(id)
}

// Workflows serves reads and updates of workflow records, falling through to
// the automation service for documents that were never recorded locally.
type Workflows struct {
	automation AutomationClient
	clients    ClientStore
	workflows  WorkflowStore
	logger     *slog.Logger
}

func NewWorkflows(automation AutomationClient, clients ClientStore, workflows WorkflowStore, logger *slog.Logger) *Workflows {
	return &Workflows{
		automation: automation,
		clients:    clients,
		workflows:  workflows,
		logger:     logger,
	}
}

// List returns workflow records with their owning client embedded. clientID
// may be a client id or a client display name; an unknown value yields an
// empty list rather than an error.
func (w *Workflows) List(ctx context.Context, clientID string) ([]models.Workflow, error) {
	filter := ""

	if clientID != "" {
		client, err := w.clients.GetByID(ctx, clientID)
		if err != nil {
			if !store.IsNotFound(err) {
				return nil, err
			}

			client, err = w.clients.GetByName(ctx, clientID)
			if err != nil {
				if !store.IsNotFound(err) {
					return nil, err
				}

				return []models.Workflow{}, nil
			}
		}

		filter = client.ID
	}

	workflows, err := w.workflows.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := w.attachClients(ctx, workflows); err != nil {
		return nil, err
	}

	return workflows, nil
}

// attachClients embeds the owning client record on each workflow, resolving
// each distinct client id once.
func (w *Workflows) attachClients(ctx context.Context, workflows []models.Workflow) error {
	if len(workflows) == 0 {
		return nil
	}

	clients, err := w.clients.List(ctx)
	if err != nil {
		return err
	}

	byID := make(map[string]*models.Client, len(clients))
	for i := range clients {
		byID[clients[i].ID] = &clients[i]
	}

	for i := range workflows {
		workflows[i].Client = byID[workflows[i].ClientID]
	}

	return nil
}

// Get fetches one workflow. Row ids resolve against the store; anything else
// falls through to the automation service, where the document is reconciled
// against known clients and rendered as a synthetic record.
func (w *Workflows) Get(ctx context.Context, id string) (*models.Workflow, error) {
	if isRecordID(id) {
		record, err := w.workflows.GetByID(ctx, id)
		if err == nil {
			if client, clientErr := w.clients.GetByID(ctx, record.ClientID); clientErr == nil {
				record.Client = client
			}

			return record, nil
		}

		if !store.IsNotFound(err) {
			return nil, err
		}
	}

	return w.getFromRemote(ctx, id)
}

func (w *Workflows) getFromRemote(ctx context.Context, id string) (*models.Workflow, error) {
	doc, err := w.automation.GetWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}

	clientName := CandidateClientName(doc.Name)

	var client *models.Client

	if clientName != "" {
		clients, listErr := w.clients.List(ctx)
		if listErr == nil {
			client = MatchClient(doc.Name, clients)
		} else {
			w.logger.Warn("could not list clients for reconciliation", "error", listErr)
		}
	}

	if client == nil {
		// No local client matches; render a stand-in so the document is still
		// viewable.
		placeholderID := clientName
		if placeholderID == "" {
			placeholderID = id
		}

		client = &models.Client{
			ID:           placeholderID,
			Name:         clientName,
			BusinessName: clientName,
		}

		if client.Name == "" {
			client.Name = "Unknown Client"
		}
	}

	return &models.Workflow{
		ID:              id,
		ClientID:        client.ID,
		N8NWorkflowID:   id,
		WorkflowName:    doc.Name,
		Status:          statusFromActive(doc.Active),
		LeadFormWebhook: ExtractLeadFormWebhook(doc, w.automation.BaseURL()),
		IVRWebhook:      ExtractIVRWebhook(doc, w.automation.BaseURL()),
		N8NURL:          w.automation.EditorURL(id),
		Client:          client,
	}, nil
}

// UpdateStatus sets the record's status field after validating it against the
// known status set.
func (w *Workflows) UpdateStatus(ctx context.Context, id string, status models.WorkflowStatus) (*models.Workflow, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	updated, err := w.workflows.Update(ctx, id, map[string]any{"status": status})
	if err != nil {
		return nil, err
	}

	if client, clientErr := w.clients.GetByID(ctx, updated.ClientID); clientErr == nil {
		updated.Client = client
	}

	return updated, nil
}

// Delete removes the local record only; the automation-service document is
// kept so it can be re-linked later.
func (w *Workflows) Delete(ctx context.Context, id string) error {
	if _, err := w.workflows.GetByID(ctx, id); err != nil {
		return err
	}

	return w.workflows.Delete(ctx, id)
}

// FixChanges summarizes what Fix changed on the record.
type FixChanges struct {
	Status          string `json:"status"`
	LeadFormWebhook string `json:"lead_form_webhook"`
	IVRWebhook      string `json:"ivr_webhook"`
}

// FixResult is the refreshed record plus the per-field change summary.
type FixResult struct {
	Workflow *models.Workflow `json:"workflow"`
	Changes  FixChanges       `json:"changes"`
}

// Fix refreshes a record from the automation service: current active state
// becomes the status, and webhook URLs are re-extracted. Webhooks are only
// overwritten when extraction found one, never blanked.
func (w *Workflows) Fix(ctx context.Context, id string) (*FixResult, error) {
	record, err := w.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if record.N8NWorkflowID == "" {
		return nil, ErrMissingRemoteID
	}

	doc, err := w.automation.GetWorkflow(ctx, record.N8NWorkflowID)
	if err != nil {
		return nil, err
	}

	status := statusFromActive(doc.Active)
	leadFormWebhook := ExtractLeadFormWebhook(doc, w.automation.BaseURL())
	ivrWebhook := ExtractIVRWebhook(doc, w.automation.BaseURL())

	fields := map[string]any{"status": status}

	if leadFormWebhook != "" {
		fields["lead_form_webhook"] = leadFormWebhook
	}

	if ivrWebhook != "" {
		fields["ivr_webhook"] = ivrWebhook
	}

	updated, err := w.workflows.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	return &FixResult{
		Workflow: updated,
		Changes: FixChanges{
			Status:          changeLabel(string(record.Status), string(status)),
			LeadFormWebhook: webhookChangeLabel(record.LeadFormWebhook, leadFormWebhook),
			IVRWebhook:      webhookChangeLabel(record.IVRWebhook, ivrWebhook),
		},
	}, nil
}

func changeLabel(before, after string) string {
	if before == after {
		return "unchanged"
	}

	return before + " -> " + after
}

func webhookChangeLabel(before, after string) string {
	switch {
	case after == "" || before == after:
		return "unchanged"
	case before == "":
		return "added"
	default:
		return "updated"
	}
}

// ImportedWorkflow is the outcome of a raw template import.
type ImportedWorkflow struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Active          bool   `json:"active"`
	N8NURL          string `json:"n8n_url"`
	LeadFormWebhook string `json:"lead_form_webhook,omitempty"`
	IVRWebhook      string `json:"ivr_webhook,omitempty"`
}

// Import creates a caller-supplied document on the automation service,
// optionally renamed, and re-fetches it to learn the generated webhook ids.
// Nothing is persisted locally.
func (w *Workflows) Import(ctx context.Context, template *n8n.Document, name string) (*ImportedWorkflow, error) {
	if template == nil {
		return nil, ErrEmptyTemplate
	}

	doc, err := template.Clone()
	if err != nil {
		return nil, err
	}

	if name != "" {
		doc.Name = name
	}

	created, err := w.automation.CreateWorkflow(ctx, doc)
	if err != nil {
		return nil, err
	}

	fetched, err := w.automation.GetWorkflow(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch imported workflow: %w", err)
	}

	return &ImportedWorkflow{
		ID:              created.ID,
		Name:            fetched.Name,
		Active:          fetched.Active,
		N8NURL:          w.automation.EditorURL(created.ID),
		LeadFormWebhook: ExtractLeadFormWebhook(fetched, w.automation.BaseURL()),
		IVRWebhook:      ExtractIVRWebhook(fetched, w.automation.BaseURL()),
	}, nil
}

// RemoteSummary is a listing entry for a document on the automation service.
type RemoteSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Active          bool   `json:"active"`
	N8NURL          string `json:"n8n_url"`
	LeadFormWebhook string `json:"lead_form_webhook,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// ListRemote lists the automation service's documents with editor and
// lead-form webhook URLs attached.
func (w *Workflows) ListRemote(ctx context.Context) ([]RemoteSummary, error) {
	documents, err := w.automation.ListWorkflows(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]RemoteSummary, 0, len(documents))

	for i := range documents {
		doc := &documents[i]
		summaries = append(summaries, RemoteSummary{
			ID:              doc.ID,
			Name:            doc.Name,
			Active:          doc.Active,
			N8NURL:          w.automation.EditorURL(doc.ID),
			LeadFormWebhook: ExtractLeadFormWebhook(doc, w.automation.BaseURL()),
			CreatedAt:       doc.CreatedAt,
			UpdatedAt:       doc.UpdatedAt,
		})
	}

	return summaries, nil
}

// GetRemote fetches one document's summary directly from the automation
// service.
func (w *Workflows) GetRemote(ctx context.Context, id string) (*RemoteSummary, error) {
	doc, err := w.automation.GetWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}

	return &RemoteSummary{
		ID:        doc.ID,
		Name:      doc.Name,
		Active:    doc.Active,
		N8NURL:    w.automation.EditorURL(doc.ID),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
