package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/contractorkingdom/stl-admin/pkg/models"
	"github.com/contractorkingdom/stl-admin/pkg/n8n"
	"github.com/google/uuid"
)

// Step identifies how far a provisioning run progressed. It is recorded on
// ProvisionError so failures name the transition that broke.
type Step string

const (
	StepNotStarted     Step = "not_started"
	StepExistenceCheck Step = "existence_check"
	StepClientUpsert   Step = "client_upsert"
	StepLinkExisting   Step = "link_existing"
	StepTemplateFetch  Step = "template_fetch"
	StepCustomize      Step = "customize"
	StepRemoteCreate   Step = "remote_create"
	StepRemoteActivate Step = "remote_activate"
	StepRemoteRefetch  Step = "remote_refetch"
	StepWebhookExtract Step = "webhook_extract"
	StepPersistLocal   Step = "persist_local"
)

// ProvisionRequest carries the client fields and flow flags for one
// provisioning run.
type ProvisionRequest struct {
	BusinessName  string
	OwnerName     string
	BusinessPhone string
	TwilioNumber  string
	Website       string
	AgencyID      string

	// LinkExistingWorkflow attaches ExistingN8NWorkflowID to the client
	// instead of creating a new document.
	LinkExistingWorkflow  bool
	ExistingN8NWorkflowID string

	// ForceCreate skips the existence gate and always creates a new document.
	ForceCreate bool
}

// ExistingWorkflow describes a remote document that already carries the
// client's workflow name, surfaced to the caller for confirmation.
type ExistingWorkflow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	N8NURL string `json:"n8n_url"`
}

// ProvisionResult is the outcome of a provisioning run. Exactly one of
// Existing (confirmation gate) or Workflow (completed run) is set.
type ProvisionResult struct {
	Existing       *ExistingWorkflow
	Workflow       *models.Workflow
	WebhookURL     string
	LinkedExisting bool
}

// Provisioner drives the create-or-link flow against the automation service
// and the relational store.
type Provisioner struct {
	automation AutomationClient
	clients    ClientStore
	workflows  WorkflowStore
	templateID string
	logger     *slog.Logger
}

func NewProvisioner(
	automation AutomationClient,
	clients ClientStore,
	workflows WorkflowStore,
	templateID string,
	logger *slog.Logger,
) *Provisioner {
	return &Provisioner{
		automation: automation,
		clients:    clients,
		workflows:  workflows,
		templateID: templateID,
		logger:     logger,
	}
}

// Provision runs the flow for one request. When a remote document already
// carries the derived workflow name and the caller asked for neither
// force-create nor link-existing, the result carries Existing and nothing is
// mutated: that is a confirmation gate for the caller, not an error.
func (p *Provisioner) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	if strings.TrimSpace(req.BusinessName) == "" {
		return nil, &ProvisionError{Step: StepNotStarted, Err: ErrEmptyBusinessName}
	}

	if !req.LinkExistingWorkflow && !req.ForceCreate {
		if existing := p.checkExisting(ctx, req.BusinessName); existing != nil {
			return &ProvisionResult{Existing: existing}, nil
		}
	}

	client, err := p.upsertClient(ctx, req)
	if err != nil {
		return nil, &ProvisionError{Step: StepClientUpsert, Err: err}
	}

	if req.LinkExistingWorkflow {
		if req.ExistingN8NWorkflowID == "" {
			return nil, &ProvisionError{Step: StepLinkExisting, Err: ErrMissingLinkTarget}
		}

		return p.linkExisting(ctx, client, req.ExistingN8NWorkflowID)
	}

	return p.createFromTemplate(ctx, client, req)
}

// checkExisting looks for a remote document already named "<business> - STL".
// Failures here are logged and ignored: the gate is advisory and must not
// block provisioning when the list call is flaky.
func (p *Provisioner) checkExisting(ctx context.Context, businessName string) *ExistingWorkflow {
	documents, err := p.automation.ListWorkflows(ctx)
	if err != nil {
		p.logger.Warn("could not check for existing workflows", "error", err)

		return nil
	}

	expected := businessName + WorkflowNameSuffix

	for _, doc := range documents {
		if doc.Name == expected || strings.EqualFold(doc.Name, expected) {
			return &ExistingWorkflow{
				ID:     doc.ID,
				Name:   doc.Name,
				Active: doc.Active,
				N8NURL: p.automation.EditorURL(doc.ID),
			}
		}
	}

	return nil
}

// upsertClient creates or refreshes the client record keyed by the business
// name. Update failures on an existing client are tolerated; the id is all
// the rest of the flow needs.
func (p *Provisioner) upsertClient(ctx context.Context, req ProvisionRequest) (*models.Client, error) {
	existing, err := p.clients.GetByID(ctx, req.BusinessName)
	if err == nil {
		fields := map[string]any{
			"name":           req.BusinessName,
			"business_name":  req.BusinessName,
			"owner_name":     req.OwnerName,
			"business_phone": req.BusinessPhone,
			"twilio_number":  req.TwilioNumber,
			"website":        req.Website,
		}

		if req.AgencyID != "" {
			fields["agency_id"] = req.AgencyID
		}

		if updateErr := p.clients.Update(ctx, req.BusinessName, fields); updateErr != nil {
			p.logger.Warn("failed to update client info", "client_id", req.BusinessName, "error", updateErr)
		}

		existing.BusinessName = req.BusinessName
		existing.OwnerName = req.OwnerName
		existing.BusinessPhone = req.BusinessPhone
		existing.TwilioNumber = req.TwilioNumber

		return existing, nil
	}

	created, err := p.clients.Insert(ctx, &models.Client{
		ID:            req.BusinessName,
		Name:          req.BusinessName,
		BusinessName:  req.BusinessName,
		OwnerName:     req.OwnerName,
		BusinessPhone: req.BusinessPhone,
		TwilioNumber:  req.TwilioNumber,
		Website:       req.Website,
		AgencyID:      req.AgencyID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return created, nil
}

// linkExisting attaches an already-created remote document to the client,
// upserting the local record keyed by the document id.
func (p *Provisioner) linkExisting(ctx context.Context, client *models.Client, remoteID string) (*ProvisionResult, error) {
	doc, err := p.automation.GetWorkflow(ctx, remoteID)
	if err != nil {
		return nil, &ProvisionError{Step: StepLinkExisting, Err: fmt.Errorf("failed to fetch existing workflow: %w", err)}
	}

	leadFormWebhook := ExtractLeadFormWebhook(doc, p.automation.BaseURL())
	ivrWebhook := ExtractIVRWebhook(doc, p.automation.BaseURL())

	name := doc.Name
	if name == "" {
		name = client.BusinessName + WorkflowNameSuffix
	}

	record := &models.Workflow{
		ClientID:        client.ID,
		N8NWorkflowID:   remoteID,
		WorkflowName:    name,
		Status:          statusFromActive(doc.Active),
		LeadFormWebhook: leadFormWebhook,
		IVRWebhook:      ivrWebhook,
		N8NURL:          p.automation.EditorURL(remoteID),
	}

	var saved *models.Workflow

	if _, getErr := p.workflows.GetByRemoteID(ctx, remoteID); getErr == nil {
		saved, err = p.workflows.UpdateByRemoteID(ctx, remoteID, map[string]any{
			"client_id":         record.ClientID,
			"workflow_name":     record.WorkflowName,
			"status":            record.Status,
			"lead_form_webhook": nullableString(leadFormWebhook),
			"ivr_webhook":       nullableString(ivrWebhook),
			"n8n_url":           record.N8NURL,
		})
	} else {
		record.ID = uuid.New().String()
		saved, err = p.workflows.Insert(ctx, record)
	}

	if err != nil {
		return nil, &ProvisionError{Step: StepPersistLocal, Err: fmt.Errorf("failed to link workflow: %w", err)}
	}

	saved.Client = client

	return &ProvisionResult{
		Workflow:       saved,
		WebhookURL:     leadFormWebhook,
		LinkedExisting: true,
	}, nil
}

// createFromTemplate is the main provisioning path: fetch the template,
// customize it, create and activate the remote document, learn its generated
// webhook ids, and persist the local record.
func (p *Provisioner) createFromTemplate(ctx context.Context, client *models.Client, req ProvisionRequest) (*ProvisionResult, error) {
	template, err := p.automation.GetWorkflow(ctx, p.templateID)
	if err != nil {
		return nil, &ProvisionError{Step: StepTemplateFetch, Err: fmt.Errorf("failed to fetch template workflow: %w", err)}
	}

	if err := n8n.ValidateTemplate(template); err != nil {
		return nil, &ProvisionError{Step: StepTemplateFetch, Err: err}
	}

	customized, err := CustomizeTemplate(template, ClientData{
		BusinessName:  req.BusinessName,
		OwnerName:     req.OwnerName,
		BusinessPhone: req.BusinessPhone,
		TwilioNumber:  req.TwilioNumber,
		ClientID:      client.ID,
	})
	if err != nil {
		return nil, &ProvisionError{Step: StepCustomize, Err: err}
	}

	StripGeneratedIDs(customized)

	created, err := p.automation.CreateWorkflow(ctx, customized)
	if err != nil {
		return nil, &ProvisionError{Step: StepRemoteCreate, Err: err}
	}

	p.logger.Info("created workflow", "n8n_workflow_id", created.ID, "name", customized.Name)

	p.activate(ctx, created.ID)

	refetched, err := p.automation.GetWorkflow(ctx, created.ID)
	if err != nil {
		return nil, &ProvisionError{Step: StepRemoteRefetch, Err: fmt.Errorf("failed to fetch created workflow: %w", err)}
	}

	leadFormWebhook := ExtractLeadFormWebhook(refetched, p.automation.BaseURL())
	ivrWebhook := ExtractIVRWebhook(refetched, p.automation.BaseURL())

	if leadFormWebhook == "" {
		p.logger.Warn("could not extract lead form webhook from created workflow", "n8n_workflow_id", created.ID)
	}

	saved, err := p.workflows.Insert(ctx, &models.Workflow{
		ID:              uuid.New().String(),
		ClientID:        client.ID,
		N8NWorkflowID:   created.ID,
		WorkflowName:    customized.Name,
		Status:          models.WorkflowStatusActive,
		LeadFormWebhook: leadFormWebhook,
		IVRWebhook:      ivrWebhook,
		N8NURL:          p.automation.EditorURL(created.ID),
	})
	if err != nil {
		// Compensate: the remote document exists but the record of it could
		// not be stored. Best effort only; a failed cleanup is logged, never
		// escalated.
		if cleanupErr := p.automation.DeleteWorkflow(ctx, created.ID); cleanupErr != nil {
			p.logger.Error("failed to clean up workflow after store failure", "n8n_workflow_id", created.ID, "error", cleanupErr)
		} else {
			p.logger.Info("cleaned up workflow after store failure", "n8n_workflow_id", created.ID)
		}

		return nil, &ProvisionError{Step: StepPersistLocal, Err: fmt.Errorf("failed to store workflow: %w", err)}
	}

	saved.Client = client

	return &ProvisionResult{
		Workflow:   saved,
		WebhookURL: leadFormWebhook,
	}, nil
}

// activate tries the PUT update first and falls back to the dedicated
// activate endpoint. Both failing leaves the workflow created but inactive,
// which is not fatal.
func (p *Provisioner) activate(ctx context.Context, id string) {
	err := p.automation.SetActive(ctx, id, true)
	if err == nil {
		return
	}

	p.logger.Warn("failed to activate workflow via update, trying activate endpoint", "n8n_workflow_id", id, "error", err)

	if err := p.automation.Activate(ctx, id); err != nil {
		p.logger.Warn("workflow created but could not be activated", "n8n_workflow_id", id, "error", err)
	}
}

func statusFromActive(active bool) models.WorkflowStatus {
	if active {
		return models.WorkflowStatusActive
	}

	return models.WorkflowStatusPaused
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}

	return value
}
