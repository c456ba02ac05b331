package web

import (
	"context"
	"encoding/json"
	"time"

	"github.com/contractorkingdom/stl-admin/pkg/models"
	"github.com/contractorkingdom/stl-admin/pkg/n8n"
	"github.com/contractorkingdom/stl-admin/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const noStoreCacheControl = "no-store, no-cache, must-revalidate, proxy-revalidate"

// APIHandlers serves the dashboard's JSON endpoints.
type APIHandlers struct {
	agencyService   *services.Agencies
	clientService   *services.Clients
	workflowService *services.Workflows
	provisioner     *services.Provisioner
	storeProbe      StoreProbe
	validator       *validator.Validate
}

// StoreProbe checks connectivity to the relational store. *store.Store
// satisfies it.
type StoreProbe interface {
	HealthCheck(ctx context.Context) error
}

func NewAPIHandlers(
	agencyService *services.Agencies,
	clientService *services.Clients,
	workflowService *services.Workflows,
	provisioner *services.Provisioner,
	storeProbe StoreProbe,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		agencyService:   agencyService,
		clientService:   clientService,
		workflowService: workflowService,
		provisioner:     provisioner,
		storeProbe:      storeProbe,
		validator:       validator,
	}
}

func (h *APIHandlers) GetAgencies(c fiber.Ctx) error {
	agencies, err := h.agencyService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderCacheControl, noStoreCacheControl)

	return c.JSON(fiber.Map{"agencies": agencies})
}

func (h *APIHandlers) CreateAgency(c fiber.Ctx) error {
	var req CreateAgencyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	agency, err := h.agencyService.Create(c.Context(), &models.Agency{
		Name:           req.Name,
		N8NInstanceURL: req.N8NInstanceURL,
		N8NAPIKey:      req.N8NAPIKey,
		OpenAIAPIKey:   req.OpenAIAPIKey,
		TwilioAPIKey:   req.TwilioAPIKey,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"agency": agency})
}

func (h *APIHandlers) GetClients(c fiber.Ctx) error {
	clients, err := h.clientService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderCacheControl, noStoreCacheControl)

	return c.JSON(fiber.Map{"clients": clients})
}

func (h *APIHandlers) GetClient(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Client ID is required")
	}

	client, err := h.clientService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"client": client})
}

func (h *APIHandlers) DeleteClient(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Client ID is required")
	}

	deleted, err := h.clientService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Client and associated workflows deleted successfully",
		"deleted": deleted,
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context(), c.Query("client_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.provisioner.Provision(c.Context(), services.ProvisionRequest{
		BusinessName:          req.BusinessName,
		OwnerName:             req.OwnerName,
		BusinessPhone:         req.BusinessPhone,
		TwilioNumber:          req.TwilioNumber,
		Website:               req.Website,
		AgencyID:              req.AgencyID,
		LinkExistingWorkflow:  req.LinkExistingWorkflow,
		ExistingN8NWorkflowID: req.ExistingN8NWorkflowID,
		ForceCreate:           req.ForceCreate,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	// Existence gate: an untouched remote document already carries this name,
	// so ask the caller to choose between linking it and forcing a new one.
	if result.Existing != nil {
		return c.JSON(fiber.Map{
			"workflow_exists":   true,
			"message":           `A workflow named "` + result.Existing.Name + `" already exists in n8n`,
			"existing_workflow": result.Existing,
			"prompt":            "Would you like to link this existing workflow to the client instead of creating a new one?",
		})
	}

	message := "Workflow created successfully!"
	if result.LinkedExisting {
		message = "Existing workflow linked successfully!"
	}

	response := fiber.Map{
		"success":     true,
		"workflow":    result.Workflow,
		"message":     message,
		"webhook_url": result.WebhookURL,
	}

	if result.LinkedExisting {
		response["linked_existing"] = true
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflow": workflow})
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.workflowService.UpdateStatus(c.Context(), id, models.WorkflowStatus(req.Status))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflow": workflow})
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Workflow record deleted; the n8n workflow was kept",
	})
}

func (h *APIHandlers) FixWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	result, err := h.workflowService.Fix(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Workflow updated successfully",
		"workflow": result.Workflow,
		"changes":  result.Changes,
	})
}

func (h *APIHandlers) SyncWorkflows(c fiber.Ctx) error {
	result, err := h.workflowService.Sync(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"synced":            len(result.Synced),
		"skipped":           len(result.Skipped),
		"synced_workflows":  result.Synced,
		"skipped_workflows": result.Skipped,
	})
}

func (h *APIHandlers) GetRemoteWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.ListRemote(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetRemoteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.GetRemote(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflow_id":   workflow.ID,
		"workflow_name": workflow.Name,
		"active":        workflow.Active,
		"n8n_url":       workflow.N8NURL,
		"created_at":    workflow.CreatedAt,
		"updated_at":    workflow.UpdatedAt,
	})
}

func (h *APIHandlers) ImportWorkflow(c fiber.Ctx) error {
	var req ImportWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if len(req.WorkflowTemplate) == 0 {
		return badRequest(c, "Workflow template is required")
	}

	var template n8n.Document
	if err := json.Unmarshal(req.WorkflowTemplate, &template); err != nil {
		return badRequest(c, "Workflow template is not a valid workflow document")
	}

	imported, err := h.workflowService.Import(c.Context(), &template, req.WorkflowName)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"workflow": imported,
	})
}

// StoreHealth probes the relational store with a cheap read so operators can
// verify credentials and table presence without touching any records.
func (h *APIHandlers) StoreHealth(c fiber.Ctx) error {
	if err := h.storeProbe.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"connected": false,
			"error":     err.Error(),
			"hint":      "Check the store credentials and that the clients table exists.",
		})
	}

	return c.JSON(fiber.Map{
		"connected": true,
		"message":   "Successfully connected to the relational store",
		"timestamp": time.Now().UTC(),
	})
}
