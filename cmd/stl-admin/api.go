// Package main provides the Speed to Lead admin API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/contractorkingdom/stl-admin/pkg/n8n"
	"github.com/contractorkingdom/stl-admin/pkg/services"
	"github.com/contractorkingdom/stl-admin/pkg/store"
	"github.com/contractorkingdom/stl-admin/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger     *slog.Logger
	automation *n8n.Client
	store      *store.Store
	templateID string
	validate   *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	automation *n8n.Client,
	store *store.Store,
	templateID string,
) *API {
	return &API{
		logger:     logger,
		automation: automation,
		store:      store,
		templateID: templateID,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	agencyService := services.NewAgencies(a.store.Agencies(), a.logger)
	clientService := services.NewClients(a.store.Clients(), a.store.Workflows(), a.logger)
	workflowService := services.NewWorkflows(a.automation, a.store.Clients(), a.store.Workflows(), a.logger)
	provisioner := services.NewProvisioner(a.automation, a.store.Clients(), a.store.Workflows(), a.templateID, a.logger)

	handlers := web.NewAPIHandlers(agencyService, clientService, workflowService, provisioner, a.store, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Speed to Lead Admin API")
	})

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
	api.Get("/n8n/workflow/:id", handlers.GetRemoteWorkflow)
	api.Post("/n8n/import-workflow", handlers.ImportWorkflow)

	api.Get("/store/health", handlers.StoreHealth)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
