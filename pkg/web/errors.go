package web

import (
	"errors"

	"github.com/contractorkingdom/stl-admin/pkg/n8n"
	"github.com/contractorkingdom/stl-admin/pkg/services"
	"github.com/contractorkingdom/stl-admin/pkg/store"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError translates service, store, and upstream errors into
// problem responses: validation 400, conflicts 409, missing records 404,
// upstream failures keep the upstream status, missing credentials 500 with a
// configuration hint.
func handleServiceError(c fiber.Ctx, err error) error {
	var provisionErr *services.ProvisionError
	if errors.As(err, &provisionErr) {
		// The step prefix in the message names how far the flow got; the
		// underlying cause decides the status code.
		return handleProvisionError(c, provisionErr)
	}

	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case store.IsConflict(err):
		return conflict(c, err.Error())

	case store.IsNotFound(err), n8n.IsNotFound(err):
		return notFound(c, err.Error())

	case store.IsNotConfigured(err):
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("store_not_configured").
			WithDetail(err.Error())

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}

	if apiErr, ok := n8n.AsAPIError(err); ok {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = fiber.StatusBadGateway
		}

		problem := problems.NewStatusProblem(status).
			WithInstance(c.Path()).
			WithType("upstream_error").
			WithDetail(apiErr.Error())

		return c.Status(status).JSON(problem)
	}

	return internalError(c, err)
}

func handleProvisionError(c fiber.Ctx, provisionErr *services.ProvisionError) error {
	inner := provisionErr.Unwrap()

	switch {
	case services.IsValidationError(inner):
		return badRequest(c, provisionErr.Error())

	case store.IsConflict(inner):
		return conflict(c, provisionErr.Error())

	case store.IsNotConfigured(inner):
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("store_not_configured").
			WithDetail(provisionErr.Error())

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}

	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("provisioning_failed").
		WithDetail(provisionErr.Error())

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}
