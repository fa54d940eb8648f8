package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"appforge/internal/service"
)

func registerPreviewRoutes(app *fiber.App, previews service.PreviewService) {
	// Start a preview environment for a project
	app.Post("/projects/:id/preview", func(c *fiber.Ctx) error {
		projectID := c.Params("id")
		if _, err := uuid.Parse(projectID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		p, err := previews.Create(c.UserContext(), projectID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrProjectNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "project not found")
			case errors.Is(err, service.ErrPreviewActive):
				return writeError(c, fiber.StatusConflict, "PREVIEW_ACTIVE", "project already has an active preview")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusAccepted).JSON(p)
	})

	// Get preview by ID
	app.Get("/previews/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		p, err := previews.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrPreviewNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "preview not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(p)
	})

	// Tear down a preview; deleting a terminal preview is a no-op
	app.Delete("/previews/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := previews.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrPreviewNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "preview not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
