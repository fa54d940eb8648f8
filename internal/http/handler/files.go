package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"appforge/internal/service"
)

func registerFileRoutes(app *fiber.App, files service.AppFileService) {
	// List generated files for a project
	app.Get("/projects/:id/files", func(c *fiber.Ctx) error {
		projectID := c.Params("id")
		if _, err := uuid.Parse(projectID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		list, err := files.ListByProject(c.UserContext(), projectID)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": list, "total": len(list)})
	})

	// Presigned download URL for a single file
	app.Get("/files/:id/download", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := files.PresignDownload(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrFileNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"url": url})
	})
}
