package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"appforge/internal/service"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func registerProjectRoutes(app *fiber.App, projects service.ProjectService) {
	// List projects with limit & offset
	app.Get("/projects", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := projects.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	})

	// Create project
	app.Post("/projects", func(c *fiber.Ctx) error {
		var req createProjectRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		p, err := projects.Create(c.UserContext(), req.Name, req.Description)
		if err != nil {
			if errors.Is(err, service.ErrNameRequired) {
				return writeError(c, fiber.StatusBadRequest, "NAME_REQUIRED", "name is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	// Get project by ID
	app.Get("/projects/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		p, err := projects.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrProjectNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "project not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(p)
	})

	// Delete project and its generated files
	app.Delete("/projects/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := projects.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrProjectNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "project not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
