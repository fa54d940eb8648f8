package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"appforge/internal/service"
)

const (
	// logPollInterval is how often the SSE stream polls for new log lines.
	logPollInterval = 500 * time.Millisecond
	// logStreamTimeout bounds a single SSE connection.
	logStreamTimeout = 10 * time.Minute
)

type startGenerationRequest struct {
	Prompt string `json:"prompt"`
}

func registerGenerationRoutes(app *fiber.App, generator service.GeneratorService) {
	// Start a generation job for a project
	app.Post("/projects/:id/generations", func(c *fiber.Ctx) error {
		projectID := c.Params("id")
		if _, err := uuid.Parse(projectID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var req startGenerationRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		job, err := generator.StartGeneration(c.UserContext(), projectID, req.Prompt)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrPromptRequired):
				return writeError(c, fiber.StatusBadRequest, "PROMPT_REQUIRED", "prompt is required")
			case errors.Is(err, service.ErrProjectNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "project not found")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusAccepted).JSON(job)
	})

	// List a project's generation jobs with limit & offset
	app.Get("/projects/:id/generations", func(c *fiber.Ctx) error {
		projectID := c.Params("id")
		if _, err := uuid.Parse(projectID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := generator.ListJobs(c.UserContext(), projectID, limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	})

	// Get generation job by ID
	app.Get("/generations/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		job, err := generator.GetJob(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrJobNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "generation job not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(job)
	})

	// Stream job logs as server-sent events. Replays from the "after" seq and
	// follows until the job reaches a terminal state.
	app.Get("/generations/:id/logs", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		after, err := strconv.Atoi(c.Query("after", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_AFTER", "invalid after")
		}

		// Resolve the job before committing to a stream so missing jobs still
		// get a proper 404.
		if _, err := generator.GetJob(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrJobNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "generation job not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			streamJobLogs(generator, id, after, w)
		})
		return nil
	})
}

// streamJobLogs polls the log table and writes SSE frames until the job is
// terminal and fully drained, the client goes away, or the stream times out.
// It runs after the handler returns, so it carries its own context.
func streamJobLogs(generator service.GeneratorService, jobID string, after int, w *bufio.Writer) {
	ctx, cancel := context.WithTimeout(context.Background(), logStreamTimeout)
	defer cancel()

	for {
		lines, err := generator.ListLogsAfter(ctx, jobID, after)
		if err != nil {
			return
		}
		for _, line := range lines {
			data, err := json.Marshal(line)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: log\ndata: %s\n\n", line.Seq, data)
			after = line.Seq
		}
		// Flush errors mean the client disconnected.
		if err := w.Flush(); err != nil {
			return
		}

		job, err := generator.GetJob(ctx, jobID)
		if err != nil {
			return
		}
		if job.Status.Terminal() && len(lines) == 0 {
			fmt.Fprintf(w, "event: done\ndata: {\"status\":%q}\n\n", job.Status)
			_ = w.Flush()
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(logPollInterval):
		}
	}
}
