package jobs

import (
	"context"
	"errors"

	"data-loader/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for jobs.
type Handler struct {
	service *Service
	// ctx bounds background runs; it outlives single requests.
	ctx context.Context
}

// NewHandler creates a new HTTP handler.
func NewHandler(ctx context.Context, service *Service) *Handler {
	return &Handler{service: service, ctx: ctx}
}

// RegisterRoutes registers the job routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/jobs")
	group.Get("/", h.HandleList)
	group.Get("/:name", h.HandleGet)
	group.Get("/:name/check", h.HandleCheck)
	group.Post("/:name/run", h.HandleRun)
	group.Get("/:name/report", h.HandleReport)
}

// HandleList returns the available job names.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	names, err := h.service.List()
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Listing jobs failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"jobs": names})
}

// HandleGet returns a job definition.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	job, err := h.service.Load(c.Params("name"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(job)
}

// HandleCheck runs the preflight check of a job.
func (h *Handler) HandleCheck(c *fiber.Ctx) error {
	problems, err := h.service.Check(c.Context(), c.Params("name"))
	if err != nil {
		return h.fail(c, err)
	}
	if problems == nil {
		problems = []Problem{}
	}
	return c.JSON(fiber.Map{"ok": len(problems) == 0, "problems": problems})
}

// HandleRun starts a job in the background. ?dry_run=true skips writes.
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	name := c.Params("name")
	l := logger.WithRayID(h.service.logger, c)

	opts := RunOptions{DryRun: c.QueryBool("dry_run", false)}
	if err := h.service.Start(h.ctx, name, opts); err != nil {
		return h.fail(c, err)
	}

	l.Info("Job started", zap.String("job", name), zap.Bool("dry_run", opts.DryRun))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job": name, "status": "started"})
}

// HandleReport returns the report of a job's last run.
func (h *Handler) HandleReport(c *fiber.Ctx) error {
	name := c.Params("name")
	report, ok := h.service.LastReport(name)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no report for job " + name})
	}
	return c.JSON(fiber.Map{"running": h.service.Running(name), "report": report})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrJobNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrJobRunning):
		status = fiber.StatusConflict
	default:
		logger.WithRayID(h.service.logger, c).Error("Job request failed", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
