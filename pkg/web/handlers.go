package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cihooks/postbuild/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	logger    *slog.Logger
	store     persistence.Persistence
	validator *validator.Validate
}

func NewAPIHandlers(
	logger *slog.Logger,
	store persistence.Persistence,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		logger:    logger,
		store:     store,
		validator: validator,
	}
}

func (h *APIHandlers) GetRuns(c fiber.Ctx) error {
	req, err := h.parseListRunsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.Limit == 0 {
		req.Limit = 20
	}

	runs, err := h.store.Runs(c.Context(), persistence.ListRunsOptions{
		JobName: req.Job,
		Limit:   req.Limit,
		Offset:  req.Offset,
	})
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(fiber.Map{
		"runs":  runs,
		"count": len(runs),
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
	})
}

// parseListRunsRequest parses query parameters for listing runs.
func (h *APIHandlers) parseListRunsRequest(c fiber.Ctx) (*ListRunsRequest, error) {
	req := &ListRunsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	req.Job = c.Query("job")

	return req, nil
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	record, err := h.store.RunByID(c.Context(), id)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(record)
}

func (h *APIHandlers) DeleteRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	err := h.store.DeleteRun(c.Context(), id)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	storeCheck := "ok"

	err := h.store.HealthCheck(c.Context())
	if err != nil {
		storeCheck = err.Error()

		h.logger.ErrorContext(c.Context(), "run store health check failed", "error", err)
	}

	status := "unhealthy"
	message := "Postbuild API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if err == nil {
		status = "healthy"
		message = "Postbuild API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"store": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
