package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/poller"
	"github.com/songforge/api/internal/service"
	"github.com/songforge/api/pkg/response"
)

type GenerateHandler struct {
	service   *service.GenerationService
	poller    *poller.Poller
	validator *validator.Validate
}

func NewGenerateHandler(svc *service.GenerationService, p *poller.Poller, v *validator.Validate) *GenerateHandler {
	return &GenerateHandler{
		service:   svc,
		poller:    p,
		validator: v,
	}
}

// Start handles POST /api/generate. On acceptance the server-side poll
// loop for the task is started so track state converges even if the
// client never polls.
func (h *GenerateHandler) Start(c *fiber.Ctx) error {
	var req model.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.StartGeneration(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrProviderNotConfigured) {
			return response.ServiceError(c, err.Error())
		}
		return response.ProviderError(c, err.Error())
	}

	h.poller.Start(result.TaskID)

	return response.Accepted(c, result)
}

// Status handles GET /api/generate/status?taskId=...
func (h *GenerateHandler) Status(c *fiber.Ctx) error {
	taskID := c.Query("taskId")
	if taskID == "" {
		return response.ValidationError(c, "taskId is required", nil)
	}

	snapshot, err := h.service.FetchStatus(c.Context(), taskID)
	if err != nil {
		if errors.Is(err, service.ErrProviderNotConfigured) {
			return response.ServiceError(c, err.Error())
		}
		return response.ProviderError(c, err.Error())
	}

	return response.OK(c, snapshot)
}

// StopPolling handles POST /api/generate/stop
func (h *GenerateHandler) StopPolling(c *fiber.Ctx) error {
	var req model.StopPollingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	h.poller.Stop(req.TaskID)
	return response.NoContent(c)
}
