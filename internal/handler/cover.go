package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/service"
	"github.com/songforge/api/pkg/response"
)

type CoverHandler struct {
	service   *service.CoverService
	validator *validator.Validate
}

func NewCoverHandler(svc *service.CoverService, v *validator.Validate) *CoverHandler {
	return &CoverHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /api/cover/generate. The result arrives later via
// the provider's webhook, not in this response.
func (h *CoverHandler) Generate(c *fiber.Ctx) error {
	var req model.CoverGenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	coverTaskID, err := h.service.StartCover(c.Context(), req.TaskID)
	if err != nil {
		if errors.Is(err, service.ErrProviderNotConfigured) {
			return response.ServiceError(c, err.Error())
		}
		return response.ProviderError(c, err.Error())
	}

	return response.Accepted(c, model.CoverGenerateResponse{CoverTaskID: coverTaskID})
}
