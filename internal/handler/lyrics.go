package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/service"
	"github.com/songforge/api/pkg/response"
)

type LyricsHandler struct {
	service   *service.LyricsService
	validator *validator.Validate
}

func NewLyricsHandler(svc *service.LyricsService, v *validator.Validate) *LyricsHandler {
	return &LyricsHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /api/lyrics/generate
func (h *LyricsHandler) Generate(c *fiber.Ctx) error {
	var req model.LyricsGenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Generate(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromptTooLong):
			return response.Error(c, fiber.StatusUnprocessableEntity, response.CodeValidationError, err.Error(), nil)
		case errors.Is(err, service.ErrProviderNotConfigured):
			return response.ServiceError(c, err.Error())
		default:
			return response.ProviderError(c, err.Error())
		}
	}

	return response.Accepted(c, result)
}

// Timestamped handles POST /api/lyrics/timestamped
func (h *LyricsHandler) Timestamped(c *fiber.Ctx) error {
	var req model.TimestampedLyricsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	data, err := h.service.GetTimestamped(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrProviderNotConfigured) {
			return response.ServiceError(c, err.Error())
		}
		return response.ProviderError(c, err.Error())
	}

	c.Set("Content-Type", "application/json")
	return c.Send(data)
}
