// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"content-sync-service/internal/app/service"
	"content-sync-service/internal/domain"
	"content-sync-service/internal/transport/httpserver/dto"
	"content-sync-service/internal/validator"
)

// ContentHandler handles content read requests.
type ContentHandler struct {
	service   *service.ContentService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(svc *service.ContentService, v *validator.Validator, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// List handles GET /api/v1/content
func (h *ContentHandler) List(c *fiber.Ctx) error {
	var req dto.ListRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	params := req.ToListParams()
	result, err := h.service.List(c.Context(), params)
	if err != nil {
		h.logger.Error("list items failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to list items",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromListResult(result))
}

// GetProvider handles GET /api/v1/content/:provider
//
// Responses carry an X-Content-Source header naming the rung that
// served them: hit, miss, stale or database.
func (h *ContentHandler) GetProvider(c *fiber.Ctx) error {
	providerID := c.Params("provider")

	var req dto.ProviderContentRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	items, source, err := h.service.GetProviderContent(c.Context(), providerID, req.Limit)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownProvider) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "unknown provider: " + providerID,
				Code:  "PROVIDER_NOT_FOUND",
			})
		}

		h.logger.Error("provider content unavailable",
			zap.String("provider", providerID),
			zap.Error(err))

		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: "content temporarily unavailable",
			Code:  "UPSTREAM_ERROR",
		})
	}

	c.Set("X-Content-Source", source)

	return c.JSON(dto.ProviderContentResponse{
		Provider: providerID,
		Source:   source,
		Count:    len(items),
		Items:    dto.FromDomainItems(items),
	})
}

// GetByID handles GET /api/v1/content/items/:id
func (h *ContentHandler) GetByID(c *fiber.Ctx) error {
	req := dto.ItemIDRequest{ID: c.Params("id")}
	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "id must be a valid UUID",
			Code:  "INVALID_ID",
		})
	}

	item, err := h.service.GetByID(c.Context(), req.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "item not found",
				Code:  "NOT_FOUND",
			})
		}

		h.logger.Error("get item failed", zap.String("id", req.ID), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to get item",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromDomainItem(item))
}
