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

// AdminHandler handles sync and cache administration requests.
type AdminHandler struct {
	syncService *service.SyncService
	validator   *validator.Validator
	logger      *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.SyncService, v *validator.Validator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		syncService: svc,
		validator:   v,
		logger:      logger,
	}
}

// parseSyncRequest reads the optional JSON body. An empty body means
// default options.
func (h *AdminHandler) parseSyncRequest(c *fiber.Ctx) (dto.SyncRequest, error) {
	var req dto.SyncRequest
	if len(c.Body()) == 0 {
		return req, nil
	}

	if err := c.BodyParser(&req); err != nil {
		return req, err
	}

	return req, h.validator.Validate(&req)
}

// SyncAll handles POST /api/v1/admin/sync
func (h *AdminHandler) SyncAll(c *fiber.Ctx) error {
	req, err := h.parseSyncRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "invalid sync request",
			Code:    "INVALID_REQUEST",
			Details: err,
		})
	}

	runs, err := h.syncService.SyncAllLocked(c.Context(), req.ToSyncOptions())
	if err != nil {
		if errors.Is(err, domain.ErrSyncLocked) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: "a sync is already running",
				Code:  "SYNC_IN_PROGRESS",
			})
		}

		h.logger.Error("sync failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "sync failed",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromSyncResults(runs))
}

// SyncProvider handles POST /api/v1/admin/sync/:provider
func (h *AdminHandler) SyncProvider(c *fiber.Ctx) error {
	providerID := c.Params("provider")

	req, err := h.parseSyncRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "invalid sync request",
			Code:    "INVALID_REQUEST",
			Details: err,
		})
	}

	run, err := h.syncService.SyncProviderLocked(c.Context(), providerID, req.ToSyncOptions())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownProvider):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "unknown provider: " + providerID,
				Code:  "PROVIDER_NOT_FOUND",
			})
		case errors.Is(err, domain.ErrSyncLocked):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: "a sync is already running",
				Code:  "SYNC_IN_PROGRESS",
			})
		}

		var aborted *domain.SyncAbortedError
		if errors.As(err, &aborted) {
			h.logger.Warn("sync aborted",
				zap.String("provider", providerID),
				zap.Error(err))

			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
				Error: aborted.Error(),
				Code:  "SYNC_ABORTED",
			})
		}

		h.logger.Error("sync failed", zap.String("provider", providerID), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "sync failed",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromSyncRun(run))
}

// Invalidate handles POST /api/v1/admin/cache/invalidate
func (h *AdminHandler) Invalidate(c *fiber.Ctx) error {
	var req dto.InvalidateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "invalid request body",
				Code:  "INVALID_REQUEST",
			})
		}
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	if err := h.syncService.InvalidateProvider(c.Context(), req.Provider); err != nil {
		h.logger.Error("cache invalidation failed",
			zap.String("provider", req.Provider),
			zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "cache invalidation failed",
			Code:  "INTERNAL_ERROR",
		})
	}

	scope := req.Provider
	if scope == "" {
		scope = "all"
	}

	return c.JSON(fiber.Map{
		"status": "invalidated",
		"scope":  scope,
	})
}

// ListRuns handles GET /api/v1/admin/runs
func (h *AdminHandler) ListRuns(c *fiber.Ctx) error {
	var req dto.RunsRequest
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

	runs, err := h.syncService.ListSyncRuns(c.Context(), req.Provider, req.Limit)
	if err != nil {
		h.logger.Error("list sync runs failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to list sync runs",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(fiber.Map{
		"runs":  dto.FromSyncRuns(runs),
		"count": len(runs),
	})
}

// GetProviders handles GET /api/v1/admin/providers
func (h *AdminHandler) GetProviders(c *fiber.Ctx) error {
	names := h.syncService.GetProviderNames()

	return c.JSON(fiber.Map{
		"providers": names,
		"count":     len(names),
	})
}
