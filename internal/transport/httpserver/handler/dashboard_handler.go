package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"content-sync-service/internal/app/service"
)

// DashboardHandler handles dashboard-related HTTP requests.
type DashboardHandler struct {
	contentService *service.ContentService
	syncService    *service.SyncService
	logger         *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(contentSvc *service.ContentService, syncSvc *service.SyncService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		contentService: contentSvc,
		syncService:    syncSvc,
		logger:         logger,
	}
}

// Render handles GET /dashboard
// Renders the dashboard HTML page using Fiber's template engine.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	// Stats are best effort; a failed query renders as zero.
	total, _ := h.contentService.Count(c.Context())
	perProvider, _ := h.contentService.CountByProvider(c.Context())
	runs, _ := h.syncService.ListSyncRuns(c.Context(), "", 10)

	return c.Render("pages/dashboard", fiber.Map{
		"Title":      "Content Sync Dashboard",
		"TotalItems": total,
		"Providers":  perProvider,
		"Runs":       runs,
	}, "layouts/base")
}
