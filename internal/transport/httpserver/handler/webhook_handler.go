package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"content-sync-service/internal/app/service"
	"content-sync-service/internal/domain"
	"content-sync-service/internal/transport/httpserver/dto"
)

// WebhookHandler handles provider change notifications.
//
// Providers deliver Graph-style webhooks: a GET verification handshake
// when the subscription is created, then POST notifications on content
// changes. Notification payloads are not trusted as data; they only
// trigger a fresh sync of the named provider.
type WebhookHandler struct {
	syncService *service.SyncService
	verifyToken string
	syncTimeout time.Duration
	logger      *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(svc *service.SyncService, verifyToken string, syncTimeout time.Duration, logger *zap.Logger) *WebhookHandler {
	if syncTimeout <= 0 {
		syncTimeout = 5 * time.Minute
	}

	return &WebhookHandler{
		syncService: svc,
		verifyToken: verifyToken,
		syncTimeout: syncTimeout,
		logger:      logger,
	}
}

// Verify handles GET /webhooks/:provider
//
// The hub.* parameter names contain dots, so they are read directly
// from the query string instead of through QueryParser.
func (h *WebhookHandler) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || challenge == "" || !h.tokenMatches(token) {
		h.logger.Warn("webhook verification rejected",
			zap.String("provider", c.Params("provider")),
			zap.String("mode", mode))

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: "verification failed",
			Code:  "VERIFICATION_FAILED",
		})
	}

	return c.SendString(challenge)
}

// Notify handles POST /webhooks/:provider
//
// The notification is acknowledged immediately; the sync runs in the
// background so the provider never sees a slow or failing response.
func (h *WebhookHandler) Notify(c *fiber.Ctx) error {
	providerID := c.Params("provider")
	if !h.providerKnown(providerID) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "unknown provider: " + providerID,
			Code:  "PROVIDER_NOT_FOUND",
		})
	}

	h.logger.Info("webhook notification received",
		zap.String("provider", providerID),
		zap.Int("body_bytes", len(c.Body())))

	go h.runSync(providerID)

	return c.JSON(fiber.Map{"status": "accepted"})
}

func (h *WebhookHandler) runSync(providerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), h.syncTimeout)
	defer cancel()

	_, err := h.syncService.SyncProviderLocked(ctx, providerID, service.SyncOptions{})
	if err != nil {
		if errors.Is(err, domain.ErrSyncLocked) {
			h.logger.Debug("webhook sync skipped, another sync is running",
				zap.String("provider", providerID))
			return
		}

		h.logger.Warn("webhook-triggered sync failed",
			zap.String("provider", providerID),
			zap.Error(err))
	}
}

func (h *WebhookHandler) tokenMatches(token string) bool {
	if h.verifyToken == "" || token == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) == 1
}

func (h *WebhookHandler) providerKnown(providerID string) bool {
	for _, name := range h.syncService.GetProviderNames() {
		if name == providerID {
			return true
		}
	}

	return false
}
