package handler

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// verifyApp mounts only the verification route; the handshake never
// touches the sync service.
func verifyApp(verifyToken string) *fiber.App {
	h := NewWebhookHandler(nil, verifyToken, 0, zap.NewNop())

	app := fiber.New()
	app.Get("/webhooks/:provider", h.Verify)

	return app
}

func TestWebhookVerify_EchoesChallenge(t *testing.T) {
	app := verifyApp("secret-token")

	req := httptest.NewRequest("GET",
		"/webhooks/instagram?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "12345", string(body))
}

func TestWebhookVerify_RejectsWrongToken(t *testing.T) {
	app := verifyApp("secret-token")

	req := httptest.NewRequest("GET",
		"/webhooks/instagram?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWebhookVerify_RejectsWrongMode(t *testing.T) {
	app := verifyApp("secret-token")

	req := httptest.NewRequest("GET",
		"/webhooks/instagram?hub.mode=unsubscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWebhookVerify_RejectsWhenNoTokenConfigured(t *testing.T) {
	// An unset verify token must fail closed, not accept everything.
	app := verifyApp("")

	req := httptest.NewRequest("GET",
		"/webhooks/instagram?hub.mode=subscribe&hub.verify_token=&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWebhookVerify_RejectsMissingChallenge(t *testing.T) {
	app := verifyApp("secret-token")

	req := httptest.NewRequest("GET",
		"/webhooks/instagram?hub.mode=subscribe&hub.verify_token=secret-token", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
