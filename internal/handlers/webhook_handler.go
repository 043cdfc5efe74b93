package handlers

import (
	"loja/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler receives payment gateway callbacks. These routes sit
// outside the auth middleware: the gateway is the caller, not a user.
type WebhookHandler struct {
	webhookService *services.WebhookService
	secret         string // optional shared secret, empty disables signature checks
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookService *services.WebhookService, secret string) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		secret:         secret,
	}
}

// RegisterRoutes registers the webhook routes.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/webhook/pagbank", h.HandlePagBank)
	router.Post("/webhook/pagseguro", h.HandleLegacy)
}

// HandlePagBank receives the JSON webhook. Unknown references and
// unrecognized statuses are acknowledged with 200 so the gateway stops
// retrying; only our own failures return 500.
func (h *WebhookHandler) HandlePagBank(c *fiber.Ctx) error {
	body := c.Body()
	if h.secret != "" {
		signature := c.Get("X-Webhook-Signature")
		if !services.ValidSignature(h.secret, body, signature) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid webhook signature",
			})
		}
	}

	if err := h.webhookService.ProcessPagBank(body); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to process notification",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleLegacy receives the form-encoded notification used by the older
// gateway integration.
func (h *WebhookHandler) HandleLegacy(c *fiber.Ctx) error {
	notificationCode := c.FormValue("notificationCode")
	if err := h.webhookService.ProcessLegacyNotification(notificationCode); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to process notification",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true})
}
