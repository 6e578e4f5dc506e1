package router

import (
	"github.com/PostPilotHQ/PostPilot/app/controllers"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/constants"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/webhook"
	"github.com/gofiber/fiber/v2"
)

type WebhookRouter struct {
	processor *webhook.Processor
}

func NewWebhookRouter(processor *webhook.Processor) *WebhookRouter {
	return &WebhookRouter{processor: processor}
}

func (h WebhookRouter) InstallRouter(app *fiber.App) {
	// Provider webhooks: no CSRF, no session; authenticity comes from the
	// signature / verify-token checks inside the processor.
	app.Post(constants.WebhookStripeRoute, controllers.HandleBillingWebhook(h.processor))
	app.Get(constants.WebhookMetaRoute, controllers.HandlePlatformWebhookVerify(h.processor))
	app.Post(constants.WebhookMetaRoute, controllers.HandlePlatformWebhook(h.processor))
}
