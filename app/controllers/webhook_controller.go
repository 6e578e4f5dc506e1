package controllers

import (
	"context"
	"time"

	"github.com/PostPilotHQ/PostPilot/app/models"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/webhook"
	"github.com/gofiber/fiber/v2"
)

const webhookHandleTimeout = 15 * time.Second

// HandleBillingWebhook returns the handler for billing-processor deliveries.
// The processor is injected so tests can run against fakes.
func HandleBillingWebhook(p *webhook.Processor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return runProcessor(c, p, models.ProviderStripe)
	}
}

// HandlePlatformWebhookVerify returns the handler for the GET verify-token
// handshake a social platform performs before sending POST events.
func HandlePlatformWebhookVerify(p *webhook.Processor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		platform, ok := socialPlatform(c)
		if !ok {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return runProcessor(c, p, platform)
	}
}

// HandlePlatformWebhook returns the handler for social-platform POST
// deliveries.
func HandlePlatformWebhook(p *webhook.Processor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		platform, ok := socialPlatform(c)
		if !ok {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return runProcessor(c, p, platform)
	}
}

func runProcessor(c *fiber.Ctx, p *webhook.Processor, provider string) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers[string(key)] = string(value)
	})

	ctx, cancel := context.WithTimeout(context.Background(), webhookHandleTimeout)
	defer cancel()

	res := p.Handle(ctx, webhook.Delivery{
		Provider:   provider,
		RawBody:    rawBody,
		Headers:    headers,
		Query:      c.Queries(),
		ReceivedAt: time.Now().UTC(),
	})
	return c.Status(res.Status).SendString(res.Body)
}

func socialPlatform(c *fiber.Ctx) (string, bool) {
	switch c.Params("platform") {
	case models.ProviderFacebook:
		return models.ProviderFacebook, true
	case models.ProviderInstagram:
		return models.ProviderInstagram, true
	default:
		return "", false
	}
}
