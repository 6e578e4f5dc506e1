package router

import (
	"github.com/PostPilotHQ/PostPilot/internal/pkg/billing"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/webhook"
	"github.com/gofiber/fiber/v2"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter registers all route groups on the app. The webhook processor
// and repository are constructed once in main and threaded through here.
func InstallRouter(app *fiber.App, processor *webhook.Processor, repo billing.Repository) {
	setup(app, NewWebhookRouter(processor), NewApiRouter(repo))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
