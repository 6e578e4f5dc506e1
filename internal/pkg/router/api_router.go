package router

import (
	"github.com/gofiber/fiber/v2"

	apiv1 "github.com/PostPilotHQ/PostPilot/internal/api/v1"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/billing"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/constants"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/middleware"
)

type ApiRouter struct {
	repo billing.Repository
}

func NewApiRouter(repo billing.Repository) *ApiRouter {
	return &ApiRouter{repo: repo}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	server := apiv1.NewAPIServer(h.repo)

	api := app.Group(constants.APIV1Route, middleware.APIKeyAuthMiddleware())
	api.Get("/ping", server.GetPing)
	api.Get("/customers/:customer_id/subscription", server.GetSubscription)
}
