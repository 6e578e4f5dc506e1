package apiv1

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/PostPilotHQ/PostPilot/internal/pkg/billing"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/entitlements"
)

// APIServer serves the internal read API other services use to look up
// subscription state derived from webhook ingestion.
type APIServer struct {
	repo billing.Repository
}

// NewAPIServer creates a new API server instance
func NewAPIServer(repo billing.Repository) *APIServer {
	return &APIServer{repo: repo}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// GetSubscription returns the subscription state and effective entitlements
// for an external customer id. Customers without a local account resolve to
// the free entitlement set.
func (s *APIServer) GetSubscription(c *fiber.Ctx) error {
	customerID := c.Params("customer_id")
	if customerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "customer_id missing"})
	}

	account, err := s.repo.GetAccountByExternalCustomerID(c.Context(), customerID)
	if errors.Is(err, billing.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Unknown customer"})
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Lookup failed"})
	}

	rec, err := s.repo.GetSubscriptionByExternalCustomerID(c.Context(), customerID)
	if err != nil && !errors.Is(err, billing.ErrNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Lookup failed"})
	}

	resp := fiber.Map{
		"account_id":   account.ID,
		"tier":         "free",
		"status":       "none",
		"entitlements": entitlements.Effective(rec),
	}
	if rec != nil {
		resp["tier"] = rec.Tier
		resp["status"] = rec.Status
		if rec.CurrentPeriodEnd != nil {
			resp["current_period_end"] = rec.CurrentPeriodEnd
		}
		resp["cancel_at_period_end"] = rec.CancelAtPeriodEnd
	}
	return c.JSON(resp)
}
