package apiv1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/PostPilotHQ/PostPilot/app/models"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/billing"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/middleware"
)

func newAPITestApp(repo billing.Repository) *fiber.App {
	app := fiber.New()
	server := NewAPIServer(repo)
	api := app.Group("/api/v1", middleware.APIKeyAuthMiddleware())
	api.Get("/ping", server.GetPing)
	api.Get("/customers/:customer_id/subscription", server.GetSubscription)
	return app
}

func TestGetSubscription(t *testing.T) {
	t.Setenv("INTERNAL_API_KEY", "svc-key")

	repo := billing.NewMemoryRepository()
	account := repo.AddAccount(models.Account{Email: "creator@example.com", ExternalCustomerID: "cus_1"})
	if err := repo.SaveSubscription(t.Context(), &models.SubscriptionRecord{
		AccountID:              account.ID,
		ExternalSubscriptionID: "sub_1",
		ExternalCustomerID:     "cus_1",
		Tier:                   models.TierPro,
		Status:                 models.SubscriptionStatusActive,
		HasByok:                true,
	}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	app := newAPITestApp(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/cus_1/subscription", nil)
	req.Header.Set("X-API-Key", "svc-key")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Tier         string `json:"tier"`
		Status       string `json:"status"`
		Entitlements struct {
			ByokAllowed bool `json:"byok_allowed"`
		} `json:"entitlements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Tier != models.TierPro || body.Status != models.SubscriptionStatusActive {
		t.Fatalf("unexpected body: %+v", body)
	}
	if !body.Entitlements.ByokAllowed {
		t.Fatalf("expected byok entitlement for active pro with byok")
	}
}

func TestGetSubscription_UnknownCustomer(t *testing.T) {
	t.Setenv("INTERNAL_API_KEY", "svc-key")
	app := newAPITestApp(billing.NewMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/cus_404/subscription", nil)
	req.Header.Set("X-API-Key", "svc-key")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	t.Setenv("INTERNAL_API_KEY", "svc-key")
	app := newAPITestApp(billing.NewMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing key status = %d, want 401", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer svc-key")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bearer key status = %d, want 200", resp.StatusCode)
	}
}

func TestAPIDisabledWithoutKey(t *testing.T) {
	t.Setenv("INTERNAL_API_KEY", "")
	app := newAPITestApp(billing.NewMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("X-API-Key", "anything")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("disabled API status = %d, want 503", resp.StatusCode)
	}
}
