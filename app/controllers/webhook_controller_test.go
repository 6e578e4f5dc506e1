package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PostPilotHQ/PostPilot/app/models"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/billing"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/webhook"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookTestApp(repo billing.Repository) *fiber.App {
	cfg := &webhook.Config{
		StripeWebhookSecret: "whsec_test",
		MetaAppSecret:       "meta_secret",
		MetaVerifyToken:     "verify-token",
		PriceTiers:          billing.PriceTable{"price_creator": models.TierCreator},
	}
	p := webhook.NewProcessor(cfg, repo, billing.NewService(cfg.PriceTiers))

	app := fiber.New()
	app.Post("/webhooks/stripe", HandleBillingWebhook(p))
	app.Get("/webhooks/meta/:platform", HandlePlatformWebhookVerify(p))
	app.Post("/webhooks/meta/:platform", HandlePlatformWebhook(p))
	return app
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHandleBillingWebhook(t *testing.T) {
	repo := billing.NewMemoryRepository()
	repo.AddAccount(models.Account{Email: "creator@example.com", ExternalCustomerID: "cus_1"})
	app := newWebhookTestApp(repo)

	body := []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.created",
		"created": 1700000000,
		"data": { "object": {
			"id": "sub_1",
			"customer": "cus_1",
			"status": "active",
			"items": { "data": [ { "price": { "id": "price_creator" } } ] }
		} }
	}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", signBody(body, "whsec_test"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	rec := repo.Subscription("sub_1")
	require.NotNil(t, rec)
	assert.Equal(t, models.TierCreator, rec.Tier)
}

func TestHandleBillingWebhook_BadSignature(t *testing.T) {
	repo := billing.NewMemoryRepository()
	app := newWebhookTestApp(repo)

	body := []byte(`{"id":"evt_1","type":"customer.subscription.created","data":{"object":{"id":"sub_1"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", signBody(body, "wrong-secret"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, repo.EventCount())
}

func TestHandlePlatformWebhookVerify(t *testing.T) {
	app := newWebhookTestApp(billing.NewMemoryRepository())

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/meta/facebook?hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=314159", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	challenge, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "314159", string(challenge))
}

func TestHandlePlatformWebhookVerify_WrongToken(t *testing.T) {
	app := newWebhookTestApp(billing.NewMemoryRepository())

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/meta/facebook?hub.mode=subscribe&hub.verify_token=guess&hub.challenge=314159", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandlePlatformWebhook(t *testing.T) {
	repo := billing.NewMemoryRepository()
	app := newWebhookTestApp(repo)

	body := []byte(`{"object":"instagram","entry":[{"id":"ig_1","time":1700000000,"messaging":[{"message":{"mid":"mid.1","text":"hi"}}]}]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/meta/instagram", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", "sha256="+signBody(body, "meta_secret"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, repo.EventCount())
}

func TestHandlePlatformWebhook_UnknownPlatform(t *testing.T) {
	app := newWebhookTestApp(billing.NewMemoryRepository())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/meta/myspace", bytes.NewReader([]byte(`{}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
