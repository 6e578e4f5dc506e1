package webhook

import (
	"fmt"

	"github.com/PostPilotHQ/PostPilot/app/models"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/billing"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/env"
	"github.com/go-playground/validator/v10"
)

// Config holds the per-provider verification material and the price-tier
// table. It is loaded once at startup; secrets never appear in logs.
type Config struct {
	StripeWebhookSecret string             `validate:"required"`
	MetaAppSecret       string             `validate:"required"`
	MetaVerifyToken     string             `validate:"required"`
	PriceTiers          billing.PriceTable `validate:"required,min=1"`
}

// LoadConfigFromEnv reads webhook configuration from the environment and
// validates that every required value is present.
func LoadConfigFromEnv() (*Config, error) {
	tiers, err := billing.ParsePriceTierMap(env.GetEnv("STRIPE_PRICE_TIER_MAP", ""))
	if err != nil {
		return nil, fmt.Errorf("STRIPE_PRICE_TIER_MAP: %w", err)
	}

	cfg := &Config{
		StripeWebhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		MetaAppSecret:       env.GetEnv("META_APP_SECRET", ""),
		MetaVerifyToken:     env.GetEnv("META_VERIFY_TOKEN", ""),
		PriceTiers:          tiers,
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("webhook config incomplete: %w", err)
	}
	return cfg, nil
}

// SigningSecret returns the HMAC secret for a provider, or "" when the
// provider has none configured.
func (c *Config) SigningSecret(provider string) string {
	switch provider {
	case models.ProviderStripe:
		return c.StripeWebhookSecret
	case models.ProviderFacebook, models.ProviderInstagram:
		return c.MetaAppSecret
	default:
		return ""
	}
}
