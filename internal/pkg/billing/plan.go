package billing

import (
	"fmt"
	"strings"

	"github.com/PostPilotHQ/PostPilot/app/models"
)

// PriceTable maps billing-processor price ids to internal tiers. The table is
// total over configured prices: resolving an unknown id is a hard error,
// never a fallback to a default tier.
type PriceTable map[string]string

// ParsePriceTierMap parses "price_id:tier,price_id:tier" pairs as configured
// via STRIPE_PRICE_TIER_MAP.
func ParsePriceTierMap(raw string) (PriceTable, error) {
	table := make(PriceTable)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		priceID, tier, found := strings.Cut(pair, ":")
		priceID = strings.TrimSpace(priceID)
		tier = strings.ToLower(strings.TrimSpace(tier))
		if !found || priceID == "" || tier == "" {
			return nil, fmt.Errorf("invalid price-tier entry %q", pair)
		}
		if !validTier(tier) {
			return nil, fmt.Errorf("unknown tier %q for price %q", tier, priceID)
		}
		if existing, ok := table[priceID]; ok && existing != tier {
			return nil, fmt.Errorf("conflicting tiers for price %q: %s vs %s", priceID, existing, tier)
		}
		table[priceID] = tier
	}
	return table, nil
}

// Resolve returns the tier for a price id or an UnmappableDataError.
func (t PriceTable) Resolve(provider, priceID string) (string, error) {
	tier, ok := t[strings.TrimSpace(priceID)]
	if !ok {
		return "", &UnmappableDataError{Provider: provider, Field: "price", Value: priceID}
	}
	return tier, nil
}

func validTier(tier string) bool {
	switch tier {
	case models.TierFree, models.TierCreator, models.TierGrowth, models.TierPro, models.TierPayg:
		return true
	default:
		return false
	}
}

// StatusFromProvider maps the billing processor's subscription status
// vocabulary onto local subscription statuses.
func StatusFromProvider(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "trialing":
		return models.SubscriptionStatusTrialing, nil
	case "active":
		return models.SubscriptionStatusActive, nil
	case "past_due", "unpaid":
		return models.SubscriptionStatusPastDue, nil
	case "canceled", "cancelled":
		return models.SubscriptionStatusCancelled, nil
	case "incomplete", "paused":
		return models.SubscriptionStatusNone, nil
	case "incomplete_expired":
		return models.SubscriptionStatusCancelled, nil
	default:
		return "", &UnmappableDataError{Field: "status", Value: status}
	}
}
