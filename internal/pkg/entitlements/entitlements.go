package entitlements

import (
	"github.com/PostPilotHQ/PostPilot/app/models"
)

// Entitlements are the capabilities a subscription tier grants. They are
// derived purely from tier and status; no per-account overrides exist here.
type Entitlements struct {
	ScheduledPostsPerMonth int  `json:"scheduled_posts_per_month"`
	MaxConnectedPlatforms  int  `json:"max_connected_platforms"`
	ByokAllowed            bool `json:"byok_allowed"`
	AnalyticsEnabled       bool `json:"analytics_enabled"`
}

const unlimited = -1

// ForTier returns the capabilities of a tier. Unknown tiers get the free
// set, so a bad value can never grant more than the baseline.
func ForTier(tier string) Entitlements {
	switch tier {
	case models.TierPro:
		return Entitlements{
			ScheduledPostsPerMonth: unlimited,
			MaxConnectedPlatforms:  unlimited,
			ByokAllowed:            true,
			AnalyticsEnabled:       true,
		}
	case models.TierGrowth:
		return Entitlements{
			ScheduledPostsPerMonth: 300,
			MaxConnectedPlatforms:  10,
			ByokAllowed:            true,
			AnalyticsEnabled:       true,
		}
	case models.TierCreator:
		return Entitlements{
			ScheduledPostsPerMonth: 60,
			MaxConnectedPlatforms:  3,
			AnalyticsEnabled:       true,
		}
	case models.TierPayg:
		return Entitlements{
			ScheduledPostsPerMonth: 0, // metered, billed per post
			MaxConnectedPlatforms:  5,
			ByokAllowed:            true,
		}
	default:
		return Entitlements{
			ScheduledPostsPerMonth: 10,
			MaxConnectedPlatforms:  1,
		}
	}
}

// IsEntitlingStatus reports whether a subscription status grants its tier's
// capabilities. past_due keeps them during the grace window; dunning ends
// with either a recovery or a cancellation event.
func IsEntitlingStatus(status string) bool {
	switch status {
	case models.SubscriptionStatusActive, models.SubscriptionStatusTrialing, models.SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}

// Effective resolves the capabilities for a subscription record, falling
// back to the free set when the record is missing or not entitling.
func Effective(rec *models.SubscriptionRecord) Entitlements {
	if rec == nil || !IsEntitlingStatus(rec.Status) {
		return ForTier(models.TierFree)
	}
	ent := ForTier(rec.Tier)
	if !rec.HasByok {
		ent.ByokAllowed = false
	}
	return ent
}
