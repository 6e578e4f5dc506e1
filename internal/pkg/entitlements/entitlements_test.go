package entitlements

import (
	"testing"

	"github.com/PostPilotHQ/PostPilot/app/models"
)

func TestForTier_UnknownFallsBackToFree(t *testing.T) {
	if got := ForTier("platinum"); got != ForTier(models.TierFree) {
		t.Fatalf("unknown tier must get the free set, got %+v", got)
	}
}

func TestIsEntitlingStatus(t *testing.T) {
	for _, status := range []string{
		models.SubscriptionStatusActive,
		models.SubscriptionStatusTrialing,
		models.SubscriptionStatusPastDue,
	} {
		if !IsEntitlingStatus(status) {
			t.Fatalf("expected status %q to be entitling", status)
		}
	}
	for _, status := range []string{
		models.SubscriptionStatusNone,
		models.SubscriptionStatusCancelled,
	} {
		if IsEntitlingStatus(status) {
			t.Fatalf("expected status %q to be non-entitling", status)
		}
	}
}

func TestEffective(t *testing.T) {
	if got := Effective(nil); got != ForTier(models.TierFree) {
		t.Fatalf("nil record must get the free set, got %+v", got)
	}

	cancelled := &models.SubscriptionRecord{Tier: models.TierPro, Status: models.SubscriptionStatusCancelled}
	if got := Effective(cancelled); got != ForTier(models.TierFree) {
		t.Fatalf("cancelled subscription must get the free set, got %+v", got)
	}

	pro := &models.SubscriptionRecord{Tier: models.TierPro, Status: models.SubscriptionStatusActive, HasByok: true}
	if got := Effective(pro); !got.ByokAllowed || !got.AnalyticsEnabled {
		t.Fatalf("active pro with byok should keep full capabilities, got %+v", got)
	}

	proNoByok := &models.SubscriptionRecord{Tier: models.TierPro, Status: models.SubscriptionStatusActive}
	if got := Effective(proNoByok); got.ByokAllowed {
		t.Fatalf("byok must require the subscription flag, got %+v", got)
	}
}
