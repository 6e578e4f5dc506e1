package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PostPilotHQ/PostPilot/app/models"
)

// Service applies normalized billing and platform events to durable state.
// All Apply methods run inside a Repository.ProcessEvent transaction and
// return the outcome recorded in the processed-event log.
type Service struct {
	prices PriceTable
}

// NewService creates a service with a fixed price-tier table. The table is
// loaded once per deployment; there is no hot reload.
func NewService(prices PriceTable) *Service {
	return &Service{prices: prices}
}

// ApplySubscriptionCreated creates the subscription record for an account.
// Re-delivered or out-of-order created events for an existing record defer to
// the update path so provider state stays authoritative.
func (s *Service) ApplySubscriptionCreated(ctx context.Context, tx Repository, provider string, in SubscriptionEvent) (string, error) {
	if _, err := tx.GetSubscriptionByExternalID(ctx, in.SubscriptionID); err == nil {
		return s.ApplySubscriptionUpdated(ctx, tx, provider, in)
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	return s.applySubscriptionState(ctx, tx, provider, in, nil)
}

// ApplySubscriptionUpdated re-evaluates the full record from provider state.
// The provider timestamp guard makes out-of-order delivery converge on the
// newest provider state regardless of arrival order.
func (s *Service) ApplySubscriptionUpdated(ctx context.Context, tx Repository, provider string, in SubscriptionEvent) (string, error) {
	rec, err := tx.GetSubscriptionByExternalID(ctx, in.SubscriptionID)
	if errors.Is(err, ErrNotFound) {
		// Providers may deliver updated before created; treat as create.
		rec = nil
	} else if err != nil {
		return "", err
	}

	if rec != nil && rec.LastAppliedProviderTS != nil && in.Timestamp.Before(*rec.LastAppliedProviderTS) {
		return models.EventOutcomeIgnored, nil
	}
	return s.applySubscriptionState(ctx, tx, provider, in, rec)
}

func (s *Service) applySubscriptionState(ctx context.Context, tx Repository, provider string, in SubscriptionEvent, rec *models.SubscriptionRecord) (string, error) {
	tier, err := s.prices.Resolve(provider, in.PriceID)
	if err != nil {
		return "", err
	}
	status, err := StatusFromProvider(in.ProviderStatus)
	if err != nil {
		return "", fmt.Errorf("subscription %s: %w", in.SubscriptionID, err)
	}

	if rec == nil {
		account, err := tx.GetAccountByExternalCustomerID(ctx, in.CustomerID)
		if errors.Is(err, ErrNotFound) {
			// No local account for this customer; acknowledge so the
			// provider stops retrying data we cannot attribute.
			return models.EventOutcomeIgnored, nil
		} else if err != nil {
			return "", err
		}
		rec = &models.SubscriptionRecord{
			AccountID:              account.ID,
			ExternalSubscriptionID: in.SubscriptionID,
		}
	}

	ts := in.Timestamp
	rec.Tier = tier
	rec.Status = status
	rec.ExternalCustomerID = in.CustomerID
	rec.ExternalPriceID = in.PriceID
	rec.CurrentPeriodEnd = in.CurrentPeriodEnd
	rec.CancelAtPeriodEnd = in.CancelAtPeriodEnd
	rec.HasByok = in.HasByok
	rec.LastAppliedProviderTS = &ts
	rec.RawPayloadJSON = in.RawJSON

	if err := tx.SaveSubscription(ctx, rec); err != nil {
		return "", err
	}
	return models.EventOutcomeApplied, nil
}

// ApplySubscriptionDeleted cancels the subscription. The record is kept for
// billing history; only status and tier change. Deletion is terminal, so it
// applies regardless of the timestamp guard.
func (s *Service) ApplySubscriptionDeleted(ctx context.Context, tx Repository, in SubscriptionEvent) (string, error) {
	rec, err := tx.GetSubscriptionByExternalID(ctx, in.SubscriptionID)
	if errors.Is(err, ErrNotFound) {
		return models.EventOutcomeIgnored, nil
	} else if err != nil {
		return "", err
	}

	ts := in.Timestamp
	rec.Status = models.SubscriptionStatusCancelled
	rec.Tier = models.TierFree
	rec.CancelAtPeriodEnd = false
	rec.LastAppliedProviderTS = &ts
	if in.RawJSON != "" {
		rec.RawPayloadJSON = in.RawJSON
	}
	if err := tx.SaveSubscription(ctx, rec); err != nil {
		return "", err
	}
	return models.EventOutcomeApplied, nil
}

// ApplyInvoiceEvent re-derives subscription status from a payment result.
// Invoice payloads do not carry subscription state, so the affected record is
// looked up by the invoice's subscription id.
func (s *Service) ApplyInvoiceEvent(ctx context.Context, tx Repository, in InvoiceEvent) (string, error) {
	if in.SubscriptionID == "" {
		// One-off invoice, nothing to reconcile.
		return models.EventOutcomeIgnored, nil
	}

	rec, err := tx.GetSubscriptionByExternalID(ctx, in.SubscriptionID)
	if errors.Is(err, ErrNotFound) {
		return models.EventOutcomeIgnored, nil
	} else if err != nil {
		return "", err
	}

	if in.Paid {
		if rec.Status != models.SubscriptionStatusPastDue {
			return models.EventOutcomeIgnored, nil
		}
		rec.Status = models.SubscriptionStatusActive
	} else {
		if rec.Status == models.SubscriptionStatusCancelled {
			return models.EventOutcomeIgnored, nil
		}
		// A failed payment marks the record past_due even when it was not
		// active; the subscription id is proof enough of the linkage.
		rec.Status = models.SubscriptionStatusPastDue
	}
	if err := tx.SaveSubscription(ctx, rec); err != nil {
		return "", err
	}
	return models.EventOutcomeApplied, nil
}

// RevokePlatformConnection disables webhook processing for a social account.
// The row is kept with revoked_at set.
func (s *Service) RevokePlatformConnection(ctx context.Context, tx Repository, platform, platformUserID string, at time.Time) (string, error) {
	conn, err := tx.GetPlatformConnection(ctx, platform, platformUserID)
	if errors.Is(err, ErrNotFound) {
		return models.EventOutcomeIgnored, nil
	} else if err != nil {
		return "", err
	}
	if conn.IsRevoked() {
		return models.EventOutcomeIgnored, nil
	}
	conn.RevokedAt = &at
	if err := tx.SavePlatformConnection(ctx, conn); err != nil {
		return "", err
	}
	return models.EventOutcomeApplied, nil
}
