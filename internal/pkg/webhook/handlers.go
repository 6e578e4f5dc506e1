package webhook

import (
	"context"
	"errors"

	"github.com/PostPilotHQ/PostPilot/app/models"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/billing"
	"github.com/gofiber/fiber/v2/log"
)

// RegisterDefaultHandlers binds the production handler set: billing
// subscription lifecycle plus the social-platform events the core reacts to.
func RegisterDefaultHandlers(r *Router, svc *billing.Service) {
	r.Register(models.ProviderStripe, TypeSubscriptionCreated, subscriptionHandler(svc.ApplySubscriptionCreated))
	r.Register(models.ProviderStripe, TypeSubscriptionUpdated, subscriptionHandler(svc.ApplySubscriptionUpdated))
	r.Register(models.ProviderStripe, TypeSubscriptionDeleted, func(ctx context.Context, tx billing.Repository, ev NormalizedEvent) (string, error) {
		in := billing.SubscriptionEvent{
			SubscriptionID: ev.SubscriptionID,
			Timestamp:      ev.ProviderTimestamp,
			RawJSON:        string(ev.Payload),
		}
		if in.SubscriptionID == "" {
			return "", &MalformedPayloadError{Reason: "subscription event missing subscription id"}
		}
		outcome, err := svc.ApplySubscriptionDeleted(ctx, tx, in)
		return finishBilling(ev, outcome, err)
	})
	r.Register(models.ProviderStripe, TypePaymentSucceeded, invoiceHandler(svc))
	r.Register(models.ProviderStripe, TypePaymentFailed, invoiceHandler(svc))

	for _, platform := range []string{models.ProviderFacebook, models.ProviderInstagram} {
		r.Register(platform, TypeMessage, ackMessage)
		r.Register(platform, ChangeType("permissions"), revocationHandler(svc))
		r.Register(platform, ChangeType("deauthorize"), revocationHandler(svc))
	}
}

func subscriptionHandler(apply func(ctx context.Context, tx billing.Repository, provider string, in billing.SubscriptionEvent) (string, error)) HandlerFunc {
	return func(ctx context.Context, tx billing.Repository, ev NormalizedEvent) (string, error) {
		in, err := billing.ParseSubscriptionEvent(ev.Payload, ev.ProviderTimestamp)
		if err != nil {
			return "", &MalformedPayloadError{Reason: "invalid subscription object", Err: err}
		}
		outcome, err := apply(ctx, tx, ev.Provider, in)
		return finishBilling(ev, outcome, err)
	}
}

func invoiceHandler(svc *billing.Service) HandlerFunc {
	return func(ctx context.Context, tx billing.Repository, ev NormalizedEvent) (string, error) {
		in, err := billing.ParseInvoiceEvent(ev.Payload, ev.ProviderTimestamp)
		if err != nil {
			return "", &MalformedPayloadError{Reason: "invalid invoice object", Err: err}
		}
		in.Paid = ev.Type == TypePaymentSucceeded
		outcome, err := svc.ApplyInvoiceEvent(ctx, tx, in)
		return finishBilling(ev, outcome, err)
	}
}

func revocationHandler(svc *billing.Service) HandlerFunc {
	return func(ctx context.Context, tx billing.Repository, ev NormalizedEvent) (string, error) {
		if ev.PlatformUserID == "" {
			return "", &MalformedPayloadError{Reason: "change entry missing platform user id"}
		}
		outcome, err := svc.RevokePlatformConnection(ctx, tx, ev.Provider, ev.PlatformUserID, ev.ProviderTimestamp)
		return finishBilling(ev, outcome, err)
	}
}

// ackMessage acknowledges inbound platform messages. The processed-event row
// is the durable receipt; message content handling lives outside this core.
func ackMessage(ctx context.Context, tx billing.Repository, ev NormalizedEvent) (string, error) {
	log.Debugf("webhook: message received provider=%s platform_user=%s", ev.Provider, ev.PlatformUserID)
	return models.EventOutcomeApplied, nil
}

// finishBilling converts permanently unmappable provider data into an
// acknowledged outcome so the sender does not retry forever. The alert is the
// operator's signal that the tier table needs attention.
func finishBilling(ev NormalizedEvent, outcome string, err error) (string, error) {
	if err == nil {
		return outcome, nil
	}
	var unmappable *billing.UnmappableDataError
	if errors.As(err, &unmappable) {
		log.Errorf("alert=unmappable_webhook_data provider=%s type=%s event=%s detail=%v",
			ev.Provider, ev.OriginalType, ev.DedupKey(), err)
		return models.EventOutcomeUnmappable, nil
	}
	return "", err
}
