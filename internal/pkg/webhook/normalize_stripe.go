package webhook

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PostPilotHQ/PostPilot/app/models"
)

// Billing-processor event vocabulary mapped onto the canonical set. Types
// outside this table normalize to TypeUnhandled.
var stripeTypeMap = map[string]string{
	"customer.subscription.created": TypeSubscriptionCreated,
	"customer.subscription.updated": TypeSubscriptionUpdated,
	"customer.subscription.deleted": TypeSubscriptionDeleted,
	"invoice.payment_succeeded":     TypePaymentSucceeded,
	"invoice.payment_failed":        TypePaymentFailed,
}

type stripeEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeObjectRefs struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

// normalizeStripe converts a billing-processor delivery into exactly one
// normalized event. The envelope carries one type and one affected object.
func normalizeStripe(rawBody []byte, receivedAt time.Time) ([]NormalizedEvent, error) {
	var env stripeEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, &MalformedPayloadError{Reason: "invalid billing event JSON", Err: err}
	}
	if strings.TrimSpace(env.ID) == "" || strings.TrimSpace(env.Type) == "" {
		return nil, &MalformedPayloadError{Reason: "billing event missing id or type"}
	}

	ts := receivedAt
	if env.Created > 0 {
		ts = time.Unix(env.Created, 0).UTC()
	}

	ev := NormalizedEvent{
		Provider:          models.ProviderStripe,
		ExternalEventID:   strings.TrimSpace(env.ID),
		OriginalType:      env.Type,
		Payload:           env.Data.Object,
		ProviderTimestamp: ts,
	}

	canonical, ok := stripeTypeMap[env.Type]
	if !ok {
		ev.Type = TypeUnhandled
		return []NormalizedEvent{ev}, nil
	}
	ev.Type = canonical

	var refs stripeObjectRefs
	if err := json.Unmarshal(env.Data.Object, &refs); err != nil {
		return nil, &MalformedPayloadError{Reason: "invalid billing event object", Err: err}
	}
	ev.CustomerID = strings.TrimSpace(refs.Customer)
	switch canonical {
	case TypePaymentSucceeded, TypePaymentFailed:
		ev.SubscriptionID = strings.TrimSpace(refs.Subscription)
	default:
		ev.SubscriptionID = strings.TrimSpace(refs.ID)
	}

	return []NormalizedEvent{ev}, nil
}
