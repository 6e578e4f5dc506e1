package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/PostPilotHQ/PostPilot/app/models"
)

// Canonical event types. Normalizers map every provider payload into this
// closed set; anything outside it becomes TypeUnhandled.
const (
	TypeSubscriptionCreated = "subscription.created"
	TypeSubscriptionUpdated = "subscription.updated"
	TypeSubscriptionDeleted = "subscription.deleted"
	TypePaymentSucceeded    = "payment.succeeded"
	TypePaymentFailed       = "payment.failed"
	TypeMessage             = "message"
	TypeUnhandled           = "unhandled"
)

// ChangeType builds the canonical type for a field-level change entry,
// e.g. ChangeType("permissions") == "change.permissions".
func ChangeType(field string) string {
	return "change." + strings.ToLower(strings.TrimSpace(field))
}

// Per-event processing outcomes. The persisted subset aliases the model
// constants; the rest only exist for deriving the HTTP response.
const (
	OutcomeApplied    = models.EventOutcomeApplied
	OutcomeIgnored    = models.EventOutcomeIgnored
	OutcomeUnmappable = models.EventOutcomeUnmappable
	OutcomeDuplicate  = "duplicate"
	OutcomeMalformed  = "malformed"
	OutcomeTransient  = "transient"
)

// Delivery is one inbound HTTP delivery, transport details already shed.
// RawBody must be the exact wire bytes: signatures cover them, not any
// re-serialized form.
type Delivery struct {
	Provider   string
	RawBody    []byte
	Headers    map[string]string
	Query      map[string]string
	ReceivedAt time.Time
}

// Result is the HTTP-shaped response for one delivery.
type Result struct {
	Status int
	Body   string
}

// NormalizedEvent is the provider-neutral event the pipeline processes. One
// delivery fans out into zero or more of these.
type NormalizedEvent struct {
	Provider        string
	ExternalEventID string
	Type            string
	// OriginalType keeps the provider's vocabulary for logs and for
	// TypeUnhandled events.
	OriginalType      string
	SubscriptionID    string
	CustomerID        string
	PlatformUserID    string
	Payload           json.RawMessage
	ProviderTimestamp time.Time
}

// DedupKey returns the idempotency key for the event: the provider's event id
// when present, otherwise a content hash over identity and payload.
func (e *NormalizedEvent) DedupKey() string {
	if id := strings.TrimSpace(e.ExternalEventID); id != "" {
		return id
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		e.Provider,
		e.Type,
		e.SubscriptionID,
		e.CustomerID,
		e.PlatformUserID,
		string(e.Payload),
	}, "|")))
	return "hash:" + hex.EncodeToString(sum[:])
}

// outcomeRank orders outcomes by severity so a delivery's response reflects
// its worst sub-event. Any transient failure must force a provider retry.
func outcomeRank(outcome string) int {
	switch outcome {
	case OutcomeTransient:
		return 2
	case OutcomeMalformed:
		return 1
	default:
		return 0
	}
}

func outcomeStatus(outcome string) int {
	switch outcome {
	case OutcomeTransient:
		return 500
	case OutcomeMalformed:
		return 400
	default:
		return 200
	}
}
