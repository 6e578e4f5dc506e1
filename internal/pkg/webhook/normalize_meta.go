package webhook

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PostPilotHQ/PostPilot/app/models"
)

type metaEnvelope struct {
	Object string `json:"object"`
	Entry  []struct {
		ID        string            `json:"id"`
		Time      int64             `json:"time"`
		Messaging []json.RawMessage `json:"messaging"`
		Changes   []struct {
			Field string          `json:"field"`
			Value json.RawMessage `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type metaMessageRefs struct {
	Message struct {
		MID string `json:"mid"`
	} `json:"message"`
}

// normalizeMeta fans a social-platform delivery out into one normalized event
// per messaging item and per field-level change, so a bad sub-event cannot
// block its siblings. Entries with neither become TypeUnhandled for
// visibility.
func normalizeMeta(provider string, rawBody []byte, receivedAt time.Time) ([]NormalizedEvent, error) {
	var env metaEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, &MalformedPayloadError{Reason: "invalid platform event JSON", Err: err}
	}
	if strings.TrimSpace(env.Object) == "" {
		return nil, &MalformedPayloadError{Reason: "platform event missing object"}
	}

	var events []NormalizedEvent
	for _, entry := range env.Entry {
		ts := entryTime(entry.Time, receivedAt)

		for _, msg := range entry.Messaging {
			ev := NormalizedEvent{
				Provider:          provider,
				Type:              TypeMessage,
				OriginalType:      "messaging",
				PlatformUserID:    strings.TrimSpace(entry.ID),
				Payload:           msg,
				ProviderTimestamp: ts,
			}
			var refs metaMessageRefs
			if err := json.Unmarshal(msg, &refs); err == nil && refs.Message.MID != "" {
				ev.ExternalEventID = refs.Message.MID
			}
			events = append(events, ev)
		}

		for _, change := range entry.Changes {
			if strings.TrimSpace(change.Field) == "" {
				return nil, &MalformedPayloadError{Reason: "platform change entry missing field"}
			}
			events = append(events, NormalizedEvent{
				Provider:          provider,
				Type:              ChangeType(change.Field),
				OriginalType:      change.Field,
				PlatformUserID:    strings.TrimSpace(entry.ID),
				Payload:           change.Value,
				ProviderTimestamp: ts,
			})
		}

		if len(entry.Messaging) == 0 && len(entry.Changes) == 0 {
			events = append(events, NormalizedEvent{
				Provider:          provider,
				Type:              TypeUnhandled,
				OriginalType:      env.Object,
				PlatformUserID:    strings.TrimSpace(entry.ID),
				ProviderTimestamp: ts,
			})
		}
	}
	return events, nil
}

// entryTime tolerates platforms that report entry time in milliseconds.
func entryTime(t int64, fallback time.Time) time.Time {
	if t <= 0 {
		return fallback
	}
	if t > 1_000_000_000_000 {
		return time.UnixMilli(t).UTC()
	}
	return time.Unix(t, 0).UTC()
}

// Normalize converts a verified delivery body into canonical events for the
// given provider.
func Normalize(provider string, rawBody []byte, receivedAt time.Time) ([]NormalizedEvent, error) {
	switch provider {
	case models.ProviderStripe:
		return normalizeStripe(rawBody, receivedAt)
	case models.ProviderFacebook, models.ProviderInstagram:
		return normalizeMeta(provider, rawBody, receivedAt)
	default:
		return nil, &MalformedPayloadError{Reason: "unknown provider " + provider}
	}
}
