package webhook

import (
	"errors"
	"testing"
	"time"

	"github.com/PostPilotHQ/PostPilot/app/models"
)

func TestNormalizeMeta_FanOut(t *testing.T) {
	body := []byte(`{
		"object": "instagram",
		"entry": [
			{
				"id": "ig_1",
				"time": 1700000000,
				"messaging": [
					{ "sender": { "id": "u1" }, "message": { "mid": "mid.1", "text": "hi" } },
					{ "sender": { "id": "u2" }, "message": { "mid": "mid.2", "text": "ho" } }
				]
			},
			{
				"id": "ig_2",
				"time": 1700000001,
				"changes": [
					{ "field": "permissions", "value": { "granted": false } }
				]
			}
		]
	}`)

	events, err := Normalize(models.ProviderInstagram, body, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events from fan-out, got %d", len(events))
	}

	if events[0].Type != TypeMessage || events[0].ExternalEventID != "mid.1" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].ExternalEventID != "mid.2" || events[1].PlatformUserID != "ig_1" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	if events[2].Type != ChangeType("permissions") || events[2].PlatformUserID != "ig_2" {
		t.Fatalf("unexpected change event: %+v", events[2])
	}
}

func TestNormalizeMeta_EntryWithoutPayload(t *testing.T) {
	body := []byte(`{"object":"page","entry":[{"id":"fb_1","time":1700000000}]}`)

	events, err := Normalize(models.ProviderFacebook, body, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Type != TypeUnhandled {
		t.Fatalf("empty entry must normalize to unhandled, got %+v", events)
	}
}

func TestNormalizeMeta_MillisecondTime(t *testing.T) {
	body := []byte(`{"object":"page","entry":[{"id":"fb_1","time":1700000000123,"messaging":[{"message":{"mid":"mid.9"}}]}]}`)

	events, err := Normalize(models.ProviderFacebook, body, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.UnixMilli(1700000000123).UTC()
	if !events[0].ProviderTimestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", events[0].ProviderTimestamp, want)
	}
}

func TestNormalizeMeta_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"object":`},
		{name: "missing object", body: `{"entry":[]}`},
		{name: "change without field", body: `{"object":"page","entry":[{"id":"fb_1","changes":[{"value":{}}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(models.ProviderFacebook, []byte(tt.body), time.Now())
			var malformed *MalformedPayloadError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedPayloadError, got %v", err)
			}
		})
	}
}

func TestNormalize_UnknownProvider(t *testing.T) {
	_, err := Normalize("carrierpigeon", []byte(`{}`), time.Now())
	var malformed *MalformedPayloadError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedPayloadError for unknown provider, got %v", err)
	}
}

func TestDedupKey(t *testing.T) {
	withID := NormalizedEvent{Provider: models.ProviderStripe, ExternalEventID: "evt_1"}
	if withID.DedupKey() != "evt_1" {
		t.Fatalf("provider event id must win, got %q", withID.DedupKey())
	}

	a := NormalizedEvent{Provider: models.ProviderFacebook, Type: TypeMessage, PlatformUserID: "fb_1", Payload: []byte(`{"x":1}`)}
	b := NormalizedEvent{Provider: models.ProviderFacebook, Type: TypeMessage, PlatformUserID: "fb_1", Payload: []byte(`{"x":1}`)}
	if a.DedupKey() != b.DedupKey() {
		t.Fatalf("identical events must hash identically")
	}

	c := NormalizedEvent{Provider: models.ProviderFacebook, Type: TypeMessage, PlatformUserID: "fb_1", Payload: []byte(`{"x":2}`)}
	if a.DedupKey() == c.DedupKey() {
		t.Fatalf("different payloads must hash differently")
	}
}
