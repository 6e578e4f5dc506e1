package models

import "time"

// Processing outcomes recorded per normalized event.
const (
	EventOutcomeApplied    = "applied"
	EventOutcomeIgnored    = "ignored"
	EventOutcomeUnmappable = "unmappable"
)

// WebhookEvent is the append-only processed-event log. The unique index on
// (provider, provider_event_id) is what makes redelivery safe: the row is
// inserted in the same transaction as any state mutation, so an event is
// either fully applied and logged or neither.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_webhook_events_provider_event,unique,priority:1;index" json:"provider"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;index:ux_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Outcome         string     `gorm:"type:varchar(20);not null;default:''" json:"outcome"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
