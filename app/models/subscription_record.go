package models

import "time"

const (
	TierFree    = "free"
	TierCreator = "creator"
	TierGrowth  = "growth"
	TierPro     = "pro"
	TierPayg    = "payg"
)

const (
	SubscriptionStatusNone      = "none"
	SubscriptionStatusTrialing  = "trialing"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPastDue   = "past_due"
	SubscriptionStatusCancelled = "cancelled"
)

// SubscriptionRecord mirrors the billing processor's subscription state for
// one account. Records are created by the first subscription event and kept
// forever; cancellation is a status transition, never a delete.
type SubscriptionRecord struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	AccountID              uint       `gorm:"not null;index" json:"account_id"`
	Tier                   string     `gorm:"type:varchar(20);not null;default:'free';index" json:"tier"`
	Status                 string     `gorm:"type:varchar(20);not null;default:'none';index" json:"status"`
	ExternalSubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_subscription_records_external_sub" json:"external_subscription_id"`
	ExternalCustomerID     string     `gorm:"type:varchar(191);not null;default:'';index" json:"external_customer_id"`
	ExternalPriceID        string     `gorm:"type:varchar(191);not null;default:''" json:"external_price_id"`
	CurrentPeriodEnd       *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool       `gorm:"default:false" json:"cancel_at_period_end"`
	HasByok                bool       `gorm:"default:false" json:"has_byok"`
	LastAppliedProviderTS  *time.Time `gorm:"type:timestamp;default:null" json:"last_applied_provider_ts,omitempty"`
	RawPayloadJSON         string     `gorm:"type:longtext" json:"raw_payload_json"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
