package models

import "time"

// WebhookDailyStat holds per-day delivery counters flushed from the Redis
// accumulators in internal/pkg/metrics/counter.
type WebhookDailyStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Day       string    `gorm:"type:varchar(10);not null;index:ux_webhook_daily_stats_key,unique,priority:1" json:"day"`
	Provider  string    `gorm:"type:varchar(20);not null;index:ux_webhook_daily_stats_key,unique,priority:2" json:"provider"`
	Outcome   string    `gorm:"type:varchar(20);not null;index:ux_webhook_daily_stats_key,unique,priority:3" json:"outcome"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
