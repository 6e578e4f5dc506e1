package models

import "time"

// PlatformConnection links an account to a social platform account that is
// allowed to deliver webhooks. Revocation keeps the row for audit.
type PlatformConnection struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AccountID      uint       `gorm:"not null;index" json:"account_id"`
	Platform       string     `gorm:"type:varchar(20);not null;index:ux_platform_connections_platform_user,unique,priority:1" json:"platform"`
	PlatformUserID string     `gorm:"type:varchar(191);not null;index:ux_platform_connections_platform_user,unique,priority:2" json:"platform_user_id"`
	VerifyToken    string     `gorm:"type:varchar(191);not null;default:''" json:"-"`
	WebhookSecret  string     `gorm:"type:text" json:"-"`
	ConnectedAt    time.Time  `gorm:"autoCreateTime" json:"connected_at"`
	RevokedAt      *time.Time `gorm:"type:timestamp;default:null" json:"revoked_at,omitempty"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsRevoked reports whether webhook processing for this connection is disabled.
func (p *PlatformConnection) IsRevoked() bool {
	return p.RevokedAt != nil
}
