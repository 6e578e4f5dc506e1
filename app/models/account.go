package models

import "time"

// Webhook provider constants used across billing and platform models.
const (
	ProviderStripe    = "stripe"
	ProviderFacebook  = "facebook"
	ProviderInstagram = "instagram"
)

// Account is a creator account. Billing webhooks resolve accounts through
// the external customer id assigned by the billing processor at checkout.
type Account struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Email              string    `gorm:"type:varchar(200);not null;index" json:"email"`
	ExternalCustomerID string    `gorm:"type:varchar(191);not null;default:'';uniqueIndex:ux_accounts_external_customer" json:"external_customer_id"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
