package constants

// Static route constants
const (
	WebhookStripeRoute = "/webhooks/stripe"
	WebhookMetaRoute   = "/webhooks/meta/:platform"
	APIV1Route         = "/api/v1"
)
