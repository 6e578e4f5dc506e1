package webhook

import "fmt"

// AuthenticationError covers bad or missing signatures and verify tokens.
// Retries cannot fix it; the delivery is rejected before any state access.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Reason
}

// MalformedPayloadError covers unparseable bodies and payloads missing
// required fields.
type MalformedPayloadError struct {
	Reason string
	Err    error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload: %s: %v", e.Reason, e.Err)
	}
	return "malformed payload: " + e.Reason
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

// ConfigError marks a deployment defect (e.g. an unset signing secret). It is
// reported as a server error plus an operator alert, never as a rejection of
// the sender.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "webhook configuration error: " + e.Reason
}
