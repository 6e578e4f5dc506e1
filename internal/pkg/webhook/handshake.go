package webhook

import "crypto/subtle"

// Query parameter names used by the platform verification handshake.
const (
	HandshakeModeParam      = "hub.mode"
	HandshakeTokenParam     = "hub.verify_token"
	HandshakeChallengeParam = "hub.challenge"
)

// VerifyHandshake answers the one-time GET-based endpoint-ownership probe a
// platform sends before it will deliver POST events. It is a pure function of
// the query parameters: no body, no persistence, safe to call repeatedly.
// On success the challenge is echoed back verbatim.
func VerifyHandshake(query map[string]string, verifyToken string) Result {
	mode := query[HandshakeModeParam]
	token := query[HandshakeTokenParam]
	challenge := query[HandshakeChallengeParam]

	if mode != "subscribe" || token == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(verifyToken)) != 1 {
		return Result{Status: 403, Body: "Forbidden"}
	}
	return Result{Status: 200, Body: challenge}
}
