package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func signHex(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.created"}`)
	secret := "whsec_test"
	sig := signHex(payload, secret)

	if !VerifySignature(payload, sig, secret) {
		t.Fatalf("expected bare hex signature to validate")
	}
	if !VerifySignature(payload, "sha256="+sig, secret) {
		t.Fatalf("expected prefixed signature to validate")
	}
	if !VerifySignature(payload, "  sha256="+strings.ToUpper(sig)+"  ", secret) {
		t.Fatalf("expected case and whitespace to be tolerated")
	}
}

func TestVerifySignature_Rejects(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"
	sig := signHex(payload, secret)

	if VerifySignature(payload, "", secret) {
		t.Fatalf("empty signature must fail")
	}
	if VerifySignature(payload, sig, "") {
		t.Fatalf("empty secret must fail")
	}
	if VerifySignature(payload, "sha256=not-hex", secret) {
		t.Fatalf("non-hex signature must fail")
	}
	if VerifySignature(payload, signHex(payload, "other-secret"), secret) {
		t.Fatalf("signature from a different secret must fail")
	}
}

func TestVerifySignature_AnyByteFlipFails(t *testing.T) {
	payload := []byte(`{"id":"evt_1","data":{"object":{"id":"sub_1"}}}`)
	secret := "whsec_test"
	sig := signHex(payload, secret)

	for i := range payload {
		flipped := append([]byte(nil), payload...)
		flipped[i] ^= 0x01
		if VerifySignature(flipped, sig, secret) {
			t.Fatalf("flipping byte %d still validated", i)
		}
	}
}
