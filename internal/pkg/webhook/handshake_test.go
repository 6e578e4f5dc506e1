package webhook

import "testing"

func TestVerifyHandshake(t *testing.T) {
	query := map[string]string{
		HandshakeModeParam:      "subscribe",
		HandshakeTokenParam:     "my-verify-token",
		HandshakeChallengeParam: "1158201444",
	}

	res := VerifyHandshake(query, "my-verify-token")
	if res.Status != 200 {
		t.Fatalf("status = %d, want 200", res.Status)
	}
	if res.Body != "1158201444" {
		t.Fatalf("challenge must be echoed verbatim, got %q", res.Body)
	}
}

func TestVerifyHandshake_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		query map[string]string
	}{
		{
			name: "wrong token",
			query: map[string]string{
				HandshakeModeParam:      "subscribe",
				HandshakeTokenParam:     "guess",
				HandshakeChallengeParam: "123",
			},
		},
		{
			name: "wrong mode",
			query: map[string]string{
				HandshakeModeParam:      "unsubscribe",
				HandshakeTokenParam:     "my-verify-token",
				HandshakeChallengeParam: "123",
			},
		},
		{
			name: "missing token",
			query: map[string]string{
				HandshakeModeParam:      "subscribe",
				HandshakeChallengeParam: "123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := VerifyHandshake(tt.query, "my-verify-token")
			if res.Status != 403 {
				t.Fatalf("status = %d, want 403", res.Status)
			}
			if res.Body == "123" {
				t.Fatalf("challenge must not leak on rejection")
			}
		})
	}
}

func TestVerifyHandshake_Repeatable(t *testing.T) {
	query := map[string]string{
		HandshakeModeParam:      "subscribe",
		HandshakeTokenParam:     "my-verify-token",
		HandshakeChallengeParam: "42",
	}
	for i := 0; i < 3; i++ {
		if res := VerifyHandshake(query, "my-verify-token"); res.Status != 200 || res.Body != "42" {
			t.Fatalf("attempt %d: got %d %q", i, res.Status, res.Body)
		}
	}
}
