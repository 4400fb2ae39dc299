package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestVerifier(t *testing.T, clientID string, handler http.HandlerFunc) *Verifier {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	v := NewVerifier(clientID)
	v.endpoint = server.URL
	return v
}

func tokenInfoResponse(info tokenInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(info)
	}
}

func TestVerify(t *testing.T) {
	valid := tokenInfo{
		Subject:       "g-123",
		Email:         "aluno@example.com",
		EmailVerified: "true",
		Name:          "Aluno",
		Audience:      "client-id",
	}

	tests := []struct {
		name     string
		clientID string
		info     tokenInfo
		wantErr  bool
	}{
		{"valid token", "client-id", valid, false},
		{"no audience check when client id unset", "", valid, false},
		{"audience mismatch", "outro-client", valid, true},
		{"unverified email", "client-id", tokenInfo{Subject: "g-1", Email: "x@example.com", EmailVerified: "false", Audience: "client-id"}, true},
		{"missing subject", "client-id", tokenInfo{Email: "x@example.com", EmailVerified: "true", Audience: "client-id"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestVerifier(t, tt.clientID, tokenInfoResponse(tt.info))
			identity, err := v.Verify(context.Background(), "token")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected verification to fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if identity.Subject != tt.info.Subject || identity.Email != tt.info.Email || identity.Name != tt.info.Name {
				t.Errorf("identity mismatch: %+v", identity)
			}
		})
	}
}

func TestVerifyRejectedToken(t *testing.T) {
	v := newTestVerifier(t, "client-id", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_token"}`, http.StatusBadRequest)
	})
	if _, err := v.Verify(context.Background(), "garbage"); err == nil {
		t.Fatal("rejected token should surface an error")
	}
}

func TestVerifyPassesTokenAsQuery(t *testing.T) {
	var gotToken string
	v := newTestVerifier(t, "", func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("id_token")
		json.NewEncoder(w).Encode(tokenInfo{Subject: "g-1", Email: "x@example.com", EmailVerified: "true"})
	})
	if _, err := v.Verify(context.Background(), "tok en+especial"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if gotToken != "tok en+especial" {
		t.Fatalf("token should survive query escaping, got %q", gotToken)
	}
}
