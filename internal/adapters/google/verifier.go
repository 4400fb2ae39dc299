package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/unihub/core/internal/ports"
)

const tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// Verifier checks Google ID tokens against Google's tokeninfo endpoint and
// enforces the configured OAuth client id as audience.
type Verifier struct {
	clientID string
	endpoint string
	client   *http.Client
}

// NewVerifier creates a verifier bound to one OAuth client id.
func NewVerifier(clientID string) *Verifier {
	return &Verifier{
		clientID: clientID,
		endpoint: tokenInfoURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type tokenInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Audience      string `json:"aud"`
}

// Verify implements ports.GoogleVerifier.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*ports.GoogleIdentity, error) {
	endpoint := v.endpoint + "?id_token=" + url.QueryEscape(idToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo rejected token: status %d", resp.StatusCode)
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode tokeninfo response: %w", err)
	}

	if v.clientID != "" && info.Audience != v.clientID {
		return nil, fmt.Errorf("token audience mismatch")
	}
	if info.EmailVerified != "true" {
		return nil, fmt.Errorf("email not verified")
	}
	if info.Subject == "" || info.Email == "" {
		return nil, fmt.Errorf("token missing subject or email")
	}

	return &ports.GoogleIdentity{
		Subject: info.Subject,
		Email:   info.Email,
		Name:    info.Name,
	}, nil
}
