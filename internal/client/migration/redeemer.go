package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TicketRedeemer exchanges a one-time ticket for a provider session through
// the provider's frontend API.
type TicketRedeemer struct {
	FrontendAPI string
	HTTPClient  *http.Client
}

func NewTicketRedeemer(frontendAPI string, timeout time.Duration) *TicketRedeemer {
	return &TicketRedeemer{
		FrontendAPI: strings.TrimRight(frontendAPI, "/"),
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

type signInResponse struct {
	Response struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		CreatedSessionID string `json:"created_session_id"`
	} `json:"response"`
}

// Redeem creates a sign-in with the ticket strategy and returns the id of
// the session it created.
func (r *TicketRedeemer) Redeem(ctx context.Context, ticket string) (string, error) {
	if r.FrontendAPI == "" {
		return "", fmt.Errorf("frontend api url is not configured")
	}

	form := url.Values{"strategy": {"ticket"}, "ticket": {ticket}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.FrontendAPI+"/v1/client/sign_ins", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("redeem ticket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("redeem ticket: status %d: %s", resp.StatusCode, body)
	}

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode sign in: %w", err)
	}
	if out.Response.CreatedSessionID == "" {
		return "", fmt.Errorf("sign in %s not complete (status %q)", out.Response.ID, out.Response.Status)
	}
	return out.Response.CreatedSessionID, nil
}
