// Package provider is a client for the identity provider's Backend API
// (Clerk-compatible): user lookup and creation, and one-time sign-in tokens.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/authbridge/internal/logging"
)

const (
	DefaultAPIEndpoint = "https://api.clerk.com"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxElapsed  = 30 * time.Second

	maxResponseSize = 10 * 1024 * 1024
)

// Client talks to the provider Backend API.
type Client struct {
	SecretKey  string
	BaseURL    string
	HTTPClient *http.Client
	Logger     logging.Logger

	// NewBackOff builds the retry policy of a single call. BackOff
	// implementations are stateful, so a fresh one is made per call.
	NewBackOff func() backoff.BackOff
}

// NewClient creates a client authenticating with secretKey. An empty baseURL
// selects DefaultAPIEndpoint.
func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIEndpoint
	}
	return &Client{
		SecretKey:  secretKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		Logger:     logging.Nop{},
		NewBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = DefaultMaxElapsed
	return bo
}

// WithHTTPClient returns a copy of c using httpClient.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	cp := *c
	cp.HTTPClient = httpClient
	return &cp
}

// WithLogger returns a copy of c logging retries to l.
func (c *Client) WithLogger(l logging.Logger) *Client {
	cp := *c
	cp.Logger = l
	return &cp
}

// retryAfterBackOff honours a server supplied Retry-After before falling
// back to the wrapped policy.
type retryAfterBackOff struct {
	backoff.BackOff
	next time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	d := b.BackOff.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if b.next > 0 {
		d, b.next = b.next, 0
	}
	return d
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if s, err := strconv.Atoi(v); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

type retryableError struct {
	status int
	body   string
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("provider unavailable (status %d): %s", e.status, e.body)
}

// do sends one API call, retrying transport failures, 429 and 5xx. The
// decoded response is stored in out when it is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	bo := &retryAfterBackOff{BackOff: c.NewBackOff()}
	var respBody []byte

	op := func() error {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.SecretKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			bo.next = parseRetryAfter(resp.Header.Get("Retry-After"))
			return &retryableError{status: resp.StatusCode, body: string(b)}
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			apiErr := &APIError{}
			_ = json.Unmarshal(b, apiErr)
			apiErr.Status = resp.StatusCode
			return backoff.Permanent(apiErr)
		}

		respBody = b
		return nil
	}

	notify := func(err error, d time.Duration) {
		c.Logger.Warn(ctx, "provider call failed, retrying", "method", method, "path", path, "in", d, "error", err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// FindUsersByEmail lists the identities holding email.
func (c *Client) FindUsersByEmail(ctx context.Context, email string) ([]Identity, error) {
	q := url.Values{}
	q.Add("email_address", email)

	var users []Identity
	if err := c.do(ctx, http.MethodGet, "/v1/users", q, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates an identity. Identifier conflicts satisfy
// errors.Is(err, ErrEmailTaken).
func (c *Client) CreateUser(ctx context.Context, params CreateUserParams) (*Identity, error) {
	u := &Identity{}
	if err := c.do(ctx, http.MethodPost, "/v1/users", nil, params, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateSignInToken mints a one-time sign-in ticket for userID.
func (c *Client) CreateSignInToken(ctx context.Context, userID string) (*SignInToken, error) {
	t := &SignInToken{}
	if err := c.do(ctx, http.MethodPost, "/v1/sign_in_tokens", nil, signInTokenRequest{UserID: userID}, t); err != nil {
		return nil, err
	}
	return t, nil
}
