package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
)

const maxErrorBody = 4096

// HTTPClient talks to the authbridge server over HTTP. The legacy session
// cookie is kept in a cookie jar, so Login must precede Migrate.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &HTTPClient{
		baseURL: u,
		http:    &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

// LegacySessionToken returns the session cookie currently held, if any.
func (c *HTTPClient) LegacySessionToken() string {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == common.LegacySessionCookieName {
			return ck.Value
		}
	}
	return ""
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (c *HTTPClient) Register(ctx context.Context, email, password, name string) (*Session, error) {
	var s Session
	if err := c.doJSON(ctx, "/api/auth/register", credentials{Email: email, Password: password, Name: name}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	if err := c.doJSON(ctx, "/api/auth/login", credentials{Email: email, Password: password}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, http.StatusNoContent, http.StatusOK)
}

func (c *HTTPClient) Session(ctx context.Context) (*Session, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/auth/session", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Migrate calls the create-first migration endpoint.
func (c *HTTPClient) Migrate(ctx context.Context) (MigrateResult, error) {
	return c.migrate(ctx, "/api/auth-migration")
}

// SignInToken calls the lookup-first migration endpoint.
func (c *HTTPClient) SignInToken(ctx context.Context) (MigrateResult, error) {
	return c.migrate(ctx, "/api/signInToken")
}

func (c *HTTPClient) migrate(ctx context.Context, path string) (MigrateResult, error) {
	resp, err := c.send(ctx, http.MethodPost, path, nil)
	if err != nil {
		return MigrateResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return MigrateResult{}, fmt.Errorf("decode ticket: %w", err)
		}
		if body.Token == "" {
			return MigrateResult{}, fmt.Errorf("server returned an empty ticket")
		}
		return MigrateResult{Ticket: body.Token}, nil
	case common.StatusAlreadyHandled:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return MigrateResult{Sentinel: true, Message: string(msg)}, nil
	default:
		return MigrateResult{}, checkStatus(resp)
	}
}

func (c *HTTPClient) doJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK, http.StatusCreated); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// checkStatus maps resp to an error unless its status is one of ok. With no
// ok codes every status is an error.
func checkStatus(resp *http.Response, ok ...int) error {
	for _, code := range ok {
		if resp.StatusCode == code {
			return nil
		}
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %w", ErrUnavailable, &StatusError{Code: resp.StatusCode, Body: string(msg)})
	default:
		return &StatusError{Code: resp.StatusCode, Body: string(msg)}
	}
}
