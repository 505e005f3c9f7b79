// Package webhook fires signed requests at the batch webhook, standing in
// for the scheduler that normally drives it.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/server/auth"
)

const signatureTTL = 5 * time.Minute

// Trigger calls the batch webhook the way the scheduler does, with a signed
// empty body.
type Trigger struct {
	URL        string
	SigningKey string
	HTTPClient *http.Client
	MaxRetries uint64
}

// NewTrigger returns a Trigger for url signing with signingKey.
func NewTrigger(url, signingKey string) *Trigger {
	return &Trigger{
		URL:        url,
		SigningKey: signingKey,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
		MaxRetries: 3,
	}
}

// Fire posts one signed, empty-bodied request. 5xx responses and transport
// errors are retried; any other non-200 status is returned as an error.
func (t *Trigger) Fire(ctx context.Context) error {
	if t.URL == "" {
		return fmt.Errorf("webhook url is not configured")
	}
	if t.SigningKey == "" {
		return fmt.Errorf("signing key is not configured")
	}

	op := func() error {
		body := []byte{}
		sig, err := auth.Sign(t.SigningKey, body, t.URL, signatureTTL)
		if err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set(common.SignatureHeaderName, sig)

		resp, err := t.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		switch {
		case resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, msg)
		default:
			return backoff.Permanent(fmt.Errorf("webhook returned %d: %s", resp.StatusCode, msg))
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), t.MaxRetries), ctx)
	return backoff.Retry(op, b)
}
