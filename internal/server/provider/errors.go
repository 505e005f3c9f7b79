package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmailTaken is returned by CreateUser when an identity with the same
// email already exists.
var ErrEmailTaken = errors.New("email address is taken")

const codeIdentifierExists = "form_identifier_exists"

// APIErrorItem is one entry of an error response.
type APIErrorItem struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	LongMessage string `json:"long_message"`
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	Status  int            `json:"-"`
	Errors  []APIErrorItem `json:"errors"`
	TraceID string         `json:"clerk_trace_id,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("provider API error (status %d)", e.Status)
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, it := range e.Errors {
		m := it.LongMessage
		if m == "" {
			m = it.Message
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", it.Code, m))
	}
	return fmt.Sprintf("provider API error (status %d): %s", e.Status, strings.Join(msgs, "; "))
}

// Is makes errors.Is(err, ErrEmailTaken) hold for identifier conflicts.
func (e *APIError) Is(target error) bool {
	if target != ErrEmailTaken {
		return false
	}
	for _, it := range e.Errors {
		if it.Code == codeIdentifierExists {
			return true
		}
		if strings.Contains(it.Message, "That email address is taken") ||
			strings.Contains(it.LongMessage, "That email address is taken") {
			return true
		}
	}
	return false
}
