package client

import (
	"context"
	"time"
)

// Client is the authbridge server API as seen by the CLI.
type Client interface {
	Register(ctx context.Context, email, password, name string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context) error
	Session(ctx context.Context) (*Session, error)
	Migrate(ctx context.Context) (MigrateResult, error)
	SignInToken(ctx context.Context) (MigrateResult, error)
}

// Session is the legacy session as reported by the server.
type Session struct {
	UserID  string    `json:"user_id"`
	Email   string    `json:"email"`
	Expires time.Time `json:"expires"`
}

// MigrateResult is the outcome of a migration request: either a one-time
// ticket (201) or the "nothing to do" sentinel (222) with its message.
type MigrateResult struct {
	Ticket   string
	Sentinel bool
	Message  string
}

// HasTicket reports whether the server issued a ticket.
func (r MigrateResult) HasTicket() bool {
	return !r.Sentinel && r.Ticket != ""
}
