// Package migration drives the client side of the account migration: poll
// the server for a one-time ticket, redeem it with the identity provider and
// remember that it happened.
package migration

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/authbridge/internal/client/client"
	"github.com/dmitrijs2005/authbridge/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/logging"
)

// DefaultMaxRetries bounds the number of migration requests after the first.
const DefaultMaxRetries = 100

// ErrAlreadyStarted is returned by Run on every call after the first.
var ErrAlreadyStarted = errors.New("migration already started")

// Migrator requests a ticket from the server.
type Migrator interface {
	Migrate(ctx context.Context) (client.MigrateResult, error)
}

// Redeemer exchanges a ticket for a provider session id.
type Redeemer interface {
	Redeem(ctx context.Context, ticket string) (string, error)
}

// StateStore persists the completion flag.
type StateStore interface {
	Flag(ctx context.Context, key string) (bool, error)
	SetFlag(ctx context.Context, key string) error
}

// Outcome is how a migration run ended.
type Outcome int

const (
	// OutcomeRedeemed: a ticket was issued and redeemed.
	OutcomeRedeemed Outcome = iota
	// OutcomeRedeemFailed: a ticket was issued but redemption failed. The
	// ticket is not reused.
	OutcomeRedeemFailed
	// OutcomeAlreadyMigrated: the server reported an existing provider session.
	OutcomeAlreadyMigrated
	// OutcomeNotSignedIn: the server saw no legacy session.
	OutcomeNotSignedIn
	// OutcomeSkipped: a previous run already completed.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRedeemed:
		return "redeemed"
	case OutcomeRedeemFailed:
		return "redeem failed"
	case OutcomeAlreadyMigrated:
		return "already migrated"
	case OutcomeNotSignedIn:
		return "not signed in"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes a finished migration run.
type Result struct {
	Outcome   Outcome
	SessionID string
	Attempts  int
	Err       error
}

// Poller runs the migration at most once per instance.
type Poller struct {
	migrator Migrator
	redeemer Redeemer
	state    StateStore
	log      logging.Logger

	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	started atomic.Bool
}

// NewPoller returns a Poller with the default retry settings.
func NewPoller(m Migrator, r Redeemer, s StateStore, log logging.Logger) *Poller {
	return &Poller{
		migrator:        m,
		redeemer:        r,
		state:           s,
		log:             log.With("module", "migration_poller"),
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: backoff.DefaultInitialInterval,
		MaxInterval:     backoff.DefaultMaxInterval,
	}
}

func (p *Poller) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0
	return b
}

// Run polls until the server answers with a ticket or the sentinel, the
// retry ceiling is reached or ctx is done. A second call on the same Poller
// returns ErrAlreadyStarted.
func (p *Poller) Run(ctx context.Context) (*Result, error) {
	if !p.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	done, err := p.state.Flag(ctx, metadata.KeyMigrationCompleted)
	if err != nil {
		return nil, err
	}
	if done {
		return &Result{Outcome: OutcomeSkipped}, nil
	}

	var (
		res      client.MigrateResult
		attempts int
	)
	op := func() error {
		attempts++
		r, err := p.migrator.Migrate(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return backoff.Permanent(err)
			}
			return err
		}
		res = r
		return nil
	}
	notify := func(err error, next time.Duration) {
		p.log.Warn(ctx, "migration attempt failed", "attempt", attempts, "retry_in", next, "error", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), p.MaxRetries), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, fmt.Errorf("migration polling gave up after %d attempts: %w", attempts, err)
	}

	result := &Result{Attempts: attempts}

	if res.Sentinel {
		if res.Message == common.MsgNotAuthenticated {
			result.Outcome = OutcomeNotSignedIn
			return result, nil
		}
		result.Outcome = OutcomeAlreadyMigrated
		return result, p.markCompleted(ctx)
	}

	sessionID, err := p.redeemer.Redeem(ctx, res.Ticket)
	if err != nil {
		p.log.Error(ctx, "ticket redemption failed", "error", err)
		result.Outcome = OutcomeRedeemFailed
		result.Err = err
	} else {
		p.log.Info(ctx, "ticket redeemed", "session_id", sessionID)
		result.Outcome = OutcomeRedeemed
		result.SessionID = sessionID
	}

	return result, p.markCompleted(ctx)
}

func (p *Poller) markCompleted(ctx context.Context) error {
	if err := p.state.SetFlag(ctx, metadata.KeyMigrationCompleted); err != nil {
		return fmt.Errorf("mark migration completed: %w", err)
	}
	return nil
}
