// Package metadata is the CLI's key/value state store.
package metadata

import (
	"context"
	"time"
)

// Well-known keys.
const (
	// KeyMigrationCompleted is set once a ticket has been redeemed, or the
	// server reported there is nothing to migrate.
	KeyMigrationCompleted = "migration_completed"
	// KeyLastEmail remembers the last legacy account signed in with.
	KeyLastEmail = "last_email"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error

	Flag(ctx context.Context, key string) (bool, error)
	FlaggedAt(ctx context.Context, key string) (time.Time, bool, error)
	SetFlag(ctx context.Context, key string) error
}
