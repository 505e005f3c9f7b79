// Package sessions declares the repository contract for legacy sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/server/models"
)

// Repository defines operations for issuing, resolving and revoking legacy
// session tokens.
type Repository interface {
	// Create stores token for userID expiring at now+validity and returns the
	// expiry.
	Create(ctx context.Context, userID string, token string, validity time.Duration) (time.Time, error)

	// Find resolves token to its session, joined with the owner's email.
	// Implementations return common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.Session, error)

	// Delete removes a session. Deleting a non-existent token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every session that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
