// Package services contains server-side business logic: migrating legacy
// users into the identity provider one at a time or in batches, the legacy
// credential flow and maintenance helpers.
package services

import (
	"context"

	"github.com/dmitrijs2005/authbridge/internal/server/models"
	"github.com/dmitrijs2005/authbridge/internal/server/provider"
)

// IdentityProvider is the subset of the provider Backend API the services use.
type IdentityProvider interface {
	FindUsersByEmail(ctx context.Context, email string) ([]provider.Identity, error)
	CreateUser(ctx context.Context, params provider.CreateUserParams) (*provider.Identity, error)
	CreateSignInToken(ctx context.Context, userID string) (*provider.SignInToken, error)
}

// ImportQueue holds legacy users waiting to be created in the provider.
type ImportQueue interface {
	Push(ctx context.Context, e models.QueueEntry) error
	Len(ctx context.Context) (int64, error)
	Pop(ctx context.Context) (*models.QueueEntry, bool, error)
}

// ReportArchiver persists batch import reports.
type ReportArchiver interface {
	Store(ctx context.Context, r *models.ImportReport) error
}
