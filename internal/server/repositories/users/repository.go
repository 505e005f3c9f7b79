// Package users declares the repository contract for the legacy users table.
package users

import (
	"context"

	"github.com/dmitrijs2005/authbridge/internal/server/models"
)

// Repository reads and writes legacy user rows.
type Repository interface {
	// Create inserts user and fills in its generated ID and CreatedAt.
	// A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user with the exact (case-sensitive) email, or
	// common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user with the given id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// ListAll returns every user ordered by creation time.
	ListAll(ctx context.Context) ([]*models.User, error)

	// UpdatePassword replaces the stored password of a single user.
	// It returns common.ErrorNotFound when no row matches id.
	UpdatePassword(ctx context.Context, id string, password string) error
}
