// Package services contains application services for the authbridge CLI.
// This file defines the legacy authentication service: register, login and
// logout against the server, plus the local bookkeeping tied to the account.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/authbridge/internal/client/client"
	"github.com/dmitrijs2005/authbridge/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/authbridge/internal/dbx"
)

// AuthService defines the legacy authentication operations of the CLI.
//
// Switching to a different account resets the local migration state so the
// migration flow runs again for the new account.
type AuthService interface {
	Register(ctx context.Context, email string, password []byte, name string) (*client.Session, error)
	Login(ctx context.Context, email string, password []byte) (*client.Session, error)
	Logout(ctx context.Context) error
	Session(ctx context.Context) (*client.Session, error)
	LastEmail(ctx context.Context) (string, error)
	ClearLocalData(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) getMetadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (a *authService) Register(ctx context.Context, email string, password []byte, name string) (*client.Session, error) {
	s, err := a.client.Register(ctx, email, string(password), name)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	if err := a.rememberAccount(ctx, email); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (*client.Session, error) {
	s, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	if err := a.rememberAccount(ctx, email); err != nil {
		return nil, err
	}
	return s, nil
}

// rememberAccount stores email as the last account and, when it differs
// from the previous one, forgets the migration flag in the same transaction.
func (a *authService) rememberAccount(ctx context.Context, email string) error {
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getMetadataRepo(tx)

		prev, err := repo.Get(ctx, metadata.KeyLastEmail)
		if err != nil {
			return err
		}
		if prev != nil && string(prev) != email {
			if err := repo.Delete(ctx, metadata.KeyMigrationCompleted); err != nil {
				return err
			}
		}
		return repo.Set(ctx, metadata.KeyLastEmail, []byte(email))
	})
	if err != nil {
		return fmt.Errorf("local data saving error: %w", err)
	}
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.client.Logout(ctx)
}

func (a *authService) Session(ctx context.Context) (*client.Session, error) {
	return a.client.Session(ctx)
}

func (a *authService) LastEmail(ctx context.Context) (string, error) {
	v, err := a.getMetadataRepo(a.db).Get(ctx, metadata.KeyLastEmail)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// ClearLocalData wipes all locally stored state, including the migration flag.
func (a *authService) ClearLocalData(ctx context.Context) error {
	return a.getMetadataRepo(a.db).Clear(ctx)
}
