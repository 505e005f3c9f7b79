package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/auth"
	"github.com/dmitrijs2005/authbridge/internal/server/models"
	"github.com/dmitrijs2005/authbridge/internal/server/provider"
	"github.com/dmitrijs2005/authbridge/internal/server/repositories/repomanager"
)

// Caller is the authentication state of an incoming request. Either field
// may be nil.
type Caller struct {
	Provider *auth.ProviderSession
	Legacy   *models.Session
}

// Strategy selects how the target identity is resolved.
type Strategy int

const (
	// CreateFirst attempts creation and falls back to a lookup when the
	// email is taken.
	CreateFirst Strategy = iota
	// LookupFirst queries by email and only creates when nothing is found.
	LookupFirst
)

func (s Strategy) String() string {
	if s == LookupFirst {
		return "lookup-first"
	}
	return "create-first"
}

// MigrationService maps a legacy identity to a provider identity and issues
// a one-time sign-in ticket for it.
type MigrationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	provider    IdentityProvider
	log         logging.Logger
}

// NewMigrationService constructs a MigrationService.
func NewMigrationService(db *sql.DB, m repomanager.RepositoryManager, p IdentityProvider, log logging.Logger) *MigrationService {
	return &MigrationService{db: db, repomanager: m, provider: p, log: log.With("module", "migration")}
}

// ReconcileCreateFirst runs Reconcile with CreateFirst.
func (s *MigrationService) ReconcileCreateFirst(ctx context.Context, c Caller) (string, error) {
	return s.Reconcile(ctx, c, CreateFirst)
}

// ReconcileLookupFirst runs Reconcile with LookupFirst.
func (s *MigrationService) ReconcileLookupFirst(ctx context.Context, c Caller) (string, error) {
	return s.Reconcile(ctx, c, LookupFirst)
}

// Reconcile returns a sign-in ticket for the caller's legacy account,
// creating the provider identity when needed.
//
// Callers that already hold a provider session get common.ErrAlreadyMigrated,
// callers without a legacy session common.ErrNotAuthenticated. Neither is a
// failure. Concurrent calls for the same email converge on one identity: a
// creation that loses the race sees provider.ErrEmailTaken and re-queries.
func (s *MigrationService) Reconcile(ctx context.Context, c Caller, strategy Strategy) (string, error) {
	if c.Provider != nil {
		return "", common.ErrAlreadyMigrated
	}
	if c.Legacy == nil || c.Legacy.Email == "" {
		return "", common.ErrNotAuthenticated
	}

	email := c.Legacy.Email
	log := s.log.With("email", email, "strategy", strategy.String())

	var (
		identity *provider.Identity
		err      error
	)
	switch strategy {
	case LookupFirst:
		identity, err = s.findFirst(ctx, email)
		if err == nil && identity == nil {
			identity, err = s.createOrFind(ctx, email)
		}
	default:
		identity, err = s.createOrFind(ctx, email)
	}
	if err != nil {
		log.Error(ctx, "resolve provider identity", "error", err)
		return "", err
	}

	ticket, err := s.provider.CreateSignInToken(ctx, identity.ID)
	if err != nil {
		log.Error(ctx, "create sign in token", "provider_user_id", identity.ID, "error", err)
		return "", fmt.Errorf("create sign in token: %w", err)
	}
	if ticket == nil || ticket.Token == "" {
		return "", common.ErrTicketNotIssued
	}

	log.Info(ctx, "sign in token issued", "provider_user_id", identity.ID)
	return ticket.Token, nil
}

// createOrFind creates the identity from the legacy record; if the email is
// already taken it uses whatever identity now holds it.
func (s *MigrationService) createOrFind(ctx context.Context, email string) (*provider.Identity, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("legacy user %q: %w", email, err)
	}

	identity, err := s.provider.CreateUser(ctx, createParams(user.Email, user.Password, user.ID))
	if err == nil {
		s.log.Info(ctx, "provider user created", "email", email, "provider_user_id", identity.ID)
		return identity, nil
	}
	if !errors.Is(err, provider.ErrEmailTaken) {
		return nil, fmt.Errorf("create provider user: %w", err)
	}

	s.log.Info(ctx, "email already taken, re-querying", "email", email)
	identity, err = s.findFirst(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, common.ErrUserNotCreated
	}
	return identity, nil
}

// findFirst returns the first identity holding email, or nil.
func (s *MigrationService) findFirst(ctx context.Context, email string) (*provider.Identity, error) {
	found, err := s.provider.FindUsersByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find provider user: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}
