package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/cryptox"
	"github.com/dmitrijs2005/authbridge/internal/dbx"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/models"
	"github.com/dmitrijs2005/authbridge/internal/server/repositories/repomanager"
)

const sessionTokenBytes = 32

// UserService implements the legacy credential flow: registration, login,
// logout, session resolution and password change.
type UserService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	sessionValidity time.Duration
	log             logging.Logger
	now             func() time.Time
}

// NewUserService constructs a UserService issuing sessions valid for
// sessionValidity.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sessionValidity time.Duration, log logging.Logger) *UserService {
	return &UserService{
		db:              db,
		repomanager:     m,
		sessionValidity: sessionValidity,
		log:             log.With("module", "users"),
		now:             time.Now,
	}
}

func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") || strings.TrimSpace(email) != email {
		return fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: empty password", common.ErrorValidation)
	}
	return nil
}

// Register creates a legacy user and signs it in, in one transaction.
// The password is stored as a bcrypt digest.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{Email: email, Password: &hash}
	if name != "" {
		user.Name = &name
	}

	session, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.Session, error) {
		u, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return nil, err
		}
		return s.newSession(ctx, tx, u)
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error registering user: %w", err)
	}

	s.log.Info(ctx, "legacy user registered", "user_id", session.UserID)
	return session, nil
}

// Login verifies the credentials and opens a new session. Unknown emails,
// users without a password and wrong passwords all yield
// common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !user.HasPassword() || !cryptox.VerifyPassword(*user.Password, password) {
		return nil, common.ErrorUnauthorized
	}

	if n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now()); err != nil {
		s.log.Warn(ctx, "purge expired sessions", "error", err)
	} else if n > 0 {
		s.log.Debug(ctx, "expired sessions purged", "count", n)
	}

	session, err := s.newSession(ctx, s.db, user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return session, nil
}

// Logout revokes the session token.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.repomanager.Sessions(s.db).Delete(ctx, token)
}

// Session resolves token to a live session. Missing tokens yield
// common.ErrorUnauthorized; expired ones are deleted and yield
// common.ErrSessionExpired.
func (s *UserService) Session(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Sessions(s.db)
	session, err := repo.Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching session: %w", err)
	}

	if session.Expired(s.now()) {
		if err := repo.Delete(ctx, token); err != nil {
			s.log.Warn(ctx, "delete expired session", "error", err)
		}
		return nil, common.ErrSessionExpired
	}
	return session, nil
}

// ChangePassword replaces the password of the session's user, and only that
// user. The new password is stored as a bcrypt digest.
func (s *UserService) ChangePassword(ctx context.Context, session *models.Session, password string) error {
	if session == nil || session.UserID == "" {
		return common.ErrNotAuthenticated
	}
	if password == "" {
		return fmt.Errorf("%w: empty password", common.ErrorValidation)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return common.ErrorInternal
	}

	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, session.UserID, hash); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	s.log.Info(ctx, "legacy password changed", "user_id", session.UserID)
	return nil
}

func (s *UserService) newSession(ctx context.Context, db dbx.DBTX, u *models.User) (*models.Session, error) {
	token, err := common.MakeRandHexString(sessionTokenBytes)
	if err != nil {
		return nil, err
	}

	expires, err := s.repomanager.Sessions(db).Create(ctx, u.ID, token, s.sessionValidity)
	if err != nil {
		return nil, err
	}

	return &models.Session{Token: token, UserID: u.ID, Email: u.Email, Expires: expires}, nil
}
