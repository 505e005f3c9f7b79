package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/dbx"
	"github.com/dmitrijs2005/authbridge/internal/server/models"
	"github.com/dmitrijs2005/authbridge/internal/server/provider"
	sessionsrepo "github.com/dmitrijs2005/authbridge/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/authbridge/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func strPtr(s string) *string { return &s }

// --- repositories ---

type fakeUsersRepo struct {
	mu sync.Mutex

	byEmail map[string]*models.User
	getErr  error

	createErr error
	created   []*models.User

	listOut []*models.User
	listErr error

	updateErr   error
	updatedID   string
	updatedHash string
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "new-id"
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) ListAll(ctx context.Context) ([]*models.User, error) {
	return f.listOut, f.listErr
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id string, password string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedID, f.updatedHash = id, password
	return nil
}

type fakeSessionsRepo struct {
	createErr error
	created   []string

	findOut *models.Session
	findErr error

	deleteErr error
	deleted   []string

	purgeErr error
	purged   int
}

func (f *fakeSessionsRepo) Create(ctx context.Context, userID, token string, validity time.Duration) (time.Time, error) {
	if f.createErr != nil {
		return time.Time{}, f.createErr
	}
	f.created = append(f.created, token)
	return time.Now().Add(validity), nil
}

func (f *fakeSessionsRepo) Find(ctx context.Context, token string) (*models.Session, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.findOut == nil {
		return nil, common.ErrorNotFound
	}
	return f.findOut, nil
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, token string) error {
	f.deleted = append(f.deleted, token)
	return f.deleteErr
}

func (f *fakeSessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.purged++
	return 0, f.purgeErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository { return m.s }

// --- provider ---

// fakeProvider keeps identities by email and rejects duplicates the way the
// real API does.
type fakeProvider struct {
	mu sync.Mutex

	byEmail map[string]provider.Identity
	nextID  int

	findErr   error
	createErr error
	tokenErr  error
	noToken   bool

	// hideOnFind makes the first FindUsersByEmail miss, simulating a
	// concurrent creation that lands between lookup and create.
	hideOnFind int

	finds   int
	creates []provider.CreateUserParams
	tickets []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{byEmail: map[string]provider.Identity{}}
}

func (p *fakeProvider) seed(email, id string) {
	p.byEmail[email] = provider.Identity{ID: id, EmailAddresses: []provider.EmailAddress{{EmailAddress: email}}}
}

func (p *fakeProvider) FindUsersByEmail(ctx context.Context, email string) ([]provider.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finds++
	if p.findErr != nil {
		return nil, p.findErr
	}
	if p.hideOnFind > 0 {
		p.hideOnFind--
		return nil, nil
	}
	if id, ok := p.byEmail[email]; ok {
		return []provider.Identity{id}, nil
	}
	return nil, nil
}

func (p *fakeProvider) CreateUser(ctx context.Context, params provider.CreateUserParams) (*provider.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates = append(p.creates, params)
	if p.createErr != nil {
		return nil, p.createErr
	}
	email := params.EmailAddress[0]
	if _, ok := p.byEmail[email]; ok {
		return nil, &provider.APIError{Status: 422, Errors: []provider.APIErrorItem{{Code: "form_identifier_exists"}}}
	}
	p.nextID++
	id := provider.Identity{ID: fmt.Sprintf("user_%d", p.nextID), EmailAddresses: []provider.EmailAddress{{EmailAddress: email}}}
	if params.ExternalID != "" {
		ext := params.ExternalID
		id.ExternalID = &ext
	}
	p.byEmail[email] = id
	return &id, nil
}

func (p *fakeProvider) CreateSignInToken(ctx context.Context, userID string) (*provider.SignInToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tickets = append(p.tickets, userID)
	if p.tokenErr != nil {
		return nil, p.tokenErr
	}
	if p.noToken {
		return &provider.SignInToken{UserID: userID}, nil
	}
	return &provider.SignInToken{UserID: userID, Token: "t1"}, nil
}

func (p *fakeProvider) identities() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byEmail)
}

// --- archive ---

type fakeArchive struct {
	reports []*models.ImportReport
	err     error
}

func (a *fakeArchive) Store(ctx context.Context, r *models.ImportReport) error {
	a.reports = append(a.reports, r)
	return a.err
}
