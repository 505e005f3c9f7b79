package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/auth"
	"github.com/dmitrijs2005/authbridge/internal/server/models"
	"github.com/dmitrijs2005/authbridge/internal/server/services"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeMigrator struct {
	token    string
	err      error
	caller   services.Caller
	strategy services.Strategy
	calls    int
}

func (f *fakeMigrator) Reconcile(ctx context.Context, c services.Caller, s services.Strategy) (string, error) {
	f.calls++
	f.caller = c
	f.strategy = s
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

type fakeImporter struct {
	report *models.ImportReport
	err    error
	calls  int
}

func (f *fakeImporter) Consume(ctx context.Context) (*models.ImportReport, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakeMaintenance struct {
	res services.MaintenanceResult
}

func (f *fakeMaintenance) HitTheLimit(ctx context.Context) services.MaintenanceResult {
	return f.res
}

type fakeAccounts struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	expired  map[string]bool
	users    map[string]string

	changed    map[string]string
	changeErr  error
	loggedOut  []string
	registerEr error
	sessionErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		sessions: map[string]*models.Session{},
		expired:  map[string]bool{},
		users:    map[string]string{},
		changed:  map[string]string{},
	}
}

func (f *fakeAccounts) addSession(token, userID, email string) *models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &models.Session{Token: token, UserID: userID, Email: email, Expires: time.Now().Add(time.Hour)}
	f.sessions[token] = s
	return s
}

func (f *fakeAccounts) Register(ctx context.Context, email, password, name string) (*models.Session, error) {
	if f.registerEr != nil {
		return nil, f.registerEr
	}
	if email == "" || password == "" {
		return nil, common.ErrorValidation
	}
	f.mu.Lock()
	if _, ok := f.users[email]; ok {
		f.mu.Unlock()
		return nil, common.ErrorAlreadyExists
	}
	f.users[email] = password
	f.mu.Unlock()
	return f.addSession("tok-"+email, "id-"+email, email), nil
}

func (f *fakeAccounts) Login(ctx context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	pw, ok := f.users[email]
	f.mu.Unlock()
	if !ok || pw != password {
		return nil, common.ErrorUnauthorized
	}
	return f.addSession("login-"+email, "id-"+email, email), nil
}

func (f *fakeAccounts) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAccounts) Session(ctx context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	if f.expired[token] {
		return nil, common.ErrSessionExpired
	}
	s, ok := f.sessions[token]
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return s, nil
}

func (f *fakeAccounts) ChangePassword(ctx context.Context, s *models.Session, password string) error {
	if f.changeErr != nil {
		return f.changeErr
	}
	if password == "" {
		return common.ErrorValidation
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed[s.UserID] = password
	return nil
}

// fakeVerifier accepts tokens of the form "valid:<userID>".
type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (*auth.ProviderSession, error) {
	if id, ok := strings.CutPrefix(token, "valid:"); ok {
		return &auth.ProviderSession{UserID: id, ExternalID: id}, nil
	}
	return nil, common.ErrInvalidToken
}

type fakeSignatures struct {
	body []byte
	url  string
}

func (f *fakeSignatures) Verify(signature string, body []byte, url string) error {
	f.body = body
	f.url = url
	switch signature {
	case "":
		return common.ErrMissingSignature
	case "good":
		return nil
	default:
		return common.ErrInvalidSignature
	}
}

type testEnv struct {
	migrator    *fakeMigrator
	importer    *fakeImporter
	maintenance *fakeMaintenance
	accounts    *fakeAccounts
	signatures  *fakeSignatures
	server      *Server
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	env := &testEnv{
		migrator:    &fakeMigrator{token: "ticket-123"},
		importer:    &fakeImporter{report: &models.ImportReport{Popped: 2, Created: 1, Skipped: 1}},
		maintenance: &fakeMaintenance{res: services.MaintenanceResult{Created: 30}},
		accounts:    newFakeAccounts(),
		signatures:  &fakeSignatures{},
	}
	if opts.ProfileURL == "" {
		opts.ProfileURL = "/user"
	}
	env.server = NewServer(opts, Deps{
		Migrator:    env.migrator,
		Importer:    env.importer,
		Maintenance: env.maintenance,
		Accounts:    env.accounts,
		Sessions:    fakeVerifier{},
		Signatures:  env.signatures,
	}, logging.Nop{})
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func withLegacy(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: common.LegacySessionCookieName, Value: token})
	return req
}

func withProvider(req *http.Request, userID string) *http.Request {
	req.AddCookie(&http.Cookie{Name: common.ProviderSessionCookieName, Value: "valid:" + userID})
	return req
}
