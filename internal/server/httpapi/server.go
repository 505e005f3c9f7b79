// Package httpapi exposes the migration, batch, legacy credential and
// maintenance endpoints over HTTP using gin.
package httpapi

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/auth"
	"github.com/dmitrijs2005/authbridge/internal/server/models"
	"github.com/dmitrijs2005/authbridge/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Migrator issues sign-in tickets for legacy users.
type Migrator interface {
	Reconcile(ctx context.Context, c services.Caller, strategy services.Strategy) (string, error)
}

// Importer drains one batch of the import queue.
type Importer interface {
	Consume(ctx context.Context) (*models.ImportReport, error)
}

// Maintenance exercises provider rate limits.
type Maintenance interface {
	HitTheLimit(ctx context.Context) services.MaintenanceResult
}

// Accounts is the legacy credential store.
type Accounts interface {
	Register(ctx context.Context, email, password, name string) (*models.Session, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Logout(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (*models.Session, error)
	ChangePassword(ctx context.Context, session *models.Session, password string) error
}

// SessionVerifier validates provider session tokens.
type SessionVerifier interface {
	Verify(token string) (*auth.ProviderSession, error)
}

// SignatureVerifier validates signed webhook deliveries.
type SignatureVerifier interface {
	Verify(signature string, body []byte, url string) error
}

// Options holds the HTTP-facing settings.
type Options struct {
	Addr               string
	WebhookURL         string
	ProfileURL         string
	SignInURL          string
	SecureCookies      bool
	MaintenanceEnabled bool
}

// Deps are the collaborators the handlers call into. Maintenance may be nil.
type Deps struct {
	Migrator    Migrator
	Importer    Importer
	Maintenance Maintenance
	Accounts    Accounts
	Sessions    SessionVerifier
	Signatures  SignatureVerifier
}

type Server struct {
	opts   Options
	deps   Deps
	logger logging.Logger
	engine *gin.Engine
}

func NewServer(opts Options, deps Deps, l logging.Logger) *Server {
	if opts.SignInURL == "" {
		opts.SignInURL = "/sign-in"
	}

	s := &Server{
		opts:   opts,
		deps:   deps,
		logger: l.With("module", "http_server"),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the root handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(template.Must(template.New(changePasswordTemplate).Parse(changePasswordHTML)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// the webhook is authenticated by signature, not by session
	r.POST("/api/batch", s.batch)

	withCaller := r.Group("/")
	withCaller.Use(s.resolveCaller())

	withCaller.POST("/api/auth-migration", s.migrate(services.CreateFirst))
	withCaller.POST("/api/signInToken", s.migrate(services.LookupFirst))

	withCaller.POST("/api/auth/register", s.register)
	withCaller.POST("/api/auth/login", s.login)
	withCaller.POST("/api/auth/logout", s.logout)
	withCaller.GET("/api/auth/session", s.session)

	withCaller.GET("/changePassword", s.changePasswordForm)
	withCaller.POST("/changePassword", s.changePassword)

	if s.opts.MaintenanceEnabled && s.deps.Maintenance != nil {
		r.GET("/api/hitTheLimit", s.hitTheLimit)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
