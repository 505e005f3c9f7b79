package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/authbridge/internal/client/client"
	"github.com/dmitrijs2005/authbridge/internal/client/config"
	"github.com/dmitrijs2005/authbridge/internal/client/migration"
	"github.com/dmitrijs2005/authbridge/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/authbridge/internal/client/services"
	"github.com/dmitrijs2005/authbridge/internal/filex"
	"github.com/dmitrijs2005/authbridge/internal/logging"

	_ "modernc.org/sqlite"
)

const stateFileName = "state.db"

// migrationRunner is satisfied by *migration.Poller.
type migrationRunner interface {
	Run(ctx context.Context) (*migration.Result, error)
}

type App struct {
	config      *config.Config
	authService services.AuthService
	newPoller   func() migrationRunner
	poller      migrationRunner
	session     *client.Session
	reader      *bufio.Reader
	out         io.Writer
	closeFn     func() error
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	dir, err := filex.EnsureDir(c.StateDir)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, stateFileName))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		db.Close()
		return nil, err
	}

	redeemer := migration.NewTicketRedeemer(c.FrontendAPIURL, c.RequestTimeout)
	state := metadata.NewSQLiteRepository(db)

	newPoller := func() migrationRunner {
		p := migration.NewPoller(apiClient, redeemer, state, logger)
		p.MaxRetries = uint64(c.MaxRetries)
		p.InitialInterval = c.InitialInterval
		p.MaxInterval = c.MaxInterval
		return p
	}

	return &App{
		config:      c,
		authService: services.NewAuthService(apiClient, db),
		newPoller:   newPoller,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		closeFn:     db.Close,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		if a.closeFn != nil {
			a.closeFn()
		}
	}()
	a.Root(ctx)
	return nil
}
