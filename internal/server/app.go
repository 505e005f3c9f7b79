// Package server wires configuration, storage, the identity provider client
// and the HTTP API together and runs them until a termination signal.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/auth"
	"github.com/dmitrijs2005/authbridge/internal/server/config"
	"github.com/dmitrijs2005/authbridge/internal/server/httpapi"
	"github.com/dmitrijs2005/authbridge/internal/server/services"
	"github.com/gin-gonic/gin"
)

type App struct {
	config *config.Config
	logger logging.Logger
	infra  *Infra
	http   *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	verifier, err := auth.NewSessionVerifier(c.ProviderJWTKey)
	if err != nil {
		return nil, err
	}
	if !verifier.Enabled() {
		logger.Warn(ctx, "provider jwt key not configured, provider sessions will not be recognised")
	}

	infra, err := OpenInfra(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)

	deps := httpapi.Deps{
		Migrator:    services.NewMigrationService(infra.DB, infra.RepoManager, infra.Provider, logger),
		Importer:    infra.Importer(c.BatchSize, logger),
		Maintenance: services.NewMaintenanceService(infra.Provider, logger),
		Accounts:    services.NewUserService(infra.DB, infra.RepoManager, c.LegacySessionValidityDuration, logger),
		Sessions:    verifier,
		Signatures:  auth.NewReceiver(c.QStashCurrentSigningKey, c.QStashNextSigningKey),
	}

	srv := httpapi.NewServer(httpapi.Options{
		Addr:               c.EndpointAddrHTTP,
		WebhookURL:         c.WebhookURL,
		ProfileURL:         c.ProfileURL,
		SecureCookies:      c.SecureCookies,
		MaintenanceEnabled: c.MaintenanceEnabled,
	}, deps, logger)

	return &App{config: c, logger: logger, infra: infra, http: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.infra.Close(); err != nil {
		return fmt.Errorf("close infra: %w", err)
	}
	return nil
}
