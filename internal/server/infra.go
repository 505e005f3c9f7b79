package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/archive"
	"github.com/dmitrijs2005/authbridge/internal/server/config"
	"github.com/dmitrijs2005/authbridge/internal/server/provider"
	"github.com/dmitrijs2005/authbridge/internal/server/queue"
	"github.com/dmitrijs2005/authbridge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authbridge/internal/server/services"
	"github.com/redis/go-redis/v9"
)

// Infra bundles the external resources shared by the server and the
// importer command.
type Infra struct {
	DB          *sql.DB
	Redis       *redis.Client
	RepoManager repomanager.RepositoryManager
	Provider    *provider.Client
	Queue       *queue.RedisQueue
	Archive     services.ReportArchiver
}

// OpenInfra connects to Postgres (running migrations), Redis and, when a
// bucket is configured, S3.
func OpenInfra(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Infra, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	rdb, err := queue.NewClient(ctx, cfg.RedisURL, cfg.RedisToken)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}

	infra := &Infra{
		DB:          db,
		Redis:       rdb,
		RepoManager: rm,
		Provider: provider.NewClient(cfg.ProviderSecretKey, cfg.ProviderAPIURL).
			WithLogger(logger),
		Queue: queue.NewRedisQueue(rdb),
	}

	if cfg.S3Bucket != "" {
		a, err := archive.New(ctx, archive.Options{
			Bucket:       cfg.S3Bucket,
			Prefix:       cfg.S3Prefix,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
		})
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		infra.Archive = a
	}

	return infra, nil
}

// Importer builds the batch importer over the infra.
func (i *Infra) Importer(batchSize int, logger logging.Logger) *services.ImporterService {
	return services.NewImporterService(i.DB, i.RepoManager, i.Provider, i.Queue, i.Archive, batchSize, logger)
}

func (i *Infra) Close() error {
	return errors.Join(i.Redis.Close(), i.DB.Close())
}
