package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/models"
	"github.com/dmitrijs2005/authbridge/internal/server/provider"
	"github.com/dmitrijs2005/authbridge/internal/server/repositories/repomanager"
)

// DefaultBatchSize is the number of queue entries processed per invocation.
const DefaultBatchSize = 20

// ImporterService moves legacy users into the provider through the import
// queue: Enqueue fills it, Consume drains one batch.
type ImporterService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	provider    IdentityProvider
	queue       ImportQueue
	archive     ReportArchiver
	batchSize   int
	log         logging.Logger
	now         func() time.Time
}

// NewImporterService constructs an ImporterService. archive may be nil; a
// non-positive batchSize means DefaultBatchSize.
func NewImporterService(db *sql.DB, m repomanager.RepositoryManager, p IdentityProvider, q ImportQueue,
	archive ReportArchiver, batchSize int, log logging.Logger) *ImporterService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ImporterService{
		db:          db,
		repomanager: m,
		provider:    p,
		queue:       q,
		archive:     archive,
		batchSize:   batchSize,
		log:         log.With("module", "importer"),
		now:         time.Now,
	}
}

// Enqueue pushes every legacy user onto the queue, oldest first, and returns
// how many were pushed. It stops at the first queue error.
func (s *ImporterService) Enqueue(ctx context.Context) (int, error) {
	users, err := s.repomanager.Users(s.db).ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list legacy users: %w", err)
	}

	for i, u := range users {
		if err := s.queue.Push(ctx, models.QueueEntry{Email: u.Email, Password: u.Password, ID: u.ID}); err != nil {
			return i, err
		}
	}

	s.log.Info(ctx, "legacy users enqueued", "count", len(users))
	return len(users), nil
}

// Consume processes at most min(queue length, batch size) entries. It stops
// early when the email list runs dry. Entries whose email already has a
// provider identity are skipped; creation failures are counted and do not
// stop the batch. Queue errors abort the batch and are returned together
// with the partial report.
func (s *ImporterService) Consume(ctx context.Context) (*models.ImportReport, error) {
	report := &models.ImportReport{StartedAt: s.now()}

	n, err := s.queue.Len(ctx)
	if err != nil {
		return report, err
	}
	report.QueueLength = n

	limit := int(min(n, int64(s.batchSize)))

	var runErr error
	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		entry, ok, err := s.queue.Pop(ctx)
		if err != nil {
			runErr = err
			break
		}
		if !ok {
			report.Exhausted = true
			break
		}
		report.Popped++

		s.importOne(ctx, entry, report)
	}

	report.FinishedAt = s.now()
	s.log.Info(ctx, "batch processed",
		"queue_length", report.QueueLength,
		"popped", report.Popped,
		"created", report.Created,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"exhausted", report.Exhausted,
	)

	if s.archive != nil {
		if err := s.archive.Store(ctx, report); err != nil {
			s.log.Warn(ctx, "archive import report", "error", err)
		}
	}

	return report, runErr
}

func (s *ImporterService) importOne(ctx context.Context, e *models.QueueEntry, report *models.ImportReport) {
	log := s.log.With("email", e.Email, "legacy_id", e.ID)

	found, err := s.provider.FindUsersByEmail(ctx, e.Email)
	if err != nil {
		report.Failed++
		log.Error(ctx, "lookup provider user", "error", err)
		return
	}
	if len(found) > 0 {
		report.Skipped++
		log.Debug(ctx, "provider user exists, skipping", "provider_user_id", found[0].ID)
		return
	}

	identity, err := s.provider.CreateUser(ctx, createParams(e.Email, e.Password, e.ID))
	if err != nil {
		if errors.Is(err, provider.ErrEmailTaken) {
			report.Skipped++
			log.Info(ctx, "email taken concurrently, skipping")
			return
		}
		report.Failed++
		log.Error(ctx, "create provider user", "error", err)
		return
	}

	report.Created++
	log.Info(ctx, "provider user created", "provider_user_id", identity.ID)
}
