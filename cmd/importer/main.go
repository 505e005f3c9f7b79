// Command importer enqueues every legacy user for the batch webhook and can
// optionally drive the webhook itself until the queue is drained.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/flagx"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server"
	"github.com/dmitrijs2005/authbridge/internal/server/config"
	"github.com/dmitrijs2005/authbridge/internal/server/webhook"
)

func main() {
	args := flagx.FilterArgs(os.Args[1:], []string{"-trigger", "-interval", "-skip-enqueue"})
	fs := flag.NewFlagSet("importer", flag.ExitOnError)
	trigger := fs.Bool("trigger", false, "fire the batch webhook until the queue is empty")
	interval := fs.Duration("interval", 10*time.Second, "pause between webhook calls")
	skipEnqueue := fs.Bool("skip-enqueue", false, "only drain the existing queue")
	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel).With("module", "importer_cmd")

	infra, err := server.OpenInfra(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer infra.Close()

	if !*skipEnqueue {
		n, err := infra.Importer(cfg.BatchSize, logger).Enqueue(ctx)
		if err != nil {
			logger.Error(ctx, "enqueue failed", "enqueued", n, "error", err)
			return
		}
		logger.Info(ctx, "legacy users enqueued", "count", n)
	}

	if !*trigger {
		return
	}

	t := webhook.NewTrigger(cfg.WebhookURL, cfg.QStashCurrentSigningKey)
	for {
		left, err := infra.Queue.Len(ctx)
		if err != nil {
			logger.Error(ctx, "queue length", "error", err)
			return
		}
		if left == 0 {
			logger.Info(ctx, "queue drained")
			return
		}

		if err := t.Fire(ctx); err != nil {
			logger.Error(ctx, "webhook call failed", "error", err)
			return
		}
		logger.Info(ctx, "batch triggered", "remaining_before", left)

		select {
		case <-ctx.Done():
			return
		case <-time.After(*interval):
		}
	}
}
