// Package main is the entry point for the charterbooks background worker.
// It relays ledger events from the transactional outbox to the ledger webhook.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"charterbooks/internal/config"
	appctx "charterbooks/internal/core/context"
	"charterbooks/internal/infrastructure/ledger"
	"charterbooks/internal/infrastructure/storage/postgres"
	"charterbooks/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Require("DATABASE_URL", "LEDGER_WEBHOOK_URL"); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting charterbooks worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = 4
	poolCfg.AppName = "charterbooks-worker"
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	relay := postgres.NewOutboxRelay(
		postgres.NewTxManager(pool),
		cfg.OutboxBatchSize,
		ledger.NewWebhookHandler(cfg.LedgerWebhookURL, nil),
	)

	w := &worker{relay: relay, log: log.WithComponent("outbox"), interval: cfg.OutboxInterval}
	w.Run(ctx)

	log.Info("worker stopped")
}

type worker struct {
	relay    *postgres.OutboxRelay
	log      *logger.Logger
	interval time.Duration
}

// Run polls the outbox until ctx is cancelled. A full batch is followed
// immediately by the next one; dead messages are moved hourly.
func (w *worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	dlqTicker := time.NewTicker(time.Hour)
	defer dlqTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		case <-dlqTicker.C:
			moved, err := w.relay.MoveToDLQ(ctx)
			if err != nil {
				w.log.Errorw("failed to move dead messages", "error", err)
				continue
			}
			if moved > 0 {
				w.log.Warnw("moved dead outbox messages to DLQ", "count", moved)
			}
		}
	}
}

func (w *worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		batchCtx := appctx.WithTrace(ctx, appctx.NewTraceContext())
		delivered, err := w.relay.ProcessBatch(batchCtx)
		if err != nil {
			w.log.WithContext(batchCtx).Errorw("outbox batch failed", "error", err)
			return
		}
		if delivered == 0 {
			return
		}
		w.log.WithContext(batchCtx).Infow("outbox batch delivered", "count", delivered)
	}
}
