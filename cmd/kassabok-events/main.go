package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kassabok/internal/amqp"
	"kassabok/internal/cache"
	"kassabok/internal/cli"
	"kassabok/internal/log"
)

const (
	statsInterval = time.Minute
	dedupeSize    = 10000
	dedupeWindow  = time.Hour
)

// eventStats counts consumed events per type.
type eventStats struct {
	mu     sync.Mutex
	counts map[amqp.EventType]int
}

func (s *eventStats) record(t amqp.EventType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = make(map[amqp.EventType]int)
	}
	s.counts[t]++
}

func (s *eventStats) attrs() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []any{
		string(amqp.EventSaved), s.counts[amqp.EventSaved],
		string(amqp.EventDeleted), s.counts[amqp.EventDeleted],
		string(amqp.EventReplaced), s.counts[amqp.EventReplaced],
	}
}

func main() {
	// Load .env file for local development
	cli.LoadEnvFile()

	bootstrap := log.New(log.DefaultConfig())
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg, os.Stdout, log.ComponentEvents)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required")
		os.Exit(1)
	}

	logger.Info("Starting kassabok-events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"prefetch", cfg.AMQPPrefetch)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	if err := client.SetPrefetch(cfg.AMQPPrefetch); err != nil {
		logger.Error("Invalid prefetch", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	})

	stats := &eventStats{}
	seen := cache.NewDeduper(dedupeSize, dedupeWindow)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.ConsumeTransactionEvents(gctx, func(ctx context.Context, event *amqp.TransactionEvent) error {
			if !seen.FirstSeen(event.ID) {
				logger.Debug("Skipping redelivered event", log.FieldEventID, event.ID)
				return nil
			}
			stats.record(event.Type)
			fields := log.NewFields().
				WithOperation(log.OpConsume).
				WithEvent(event.ID, string(event.Type)).
				WithOwner(int64(event.OwnerID))
			if event.Type == amqp.EventSaved {
				fields.WithTransaction(event.Handle, event.Date, event.Amount, event.Description)
			} else if event.Handle != "" {
				fields[log.FieldHandle] = event.Handle
			}
			if event.Type == amqp.EventReplaced {
				fields[log.FieldCount] = event.Count
			}
			logger.Fields(ctx, slog.LevelInfo, "Ledger changed", fields)
			return nil
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				seen.Prune()
				logger.Info("Event totals", stats.attrs()...)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", log.FieldError, err)
		_ = client.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Event totals", stats.attrs()...)
}
