// Package worker runs the background settlement loop that completes pending
// payments after their simulated processing delay.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nexvent/nexvent/internal/monitoring"
)

// Queue is the delayed settlement queue the worker drains. Due leases a
// payment rather than removing it, so terminal outcomes must be acked with
// Done or the payment is redelivered when the lease expires.
type Queue interface {
	Due(ctx context.Context, now time.Time, limit int64) ([]uuid.UUID, error)
	Schedule(ctx context.Context, paymentID uuid.UUID, at time.Time) error
	Done(ctx context.Context, paymentID uuid.UUID) error
}

// Settler settles or fails a payment by id. Settle must be idempotent since
// the queue delivers at least once.
type Settler interface {
	Settle(ctx context.Context, id uuid.UUID) error
	Fail(ctx context.Context, id uuid.UUID) error
}

type Settlement struct {
	queue       Queue
	settler     Settler
	logger      *slog.Logger
	interval    time.Duration
	retryDelay  time.Duration
	maxAttempts int
	batchSize   int64

	// attempts is touched only from Run's goroutine.
	attempts map[uuid.UUID]int
}

type Config struct {
	PollInterval time.Duration
	RetryDelay   time.Duration
	MaxAttempts  int
	BatchSize    int64
}

func NewSettlement(queue Queue, settler Settler, logger *slog.Logger, cfg Config) *Settlement {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	return &Settlement{
		queue:       queue,
		settler:     settler,
		logger:      logger,
		interval:    cfg.PollInterval,
		retryDelay:  cfg.RetryDelay,
		maxAttempts: cfg.MaxAttempts,
		batchSize:   cfg.BatchSize,
		attempts:    make(map[uuid.UUID]int),
	}
}

// Run polls the queue until the context is cancelled.
func (w *Settlement) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("settlement worker started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("settlement worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Settlement) drain(ctx context.Context) {
	ids, err := w.queue.Due(ctx, time.Now(), w.batchSize)
	if err != nil {
		w.logger.Error("poll settlement queue", "error", err)
		return
	}

	for _, id := range ids {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.process(ctx, id)
	}
}

func (w *Settlement) process(ctx context.Context, id uuid.UUID) {
	if err := w.settler.Settle(ctx, id); err != nil {
		w.retry(ctx, id, err)
		return
	}

	delete(w.attempts, id)
	monitoring.TrackSettlement("settled")
	w.logger.Info("payment settled", "payment_id", id)

	if err := w.queue.Done(ctx, id); err != nil {
		w.logger.Error("ack settlement", "payment_id", id, "error", err)
	}
}

func (w *Settlement) retry(ctx context.Context, id uuid.UUID, cause error) {
	w.attempts[id]++

	if w.attempts[id] >= w.maxAttempts {
		monitoring.TrackSettlement("failed")
		w.logger.Error("settlement attempts exhausted, failing payment",
			"payment_id", id, "attempts", w.maxAttempts, "error", cause)

		if err := w.settler.Fail(ctx, id); err != nil {
			// Keep the lease; the payment is redelivered and failed again.
			w.logger.Error("mark payment failed", "payment_id", id, "error", err)
			return
		}

		delete(w.attempts, id)
		if err := w.queue.Done(ctx, id); err != nil {
			w.logger.Error("ack settlement", "payment_id", id, "error", err)
		}
		return
	}

	monitoring.TrackSettlement("retried")
	w.logger.Warn("settlement failed, will retry",
		"payment_id", id, "attempt", w.attempts[id], "error", cause)

	if err := w.queue.Schedule(ctx, id, time.Now().Add(w.retryDelay)); err != nil {
		w.logger.Error("requeue settlement", "payment_id", id, "error", err)
	}
}
