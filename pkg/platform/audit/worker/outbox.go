package worker

import (
	"context"
	"log/slog"
	"time"

	audit "canopy/pkg/platform/audit"
)

// Producer delivers a batch of outbox entries downstream. Delivery must be
// all-or-nothing from the worker's point of view: an error leaves the whole
// batch unpublished for the next poll.
type Producer interface {
	Produce(ctx context.Context, entries []audit.OutboxEntry) error
}

// OutboxWorker polls the audit outbox and hands unpublished events to a
// Producer.
type OutboxWorker struct {
	relayer   audit.Relayer
	producer  Producer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type Option func(*OutboxWorker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *OutboxWorker) {
		w.logger = logger
	}
}

func WithInterval(d time.Duration) Option {
	return func(w *OutboxWorker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *OutboxWorker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func NewOutboxWorker(relayer audit.Relayer, producer Producer, opts ...Option) *OutboxWorker {
	w := &OutboxWorker{
		relayer:   relayer,
		producer:  producer,
		logger:    slog.Default(),
		interval:  time.Second,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled. A full batch triggers an immediate
// re-poll so a backlog drains without waiting for the ticker.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		for {
			n, err := w.RelayOnce(ctx)
			if err != nil {
				w.logger.WarnContext(ctx, "audit outbox relay failed", "error", err)
				break
			}
			if n < w.batchSize {
				break
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce relays a single batch and returns how many events were published.
func (w *OutboxWorker) RelayOnce(ctx context.Context) (int, error) {
	return w.relayer.Relay(ctx, w.batchSize, w.producer.Produce)
}
