// Package publisher emits ledger audit events to an audit.Store.
//
// Services call Emit after a mutation commits. Emission is best effort from
// the service's point of view: a failed write is logged and never undoes the
// ledger mutation that produced it.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "canopy/pkg/platform/audit"
	"canopy/pkg/requestcontext"
)

type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	async chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithAsyncBuffer makes Emit enqueue events and write them from a background
// goroutine. Emit drops events and logs when the buffer is full.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.async = make(chan audit.Event, size)
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit stamps the event with an id, time and request id, logs it as an audit
// line and appends it to the store.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if p.logger != nil {
		p.logger.InfoContext(ctx, string(event.Action),
			"log_type", "audit",
			"subsystem", event.Subsystem,
			"actor", event.Actor,
			"record_id", event.RecordID,
			"project_id", event.ProjectID,
			"detail", event.Detail,
			"request_id", event.RequestID,
		)
	}

	if p.async != nil {
		select {
		case p.async <- event:
		default:
			if p.logger != nil {
				p.logger.WarnContext(ctx, "audit buffer full, dropping event", "action", event.Action)
			}
		}
		return nil
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return p.store.ListRecent(ctx, limit)
}

// Close flushes buffered events. It is a no-op for synchronous publishers.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.async != nil {
			close(p.async)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.async {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.store.Append(ctx, event); err != nil && p.logger != nil {
			p.logger.Error("failed to append audit event", "action", event.Action, "error", err)
		}
		cancel()
	}
}
