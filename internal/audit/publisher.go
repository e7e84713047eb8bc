package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByVoter(ctx context.Context, voterID string) ([]Event, error)
}

// Publisher emits audit events. By default emission is synchronous; with
// WithAsyncBuffer events are queued to a bounded buffer and written by a
// single background worker, and Emit never blocks the calling operation.
// Audit here is operational, not compliance-critical: a dropped event on
// buffer overflow is logged, never an operation failure.
type Publisher struct {
	store  Store
	logger *slog.Logger

	buf    chan Event
	wg     sync.WaitGroup
	closed chan struct{}
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous emission with the
// given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buf = make(chan Event, size)
	}
}

func NewPublisher(store Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: logger,
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buf != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. In async mode a full buffer drops the event with a
// warning rather than stalling the repository.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.buf == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit append failed",
				"action", event.Action,
				"voter_id", event.VoterID,
				"error", err,
			)
			return err
		}
		return nil
	}

	select {
	case p.buf <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"voter_id", event.VoterID,
		)
	}
	return nil
}

// ListByVoter reads back events for a voter, mainly for tests and debugging.
func (p *Publisher) ListByVoter(ctx context.Context, voterID string) ([]Event, error) {
	return p.store.ListByVoter(ctx, voterID)
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.buf:
			p.append(event)
		case <-p.closed:
			// flush what is left
			for {
				select {
				case event := <-p.buf:
					p.append(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) append(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.Append(ctx, event); err != nil {
		p.logger.Error("audit append failed",
			"action", event.Action,
			"voter_id", event.VoterID,
			"error", err,
		)
	}
}

// Close stops the background worker, flushing buffered events first.
func (p *Publisher) Close() error {
	if p.buf != nil {
		close(p.closed)
		p.wg.Wait()
	}
	return nil
}
