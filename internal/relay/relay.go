package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-ledger/internal/adapter"
	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/logger"
	"github.com/feral-file/ff-token-ledger/internal/messaging"
	"github.com/feral-file/ff-token-ledger/internal/store"
)

// Relay moves committed ledger events from the outbox to the message broker
type Relay interface {
	// Start runs the relay loop until the context is canceled or Stop is called.
	// A relay runs once; calling Start again returns an error.
	Start(ctx context.Context) error

	// Stop signals the loop to exit and waits for the in-flight batch
	Stop(ctx context.Context) error

	// RelayOnce publishes one batch of pending events and returns how many were published
	RelayOnce(ctx context.Context) (int, error)

	// Name returns the relay's name for logging and identification
	Name() string
}

// Config holds configuration for the outbox relay
type Config struct {
	BatchSize      int           // pending events fetched per cycle
	PollInterval   time.Duration // idle wait when the outbox is empty
	MaxConcurrency int           // ledgers published in parallel
	// Retry policy for a single publish
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

type outboxRelay struct {
	config    Config
	store     store.Store
	publisher messaging.Publisher
	clock     adapter.Clock
	started   atomic.Bool
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewRelay creates a new outbox relay
func NewRelay(cfg Config, st store.Store, publisher messaging.Publisher, clock adapter.Clock) Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxElapsedTime <= 0 {
		cfg.MaxElapsedTime = time.Minute
	}

	return &outboxRelay{
		config:    cfg,
		store:     st,
		publisher: publisher,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (r *outboxRelay) Name() string {
	return "ledger-outbox-relay"
}

func (r *outboxRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("relay already started")
	}
	r.running.Store(true)
	defer func() {
		r.running.Store(false)
		close(r.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting outbox relay",
		zap.Int("batch_size", r.config.BatchSize),
		zap.Int("max_concurrency", r.config.MaxConcurrency),
		zap.Duration("poll_interval", r.config.PollInterval),
	)

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Outbox relay stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-r.stopChan:
			logger.InfoCtx(ctx, "Outbox relay stop requested")
			return nil
		case <-r.publisher.CloseChan():
			logger.WarnCtx(ctx, "Publisher closed, stopping outbox relay")
			return nil
		default:
		}

		n, err := r.RelayOnce(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorCtx(ctx, err)
		}

		// a full batch means more may be waiting
		if err == nil && n == r.config.BatchSize {
			continue
		}
		r.sleep(ctx, r.config.PollInterval)
	}
}

func (r *outboxRelay) Stop(ctx context.Context) error {
	if !r.running.CompareAndSwap(true, false) {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping outbox relay")
	close(r.stopChan)

	select {
	case <-r.stoppedCh:
		logger.InfoCtx(ctx, "Outbox relay stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Outbox relay stop interrupted by context timeout")
		return ctx.Err()
	}
}

// RelayOnce publishes pending events. Events of one ledger are published in
// commit order and a ledger stops at its first failure, so a later event is
// never published ahead of an earlier one. Different ledgers run in parallel.
func (r *outboxRelay) RelayOnce(ctx context.Context) (int, error) {
	startTime := r.clock.Now()

	events, err := r.store.GetPendingEvents(ctx, r.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	var (
		mu        sync.Mutex
		published []string
		failures  []error
	)

	pool := pond.NewPool(
		r.config.MaxConcurrency,
		pond.WithContext(ctx),
	)
	for _, group := range groupByLedger(events) {
		group := group
		pool.Submit(func() {
			ids, err := r.publishInOrder(ctx, group)

			mu.Lock()
			defer mu.Unlock()
			published = append(published, ids...)
			if err != nil {
				failures = append(failures, err)
			}
		})
	}
	pool.StopAndWait()

	if len(published) > 0 {
		if err := r.store.MarkEventsPublished(ctx, published, r.clock.Now()); err != nil {
			// the broker de-duplicates on event id, so republishing these is harmless
			return 0, fmt.Errorf("failed to mark %d events published: %w", len(published), err)
		}
	}

	logger.InfoCtx(ctx, "Relayed ledger events",
		zap.Int("pending", len(events)),
		zap.Int("published", len(published)),
		zap.Duration("duration", r.clock.Since(startTime)),
	)

	if len(failures) > 0 {
		return len(published), errors.Join(failures...)
	}
	return len(published), nil
}

// publishInOrder publishes one ledger's events and returns the ids that made it
func (r *outboxRelay) publishInOrder(ctx context.Context, events []domain.EventEnvelope) ([]string, error) {
	ids := make([]string, 0, len(events))
	for i := range events {
		event := &events[i]
		if err := r.publishWithRetry(ctx, event); err != nil {
			return ids, fmt.Errorf("failed to publish event %s of ledger %s: %w", event.ID, event.LedgerID, err)
		}
		ids = append(ids, event.ID)
	}
	return ids, nil
}

// publishWithRetry attempts to publish an event with exponential backoff retry
func (r *outboxRelay) publishWithRetry(ctx context.Context, event *domain.EventEnvelope) error {
	b := backoff.NewExponentialBackOff()
	if r.config.InitialInterval > 0 {
		b.InitialInterval = r.config.InitialInterval
	}
	if r.config.MaxInterval > 0 {
		b.MaxInterval = r.config.MaxInterval
	}
	b.MaxElapsedTime = r.config.MaxElapsedTime
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	operation := func() error {
		return r.publisher.PublishEvent(ctx, event)
	}

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Publishing ledger event failed, retrying",
			zap.Error(err),
			zap.String("event_id", event.ID),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError); err != nil {
		return fmt.Errorf("failed after %d attempts: %w", attemptCount+1, err)
	}
	return nil
}

// groupByLedger splits events per ledger, keeping commit order inside each group
func groupByLedger(events []domain.EventEnvelope) [][]domain.EventEnvelope {
	index := make(map[string]int)
	var groups [][]domain.EventEnvelope
	for _, e := range events {
		i, ok := index[e.LedgerID]
		if !ok {
			i = len(groups)
			index[e.LedgerID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], e)
	}
	return groups
}

// sleep waits for d, returning early on cancellation or stop
func (r *outboxRelay) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-r.stopChan:
	case <-r.clock.After(d):
	}
}
