package jetstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-ledger/internal/adapter"
	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/logger"
	"github.com/feral-file/ff-token-ledger/internal/messaging"
)

// SubjectPrefix is the first token of every ledger event subject
const SubjectPrefix = "ledger"

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	// DuplicateWindow is how long the stream remembers message ids for de-duplication
	DuplicateWindow time.Duration
}

type publisher struct {
	nc         adapter.NatsConn
	js         adapter.JetStream
	streamName string
	json       adapter.JSON

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPublisher connects to NATS, makes sure the ledger event stream exists
// and returns a publisher for it
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	p := &publisher{
		streamName: cfg.StreamName,
		json:       jsonAdapter,
		closed:     make(chan struct{}),
	}

	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
			p.markClosed()
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}
	p.nc = nc
	p.js = js

	err = js.EnsureStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{SubjectPrefix + ".>"},
		Storage:    jetstream.FileStorage,
		Duplicates: cfg.DuplicateWindow,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}

	logger.Info("Connected to NATS JetStream",
		zap.String("url", nc.ConnectedUrl()),
		zap.String("stream", cfg.StreamName))

	return p, nil
}

// PublishEvent publishes a ledger event envelope to NATS JetStream.
// The envelope id is the JetStream message id, so retries are de-duplicated by the broker.
func (p *publisher) PublishEvent(ctx context.Context, event *domain.EventEnvelope) error {
	logger.DebugCtx(ctx, "Publishing ledger event",
		zap.String("event_id", event.ID),
		zap.String("ledger_id", event.LedgerID),
		zap.String("type", string(event.Type)))

	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.js.Publish(ctx, BuildSubject(event), data, jetstream.WithMsgID(event.ID))
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// BuildSubject constructs the NATS subject for an event.
// Format: ledger.{ledger_id}.{event_type}, e.g. ledger.main.transfer
func BuildSubject(event *domain.EventEnvelope) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, event.LedgerID, event.Type)
}

// Close drains and closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	if err := p.nc.Drain(); err != nil {
		logger.Warn("Failed to drain NATS connection", zap.Error(err))
		p.nc.Close()
	}
	p.markClosed()
}

func (p *publisher) CloseChan() <-chan struct{} {
	return p.closed
}

func (p *publisher) markClosed() {
	p.closeOnce.Do(func() { close(p.closed) })
}
