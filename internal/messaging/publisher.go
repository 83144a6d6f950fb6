package messaging

import (
	"context"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// Publisher defines the interface for publishing ledger events to message queue
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a ledger event envelope to the message broker.
	// Publishing the same envelope twice must not deliver it twice.
	PublishEvent(ctx context.Context, event *domain.EventEnvelope) error
	// Close closes the connection
	Close()
	// CloseChan returns a channel that is closed when the publisher is closed
	CloseChan() <-chan struct{}
}
