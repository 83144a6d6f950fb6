package store

import (
	"context"
	"time"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// Store defines the interface for ledger persistence
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// LoadLedger retrieves the full persisted state of a ledger, or domain.ErrLedgerNotFound
	LoadLedger(ctx context.Context, ledgerID string) (*LedgerState, error)
	// ApplyChangeset persists a committed ledger operation in a single transaction
	ApplyChangeset(ctx context.Context, cs *Changeset) error
	// GetPendingEvents retrieves unpublished outbox events in commit order
	GetPendingEvents(ctx context.Context, limit int) ([]domain.EventEnvelope, error)
	// MarkEventsPublished flags outbox events as published
	MarkEventsPublished(ctx context.Context, eventIDs []string, publishedAt time.Time) error
}

// LedgerState is the complete persisted state of one ledger
type LedgerState struct {
	Settings  domain.Settings
	Classes   []*domain.TokenClass
	Balances  []domain.Balance
	Roles     []domain.RoleMember
	Approvals []domain.OperatorApproval
}

// Changeset carries the post-state of everything one ledger operation touched.
// Values are absolute, so applying a changeset twice is harmless.
type Changeset struct {
	LedgerID string
	// Settings is nil when the operation left them unchanged
	Settings *domain.Settings
	// Classes are created or updated classes
	Classes []*domain.TokenClass
	// Balances with a zero amount are removed
	Balances  []domain.Balance
	Roles     []domain.RoleMember
	Approvals []domain.OperatorApproval
	Events    []domain.EventEnvelope
}

// IsEmpty reports whether the changeset has nothing to persist
func (c *Changeset) IsEmpty() bool {
	return c.Settings == nil &&
		len(c.Classes) == 0 &&
		len(c.Balances) == 0 &&
		len(c.Roles) == 0 &&
		len(c.Approvals) == 0 &&
		len(c.Events) == 0
}
