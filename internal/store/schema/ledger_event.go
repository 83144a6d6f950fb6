package schema

import (
	"time"

	"gorm.io/datatypes"
)

// LedgerEvent represents the ledger_events table - the transactional outbox.
// Rows are written in the same transaction as the state change they describe
// and drained by the relay.
type LedgerEvent struct {
	// ID is the internal database primary key, also the relay ordering key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// EventID is the ULID carried in the published envelope
	EventID string `gorm:"column:event_id;not null;uniqueIndex;type:text"`
	// LedgerID is the ledger that emitted the event
	LedgerID string `gorm:"column:ledger_id;not null;type:text;index"`
	// EventType is the domain event type (transfer, minted, ...)
	EventType string `gorm:"column:event_type;not null;type:text"`
	// Payload is the canonical (JCS) JSON body of the event, stored as json to keep the exact bytes
	Payload datatypes.JSON `gorm:"column:payload;not null;type:json"`
	// OccurredAt is when the ledger committed the event
	OccurredAt time.Time `gorm:"column:occurred_at;not null;type:timestamptz"`
	// PublishedAt is set once the relay has published the event
	PublishedAt *time.Time `gorm:"column:published_at;type:timestamptz"`
}

// TableName specifies the table name for the LedgerEvent model
func (LedgerEvent) TableName() string {
	return "ledger_events"
}

// SchemaMigration represents the schema_migrations table
type SchemaMigration struct {
	Version   int       `gorm:"column:version;primaryKey"`
	Name      string    `gorm:"column:name;not null;type:text"`
	AppliedAt time.Time `gorm:"column:applied_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the SchemaMigration model
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}
