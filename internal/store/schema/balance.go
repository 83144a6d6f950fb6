package schema

import (
	"time"
)

// Balance represents the balances table - tracks holder quantities per token class.
// Rows are deleted when the quantity reaches zero.
type Balance struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// LedgerID scopes the balance to its ledger
	LedgerID string `gorm:"column:ledger_id;not null;type:text;uniqueIndex:idx_balances_ledger_token_owner,priority:1"`
	// TokenID references the token class being held
	TokenID uint64 `gorm:"column:token_id;not null;type:bigint;uniqueIndex:idx_balances_ledger_token_owner,priority:2"`
	// OwnerAddress is the holder address
	OwnerAddress string `gorm:"column:owner_address;not null;type:text;uniqueIndex:idx_balances_ledger_token_owner,priority:3"`
	// Quantity is the amount held (stored as string to support up to 78 digits)
	Quantity string `gorm:"column:quantity;not null;type:numeric(78,0)"`
	// CreatedAt is the timestamp when this balance was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this balance was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Balance model
func (Balance) TableName() string {
	return "balances"
}
