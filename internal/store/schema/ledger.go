package schema

import "time"

// Ledger represents the ledgers table - one row per ledger instance (tenant) holding its singular settings
type Ledger struct {
	// LedgerID is the tenant key every other ledger table is scoped by
	LedgerID string `gorm:"column:ledger_id;primaryKey;type:text"`
	// Name is the collection name
	Name string `gorm:"column:name;not null;type:text"`
	// Symbol is the collection symbol
	Symbol string `gorm:"column:symbol;not null;type:text"`
	// DefaultURI is the URI template returned for classes without an override
	DefaultURI string `gorm:"column:default_uri;not null;type:text"`
	// OwnerAddress is the singular owner
	OwnerAddress string `gorm:"column:owner_address;not null;type:text"`
	// NextTokenID is the identifier the next mint will receive
	NextTokenID uint64 `gorm:"column:next_token_id;not null;type:bigint"`
	// MintFee is the native value required by every mint (numeric string, up to 78 digits)
	MintFee string `gorm:"column:mint_fee;not null;type:numeric(78,0)"`
	// ContractBalance is the collected, not yet withdrawn, native value
	ContractBalance string `gorm:"column:contract_balance;not null;type:numeric(78,0)"`
	// CreatedAt is the timestamp when the ledger was bootstrapped
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp of the last settings change
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Ledger model
func (Ledger) TableName() string {
	return "ledgers"
}
