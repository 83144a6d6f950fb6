package schema

import "time"

// TokenClass represents the token_classes table - one row per minted identifier
type TokenClass struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// LedgerID scopes the class to its ledger
	LedgerID string `gorm:"column:ledger_id;not null;type:text;uniqueIndex:idx_token_classes_ledger_token,priority:1"`
	// TokenID is the ledger-assigned (or bridged) identifier
	TokenID uint64 `gorm:"column:token_id;not null;type:bigint;uniqueIndex:idx_token_classes_ledger_token,priority:2"`
	// TotalSupply is the sum of all holder balances (numeric string)
	TotalSupply string `gorm:"column:total_supply;not null;type:numeric(78,0)"`
	// URIOverride replaces the ledger default URI when set
	URIOverride *string `gorm:"column:uri_override;type:text"`
	// ExternalURI is the link supplied by the minter, reported in the Minted event
	ExternalURI *string `gorm:"column:external_uri;type:text"`
	// MetadataJSON is the inline metadata blob, stored verbatim
	MetadataJSON *string `gorm:"column:metadata_json;type:text"`
	// LockedContent is the holder-only payload, written once at mint
	LockedContent *string `gorm:"column:locked_content;type:text"`
	// LockedContentViewCount counts successful reveals
	LockedContentViewCount uint64 `gorm:"column:locked_content_view_count;not null;default:0;type:bigint"`
	// Bridged marks classes created by an explicit-id mint
	Bridged bool `gorm:"column:bridged;not null;default:false"`
	// CreatedAt is the timestamp when the class was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when supply, URI or view count last changed
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TokenClass model
func (TokenClass) TableName() string {
	return "token_classes"
}

// Royalty represents the royalties table - ordered royalty recipients of a class
type Royalty struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// LedgerID scopes the royalty to its ledger
	LedgerID string `gorm:"column:ledger_id;not null;type:text;uniqueIndex:idx_royalties_ledger_token_position,priority:1"`
	// TokenID references the class the royalty belongs to
	TokenID uint64 `gorm:"column:token_id;not null;type:bigint;uniqueIndex:idx_royalties_ledger_token_position,priority:2"`
	// Position preserves the insertion order given at mint
	Position int `gorm:"column:position;not null;uniqueIndex:idx_royalties_ledger_token_position,priority:3"`
	// RecipientAddress receives the share
	RecipientAddress string `gorm:"column:recipient_address;not null;type:text"`
	// ShareBps is the share in basis points
	ShareBps int `gorm:"column:share_bps;not null"`
}

// TableName specifies the table name for the Royalty model
func (Royalty) TableName() string {
	return "royalties"
}
