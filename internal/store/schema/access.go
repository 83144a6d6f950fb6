package schema

import "time"

// RoleMember represents the role_members table - grantable roles held by accounts.
// The singular owner lives on the ledgers row, not here.
type RoleMember struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	LedgerID string `gorm:"column:ledger_id;not null;type:text;uniqueIndex:idx_role_members_ledger_role_account,priority:1"`
	// Role is the 0x-prefixed role hash
	Role           string    `gorm:"column:role;not null;type:text;uniqueIndex:idx_role_members_ledger_role_account,priority:2"`
	AccountAddress string    `gorm:"column:account_address;not null;type:text;uniqueIndex:idx_role_members_ledger_role_account,priority:3"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the RoleMember model
func (RoleMember) TableName() string {
	return "role_members"
}

// OperatorApproval represents the operator_approvals table
type OperatorApproval struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	LedgerID        string    `gorm:"column:ledger_id;not null;type:text;uniqueIndex:idx_operator_approvals_ledger_holder_operator,priority:1"`
	HolderAddress   string    `gorm:"column:holder_address;not null;type:text;uniqueIndex:idx_operator_approvals_ledger_holder_operator,priority:2"`
	OperatorAddress string    `gorm:"column:operator_address;not null;type:text;uniqueIndex:idx_operator_approvals_ledger_holder_operator,priority:3"`
	Approved        bool      `gorm:"column:approved;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the OperatorApproval model
func (OperatorApproval) TableName() string {
	return "operator_approvals"
}
