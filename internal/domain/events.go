package domain

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType names a ledger event
type EventType string

const (
	EventTypeTransfer             EventType = "transfer"
	EventTypeTransferBatch        EventType = "transfer_batch"
	EventTypeMinted               EventType = "minted"
	EventTypeURI                  EventType = "uri"
	EventTypeFeeIncremented       EventType = "fee_incremented"
	EventTypeMintFeeUpdated       EventType = "mint_fee_updated"
	EventTypeWithdrawn            EventType = "withdrawn"
	EventTypeLockedContentViewed  EventType = "locked_content_viewed"
	EventTypeRoleGranted          EventType = "role_granted"
	EventTypeRoleRevoked          EventType = "role_revoked"
	EventTypeOwnershipTransferred EventType = "ownership_transferred"
	EventTypeApprovalForAll       EventType = "approval_for_all"
)

// Event is a domain event emitted by a committed ledger operation
type Event interface {
	EventType() EventType
}

// Transfer is emitted for every single-class balance movement, including mint and burn
type Transfer struct {
	Operator     common.Address `json:"operator"`
	From         common.Address `json:"from"`
	To           common.Address `json:"to"`
	TokenClassID uint64         `json:"token_class_id"`
	Amount       string         `json:"amount"` // decimal
}

// TransferBatch is emitted by batch burns and batch transfers
type TransferBatch struct {
	Operator      common.Address `json:"operator"`
	From          common.Address `json:"from"`
	To            common.Address `json:"to"`
	TokenClassIDs []uint64       `json:"token_class_ids"`
	Amounts       []string       `json:"amounts"` // decimal, parallel to TokenClassIDs
}

// Minted is emitted by a regular mint, after its Transfer
type Minted struct {
	ToAddress    common.Address `json:"to_address"`
	TokenClassID uint64         `json:"token_class_id"`
	ExternalURI  string         `json:"external_uri"`
	Amount       string         `json:"amount"` // decimal
}

// URI is emitted when a class URI override or the default template changes.
// TokenClassID is 0 for the default template.
type URI struct {
	Value        string `json:"value"`
	TokenClassID uint64 `json:"token_class_id"`
}

// FeeIncremented is emitted by the administrative fee bump
type FeeIncremented struct{}

// MintFeeUpdated is emitted when the owner sets the mint fee
type MintFeeUpdated struct {
	Fee string `json:"fee"` // decimal
}

// Withdrawn instructs the settlement platform to pay out collected fees
type Withdrawn struct {
	To     common.Address `json:"to"`
	Amount string         `json:"amount"` // decimal
}

// LockedContentViewed is emitted on every successful reveal
type LockedContentViewed struct {
	Viewer       common.Address `json:"viewer"`
	TokenClassID uint64         `json:"token_class_id"`
	Content      string         `json:"content"`
}

// RoleGranted is emitted when an account receives a role
type RoleGranted struct {
	Role    Role           `json:"role"`
	Account common.Address `json:"account"`
	Sender  common.Address `json:"sender"`
}

// RoleRevoked is emitted when an account loses a role
type RoleRevoked struct {
	Role    Role           `json:"role"`
	Account common.Address `json:"account"`
	Sender  common.Address `json:"sender"`
}

// OwnershipTransferred is emitted when the singular owner changes
type OwnershipTransferred struct {
	PreviousOwner common.Address `json:"previous_owner"`
	NewOwner      common.Address `json:"new_owner"`
}

// ApprovalForAll is emitted when a holder approves or revokes an operator
type ApprovalForAll struct {
	Holder   common.Address `json:"holder"`
	Operator common.Address `json:"operator"`
	Approved bool           `json:"approved"`
}

func (Transfer) EventType() EventType             { return EventTypeTransfer }
func (TransferBatch) EventType() EventType        { return EventTypeTransferBatch }
func (Minted) EventType() EventType               { return EventTypeMinted }
func (URI) EventType() EventType                  { return EventTypeURI }
func (FeeIncremented) EventType() EventType       { return EventTypeFeeIncremented }
func (MintFeeUpdated) EventType() EventType       { return EventTypeMintFeeUpdated }
func (Withdrawn) EventType() EventType            { return EventTypeWithdrawn }
func (LockedContentViewed) EventType() EventType  { return EventTypeLockedContentViewed }
func (RoleGranted) EventType() EventType          { return EventTypeRoleGranted }
func (RoleRevoked) EventType() EventType          { return EventTypeRoleRevoked }
func (OwnershipTransferred) EventType() EventType { return EventTypeOwnershipTransferred }
func (ApprovalForAll) EventType() EventType       { return EventTypeApprovalForAll }

// EventEnvelope is the persisted and published form of an Event
type EventEnvelope struct {
	ID         string          `json:"id"`       // ULID, also the broker de-duplication id
	LedgerID   string          `json:"ledger_id"`
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}
