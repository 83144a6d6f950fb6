package domain

import "errors"

// ErrorKind classifies a rejected ledger operation
type ErrorKind string

const (
	KindUnauthorized        ErrorKind = "unauthorized"
	KindInsufficientBalance ErrorKind = "insufficient_balance"
	KindInsufficientFee     ErrorKind = "insufficient_fee"
	KindRoyaltyTooHigh      ErrorKind = "royalty_too_high"
	KindInvalidArgument     ErrorKind = "invalid_argument"
	KindInvalidWithdrawal   ErrorKind = "invalid_withdrawal"
)

// LedgerError is returned when the ledger rejects an operation.
// Error returns the reason string unchanged so callers can match on it.
type LedgerError struct {
	Kind   ErrorKind
	Reason string
}

func (e *LedgerError) Error() string {
	return e.Reason
}

// Is matches any LedgerError of the same kind, regardless of reason
func (e *LedgerError) Is(target error) bool {
	var t *LedgerError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newLedgerError(kind ErrorKind, reason string) *LedgerError {
	return &LedgerError{Kind: kind, Reason: reason}
}

// NewInvalidArgument returns an InvalidArgument error with a custom reason
func NewInvalidArgument(reason string) error {
	return newLedgerError(KindInvalidArgument, reason)
}

var (
	// Kind sentinels, for use with errors.Is
	ErrUnauthorized        = newLedgerError(KindUnauthorized, "unauthorized")
	ErrInsufficientBalance = newLedgerError(KindInsufficientBalance, "insufficient balance")
	ErrInsufficientFee     = newLedgerError(KindInsufficientFee, "insufficient fee")
	ErrRoyaltyTooHigh      = newLedgerError(KindRoyaltyTooHigh, "royalty too high")
	ErrInvalidArgument     = newLedgerError(KindInvalidArgument, "invalid argument")
	ErrInvalidWithdrawal   = newLedgerError(KindInvalidWithdrawal, "invalid withdrawal")

	// ErrLedgerNotFound is returned when a ledger id has no persisted state
	ErrLedgerNotFound = errors.New("ledger not found")
)

// Reason strings. Existing callers match on these, keep them verbatim.
var (
	ErrCallerNotOwner        = newLedgerError(KindUnauthorized, "Ownable: caller is not the owner")
	ErrNewOwnerZeroAddress   = newLedgerError(KindInvalidArgument, "Ownable: new owner is the zero address")
	ErrMissingBridgeRole     = newLedgerError(KindUnauthorized, "mintWithURI: must have POLYNETWORK_ROLE role to mint")
	ErrNotAdminToGrant       = newLedgerError(KindUnauthorized, "AccessControl: sender must be an admin to grant")
	ErrNotAdminToRevoke      = newLedgerError(KindUnauthorized, "AccessControl: sender must be an admin to revoke")
	ErrRenounceForSelfOnly   = newLedgerError(KindUnauthorized, "AccessControl: can only renounce roles for self")
	ErrOwnerRoleNotGrantable = newLedgerError(KindInvalidArgument, "AccessControl: owner role is transferred, not granted")
	ErrNotOwnerNorApproved   = newLedgerError(KindUnauthorized, "ERC1155: caller is not owner nor approved")
	ErrBurnExceedsBalance    = newLedgerError(KindInsufficientBalance, "ERC1155: burn amount exceeds balance")
	ErrTransferExceedsBal    = newLedgerError(KindInsufficientBalance, "ERC1155: insufficient balance for transfer")
	ErrIDsAmountsMismatch    = newLedgerError(KindInvalidArgument, "ERC1155: ids and amounts length mismatch")
	ErrAccountsIDsMismatch   = newLedgerError(KindInvalidArgument, "ERC1155: accounts and ids length mismatch")
	ErrMintToZeroAddress     = newLedgerError(KindInvalidArgument, "ERC1155: mint to the zero address")
	ErrTransferToZeroAddress = newLedgerError(KindInvalidArgument, "ERC1155: transfer to the zero address")
	ErrBurnFromZeroAddress   = newLedgerError(KindInvalidArgument, "ERC1155: burn from the zero address")
	ErrApprovalForSelf       = newLedgerError(KindInvalidArgument, "ERC1155: setting approval status for self")
	ErrNegativeAmount        = newLedgerError(KindInvalidArgument, "amount must not be negative")
	ErrAmountOverflow        = newLedgerError(KindInvalidArgument, "amount exceeds uint256")
	ErrRoyaltyAboveLimit     = newLedgerError(KindRoyaltyTooHigh, "Royalties value should not be more than 50%")
	ErrRoyaltyShareRange     = newLedgerError(KindInvalidArgument, "Royalty share should be between 0 and 10000")
	ErrRoyaltyNoRecipient    = newLedgerError(KindInvalidArgument, "Recipient should be present")
	ErrMintFeeTooLow         = newLedgerError(KindInsufficientFee, "Mint fee value is lower than the required fee")
	ErrWithdrawAmount        = newLedgerError(KindInvalidWithdrawal, "Withdraw amount should be greater then 0 and less then contract balance")
	ErrLockedContentNotOwner = newLedgerError(KindUnauthorized, "Caller must be the owner of the NFT")
	ErrURIForNonexistent     = newLedgerError(KindInvalidArgument, "URI set of nonexistent token")
)
