package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

func (l *ledger) SafeTransferFrom(ctx context.Context, caller, from, to common.Address, tokenID uint64, amount *big.Int) error {
	return l.update(ctx, "safe_transfer_from", func(t *txn) error {
		if domain.IsZeroAddress(to) {
			return domain.ErrTransferToZeroAddress
		}
		if !l.isOwnerOrApproved(t, caller, from) {
			return domain.ErrNotOwnerNorApproved
		}
		qty, err := amountOrZero(amount)
		if err != nil {
			return err
		}
		if err := debit(t, from, tokenID, qty, domain.ErrTransferExceedsBal); err != nil {
			return err
		}
		if err := credit(t, to, tokenID, qty); err != nil {
			return err
		}

		t.emit(domain.Transfer{
			Operator:     caller,
			From:         from,
			To:           to,
			TokenClassID: tokenID,
			Amount:       qty.String(),
		})
		return nil
	})
}

func (l *ledger) SafeBatchTransferFrom(ctx context.Context, caller, from, to common.Address, tokenIDs []uint64, amounts []*big.Int) error {
	return l.update(ctx, "safe_batch_transfer_from", func(t *txn) error {
		if len(tokenIDs) != len(amounts) {
			return domain.ErrIDsAmountsMismatch
		}
		if domain.IsZeroAddress(to) {
			return domain.ErrTransferToZeroAddress
		}
		if !l.isOwnerOrApproved(t, caller, from) {
			return domain.ErrNotOwnerNorApproved
		}

		quantities := make([]string, len(amounts))
		for i, id := range tokenIDs {
			qty, err := amountOrZero(amounts[i])
			if err != nil {
				return err
			}
			if err := debit(t, from, id, qty, domain.ErrTransferExceedsBal); err != nil {
				return err
			}
			if err := credit(t, to, id, qty); err != nil {
				return err
			}
			quantities[i] = qty.String()
		}

		t.emit(domain.TransferBatch{
			Operator:      caller,
			From:          from,
			To:            to,
			TokenClassIDs: append([]uint64(nil), tokenIDs...),
			Amounts:       quantities,
		})
		return nil
	})
}

func (l *ledger) SetApprovalForAll(ctx context.Context, caller, operator common.Address, approved bool) error {
	return l.update(ctx, "set_approval_for_all", func(t *txn) error {
		if caller == operator {
			return domain.ErrApprovalForSelf
		}
		t.setApproval(caller, operator, approved)
		t.emit(domain.ApprovalForAll{Holder: caller, Operator: operator, Approved: approved})
		return nil
	})
}
