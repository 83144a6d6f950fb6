package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/logger"
)

func (l *ledger) Mint(ctx context.Context, caller common.Address, in MintInput) (uint64, error) {
	var id uint64
	err := l.update(ctx, "mint", func(t *txn) error {
		if domain.IsZeroAddress(in.To) {
			return domain.ErrMintToZeroAddress
		}
		amount, err := amountOrZero(in.Amount)
		if err != nil {
			return err
		}
		paid, err := amountOrZero(in.PaidValue)
		if err != nil {
			return err
		}

		if err := l.fees.collect(t, paid); err != nil {
			return err
		}

		id = l.allocator.next(t)
		class := &domain.TokenClass{ID: id, TotalSupply: new(big.Int).Set(amount)}
		if err := l.royalties.validateAndStore(class, in.Royalties); err != nil {
			return err
		}
		l.metadata.setAtMint(class, in.ExternalURI, in.MetadataJSON)
		l.locked.setAtMint(class, in.LockedContent)
		t.createClass(class)

		t.setBalance(id, in.To, amount)

		t.emit(domain.Transfer{
			Operator:     caller,
			From:         domain.ZeroAddress,
			To:           in.To,
			TokenClassID: id,
			Amount:       amount.String(),
		})
		t.emit(domain.Minted{
			ToAddress:    in.To,
			TokenClassID: id,
			ExternalURI:  in.ExternalURI,
			Amount:       amount.String(),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.InfoCtx(logger.WithLedger(ctx, l.id), "Minted token class",
		zap.Uint64("token_id", id),
		zap.String("to", in.To.Hex()))
	return id, nil
}

func (l *ledger) MintWithExplicitID(ctx context.Context, caller, to common.Address, tokenID uint64, uri string, amount *big.Int) error {
	return l.update(ctx, "mint_with_explicit_id", func(t *txn) error {
		if !l.access.hasRole(t, domain.RoleTrustedBridge, caller) {
			return domain.ErrMissingBridgeRole
		}
		if domain.IsZeroAddress(to) {
			return domain.ErrMintToZeroAddress
		}
		qty, err := amountOrZero(amount)
		if err != nil {
			return err
		}

		class, ok := t.classForUpdate(tokenID)
		if !ok {
			class = &domain.TokenClass{ID: tokenID, TotalSupply: new(big.Int), Bridged: true}
			t.createClass(class)
		}
		supply, err := addUint256(class.TotalSupply, qty)
		if err != nil {
			return err
		}
		class.TotalSupply = supply
		class.URIOverride = uri

		if err := credit(t, to, tokenID, qty); err != nil {
			return err
		}

		t.emit(domain.Transfer{
			Operator:     caller,
			From:         domain.ZeroAddress,
			To:           to,
			TokenClassID: tokenID,
			Amount:       qty.String(),
		})
		t.emit(domain.URI{Value: uri, TokenClassID: tokenID})
		return nil
	})
}

func (l *ledger) Burn(ctx context.Context, caller, holder common.Address, tokenID uint64, amount *big.Int) error {
	return l.update(ctx, "burn", func(t *txn) error {
		if domain.IsZeroAddress(holder) {
			return domain.ErrBurnFromZeroAddress
		}
		if !l.isOwnerOrApproved(t, caller, holder) {
			return domain.ErrNotOwnerNorApproved
		}
		qty, err := amountOrZero(amount)
		if err != nil {
			return err
		}
		if err := l.burn(t, holder, tokenID, qty); err != nil {
			return err
		}

		t.emit(domain.Transfer{
			Operator:     caller,
			From:         holder,
			To:           domain.ZeroAddress,
			TokenClassID: tokenID,
			Amount:       qty.String(),
		})
		return nil
	})
}

func (l *ledger) BurnBatch(ctx context.Context, caller, holder common.Address, tokenIDs []uint64, amounts []*big.Int) error {
	return l.update(ctx, "burn_batch", func(t *txn) error {
		if domain.IsZeroAddress(holder) {
			return domain.ErrBurnFromZeroAddress
		}
		if !l.isOwnerOrApproved(t, caller, holder) {
			return domain.ErrNotOwnerNorApproved
		}
		if len(tokenIDs) != len(amounts) {
			return domain.ErrIDsAmountsMismatch
		}

		quantities := make([]string, len(amounts))
		for i, id := range tokenIDs {
			qty, err := amountOrZero(amounts[i])
			if err != nil {
				return err
			}
			if err := l.burn(t, holder, id, qty); err != nil {
				return err
			}
			quantities[i] = qty.String()
		}

		t.emit(domain.TransferBatch{
			Operator:      caller,
			From:          holder,
			To:            domain.ZeroAddress,
			TokenClassIDs: append([]uint64(nil), tokenIDs...),
			Amounts:       quantities,
		})
		return nil
	})
}

// burn debits holder and the class supply
func (l *ledger) burn(t *txn, holder common.Address, id uint64, qty *big.Int) error {
	if err := debit(t, holder, id, qty, domain.ErrBurnExceedsBalance); err != nil {
		return err
	}
	if qty.Sign() == 0 {
		return nil
	}
	if class, ok := t.classForUpdate(id); ok {
		class.TotalSupply = new(big.Int).Sub(class.TotalSupply, qty)
	}
	return nil
}

func debit(t *txn, holder common.Address, id uint64, qty *big.Int, insufficient error) error {
	balance := t.balanceOf(id, holder)
	if balance.Cmp(qty) < 0 {
		return insufficient
	}
	if qty.Sign() == 0 {
		return nil
	}
	t.setBalance(id, holder, new(big.Int).Sub(balance, qty))
	return nil
}

func credit(t *txn, holder common.Address, id uint64, qty *big.Int) error {
	if qty.Sign() == 0 {
		return nil
	}
	balance, err := addUint256(t.balanceOf(id, holder), qty)
	if err != nil {
		return err
	}
	t.setBalance(id, holder, balance)
	return nil
}

func (l *ledger) isOwnerOrApproved(t *txn, caller, holder common.Address) bool {
	return caller == holder || t.isApproved(holder, caller)
}
