package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/logger"
)

func (l *ledger) GrantRole(ctx context.Context, caller common.Address, role domain.Role, account common.Address) error {
	return l.update(ctx, "grant_role", func(t *txn) error {
		return l.access.grantRole(t, caller, role, account)
	})
}

func (l *ledger) RevokeRole(ctx context.Context, caller common.Address, role domain.Role, account common.Address) error {
	return l.update(ctx, "revoke_role", func(t *txn) error {
		return l.access.revokeRole(t, caller, role, account)
	})
}

func (l *ledger) RenounceRole(ctx context.Context, caller common.Address, role domain.Role, account common.Address) error {
	return l.update(ctx, "renounce_role", func(t *txn) error {
		return l.access.renounceRole(t, caller, role, account)
	})
}

func (l *ledger) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	var previous common.Address
	err := l.update(ctx, "transfer_ownership", func(t *txn) error {
		previous = t.settings.Owner
		return l.access.transferOwnership(t, caller, newOwner)
	})
	if err != nil {
		return err
	}

	logger.InfoCtx(logger.WithLedger(ctx, l.id), "Transferred ledger ownership",
		zap.String("previous_owner", previous.Hex()),
		zap.String("new_owner", newOwner.Hex()))
	return nil
}

func (l *ledger) SetMintFee(ctx context.Context, caller common.Address, fee *big.Int) error {
	return l.update(ctx, "set_mint_fee", func(t *txn) error {
		amount, err := amountOrZero(fee)
		if err != nil {
			return err
		}
		return l.fees.setFee(t, caller, amount)
	})
}

func (l *ledger) IncrementMintFee(ctx context.Context, caller common.Address) error {
	return l.update(ctx, "increment_mint_fee", func(t *txn) error {
		return l.fees.incrementFee(t, caller)
	})
}

func (l *ledger) Withdraw(ctx context.Context, caller common.Address, amount *big.Int) error {
	err := l.update(ctx, "withdraw", func(t *txn) error {
		if amount == nil {
			return domain.ErrWithdrawAmount
		}
		return l.fees.withdraw(t, caller, amount)
	})
	if err != nil {
		return err
	}

	logger.InfoCtx(logger.WithLedger(ctx, l.id), "Withdrew collected fees",
		zap.String("amount", amount.String()))
	return nil
}

func (l *ledger) SetDefaultURI(ctx context.Context, _ common.Address, template string) error {
	return l.update(ctx, "set_default_uri", func(t *txn) error {
		l.metadata.setDefaultURI(t, template)
		return nil
	})
}

func (l *ledger) SetTokenURI(ctx context.Context, caller common.Address, tokenID uint64, uri string) error {
	return l.update(ctx, "set_token_uri", func(t *txn) error {
		return l.metadata.setTokenURI(t, caller, tokenID, uri)
	})
}

func (l *ledger) RevealLockedContent(ctx context.Context, caller common.Address, tokenID uint64) (string, error) {
	var content string
	err := l.update(ctx, "reveal_locked_content", func(t *txn) error {
		var err error
		content, err = l.locked.reveal(t, caller, tokenID)
		return err
	})
	if err != nil {
		return "", err
	}
	return content, nil
}
