package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// feeLedger keeps the mint fee and the value collected from mints
type feeLedger struct {
	access accessControl
}

func (f feeLedger) setFee(t *txn, caller common.Address, fee *big.Int) error {
	if err := f.access.requireOwner(t, caller); err != nil {
		return err
	}
	s := t.settingsForUpdate()
	s.MintFee = new(big.Int).Set(fee)
	t.emit(domain.MintFeeUpdated{Fee: fee.String()})
	return nil
}

func (f feeLedger) incrementFee(t *txn, caller common.Address) error {
	if err := f.access.requireOwner(t, caller); err != nil {
		return err
	}
	fee, err := addUint256(t.settings.MintFee, big.NewInt(1))
	if err != nil {
		return err
	}
	s := t.settingsForUpdate()
	s.MintFee = fee
	t.emit(domain.FeeIncremented{})
	return nil
}

// collect checks paid against the fee and keeps all of it, overpayment included
func (feeLedger) collect(t *txn, paid *big.Int) error {
	if paid.Cmp(t.settings.MintFee) < 0 {
		return domain.ErrMintFeeTooLow
	}
	if paid.Sign() == 0 {
		return nil
	}
	balance, err := addUint256(t.settings.ContractBalance, paid)
	if err != nil {
		return err
	}
	s := t.settingsForUpdate()
	s.ContractBalance = balance
	return nil
}

func (f feeLedger) withdraw(t *txn, caller common.Address, amount *big.Int) error {
	if err := f.access.requireOwner(t, caller); err != nil {
		return err
	}
	if amount.Sign() <= 0 || amount.Cmp(t.settings.ContractBalance) > 0 {
		return domain.ErrWithdrawAmount
	}
	s := t.settingsForUpdate()
	s.ContractBalance = new(big.Int).Sub(s.ContractBalance, amount)
	t.emit(domain.Withdrawn{To: s.Owner, Amount: amount.String()})
	return nil
}
