package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

func (l *ledger) Name() string {
	var name string
	l.view(func(t *txn) { name = t.settings.Name })
	return name
}

func (l *ledger) Symbol() string {
	var symbol string
	l.view(func(t *txn) { symbol = t.settings.Symbol })
	return symbol
}

func (l *ledger) Owner() common.Address {
	var owner common.Address
	l.view(func(t *txn) { owner = t.settings.Owner })
	return owner
}

func (l *ledger) HasRole(role domain.Role, account common.Address) bool {
	var has bool
	l.view(func(t *txn) { has = l.access.hasRole(t, role, account) })
	return has
}

func (l *ledger) IsApprovedForAll(holder, operator common.Address) bool {
	var approved bool
	l.view(func(t *txn) { approved = t.isApproved(holder, operator) })
	return approved
}

func (l *ledger) BalanceOf(holder common.Address, tokenID uint64) *big.Int {
	var balance *big.Int
	l.view(func(t *txn) { balance = new(big.Int).Set(t.balanceOf(tokenID, holder)) })
	return balance
}

func (l *ledger) BalanceOfBatch(holders []common.Address, tokenIDs []uint64) ([]*big.Int, error) {
	if len(holders) != len(tokenIDs) {
		return nil, domain.ErrAccountsIDsMismatch
	}
	balances := make([]*big.Int, len(holders))
	l.view(func(t *txn) {
		for i, holder := range holders {
			balances[i] = new(big.Int).Set(t.balanceOf(tokenIDs[i], holder))
		}
	})
	return balances, nil
}

func (l *ledger) TotalSupply(tokenID uint64) *big.Int {
	supply := new(big.Int)
	l.view(func(t *txn) {
		if c, ok := t.class(tokenID); ok {
			supply.Set(c.TotalSupply)
		}
	})
	return supply
}

func (l *ledger) Exists(tokenID uint64) bool {
	var exists bool
	l.view(func(t *txn) { _, exists = t.class(tokenID) })
	return exists
}

func (l *ledger) CurrentCounter() uint64 {
	var counter uint64
	l.view(func(t *txn) { counter = l.allocator.current(t) })
	return counter
}

func (l *ledger) URI(tokenID uint64) string {
	var uri string
	l.view(func(t *txn) { uri = l.metadata.effectiveURI(t, tokenID) })
	return uri
}

func (l *ledger) ExternalURI(tokenID uint64) string {
	return l.classField(tokenID, func(c *domain.TokenClass) string { return c.ExternalURI })
}

func (l *ledger) MetadataJSON(tokenID uint64) string {
	return l.classField(tokenID, func(c *domain.TokenClass) string { return c.MetadataJSON })
}

func (l *ledger) classField(tokenID uint64, field func(*domain.TokenClass) string) string {
	var value string
	l.view(func(t *txn) {
		if c, ok := t.class(tokenID); ok {
			value = field(c)
		}
	})
	return value
}

// Royalties returns the class royalties in mint order; unknown ids have none
func (l *ledger) Royalties(tokenID uint64) []domain.Royalty {
	royalties := []domain.Royalty{}
	l.view(func(t *txn) {
		if c, ok := t.class(tokenID); ok {
			royalties = append(royalties, c.Royalties...)
		}
	})
	return royalties
}

func (l *ledger) RoyaltyRecipients(tokenID uint64) []common.Address {
	recipients := []common.Address{}
	l.view(func(t *txn) {
		if c, ok := t.class(tokenID); ok {
			recipients = l.royalties.recipients(c)
		}
	})
	return recipients
}

func (l *ledger) RoyaltyShares(tokenID uint64) []uint16 {
	shares := []uint16{}
	l.view(func(t *txn) {
		if c, ok := t.class(tokenID); ok {
			shares = l.royalties.shares(c)
		}
	})
	return shares
}

func (l *ledger) LockedContentViewCount(tokenID uint64) uint64 {
	var count uint64
	l.view(func(t *txn) {
		if c, ok := t.class(tokenID); ok {
			count = c.LockedContentViewCount
		}
	})
	return count
}

func (l *ledger) MintFee() *big.Int {
	var fee *big.Int
	l.view(func(t *txn) { fee = new(big.Int).Set(t.settings.MintFee) })
	return fee
}

func (l *ledger) ContractBalance() *big.Int {
	var balance *big.Int
	l.view(func(t *txn) { balance = new(big.Int).Set(t.settings.ContractBalance) })
	return balance
}
