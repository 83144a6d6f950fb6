package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// lockedContentStore discloses a class's locked payload to its holders only
type lockedContentStore struct{}

func (lockedContentStore) setAtMint(class *domain.TokenClass, content string) {
	if content != "" {
		class.LockedContent = content
	}
}

// reveal counts every successful view, repeated views by the same holder included
func (lockedContentStore) reveal(t *txn, caller common.Address, id uint64) (string, error) {
	if t.balanceOf(id, caller).Sign() <= 0 {
		return "", domain.ErrLockedContentNotOwner
	}
	class, ok := t.classForUpdate(id)
	if !ok {
		return "", domain.ErrLockedContentNotOwner
	}
	class.LockedContentViewCount++
	t.emit(domain.LockedContentViewed{Viewer: caller, TokenClassID: id, Content: class.LockedContent})
	return class.LockedContent, nil
}
