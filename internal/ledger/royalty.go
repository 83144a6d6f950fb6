package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

type royaltyEngine struct{}

func (royaltyEngine) validate(royalties []domain.Royalty) error {
	for _, r := range royalties {
		if domain.IsZeroAddress(r.Recipient) {
			return domain.ErrRoyaltyNoRecipient
		}
		if r.ShareBps > domain.MaxRoyaltyShareBps {
			return domain.ErrRoyaltyShareRange
		}
	}
	if domain.TotalRoyaltyBps(royalties) > domain.MaxRoyaltyTotalBps {
		return domain.ErrRoyaltyAboveLimit
	}
	return nil
}

// validateAndStore attaches royalties to a class that is being created.
// Insertion order is kept.
func (e royaltyEngine) validateAndStore(class *domain.TokenClass, royalties []domain.Royalty) error {
	if err := e.validate(royalties); err != nil {
		return err
	}
	if len(royalties) > 0 {
		class.Royalties = append([]domain.Royalty(nil), royalties...)
	}
	return nil
}

func (royaltyEngine) recipients(class *domain.TokenClass) []common.Address {
	out := make([]common.Address, 0, len(class.Royalties))
	for _, r := range class.Royalties {
		out = append(out, r.Recipient)
	}
	return out
}

func (royaltyEngine) shares(class *domain.TokenClass) []uint16 {
	out := make([]uint16, 0, len(class.Royalties))
	for _, r := range class.Royalties {
		out = append(out, r.ShareBps)
	}
	return out
}
