package ledger

import "github.com/feral-file/ff-token-ledger/internal/domain"

// identifierAllocator hands out token class ids in strictly increasing order
type identifierAllocator struct{}

// current reports the id the next allocation will try
func (identifierAllocator) current(t *txn) uint64 {
	return t.settings.NextTokenID
}

// next returns the current counter and advances it. Ids already taken by
// bridged classes are skipped so an allocated class never merges into one.
func (identifierAllocator) next(t *txn) uint64 {
	s := t.settingsForUpdate()
	if s.NextTokenID < domain.FirstTokenID {
		s.NextTokenID = domain.FirstTokenID
	}
	id := s.NextTokenID
	for {
		if _, taken := t.class(id); !taken {
			break
		}
		id++
	}
	s.NextTokenID = id + 1
	return id
}
