package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

type metadataStore struct {
	access accessControl
}

// setDefaultURI replaces the template used by classes without an override.
// Any caller may set it.
func (metadataStore) setDefaultURI(t *txn, template string) {
	s := t.settingsForUpdate()
	s.DefaultURI = template
	t.emit(domain.URI{Value: template, TokenClassID: 0})
}

func (metadataStore) effectiveURI(t *txn, id uint64) string {
	if c, ok := t.class(id); ok && c.URIOverride != "" {
		return c.URIOverride
	}
	return t.settings.DefaultURI
}

func (metadataStore) setAtMint(class *domain.TokenClass, externalURI, metadataJSON string) {
	if externalURI != "" {
		class.ExternalURI = externalURI
	}
	if metadataJSON != "" {
		class.MetadataJSON = metadataJSON
	}
}

func (m metadataStore) setTokenURI(t *txn, caller common.Address, id uint64, uri string) error {
	if err := m.access.requireOwner(t, caller); err != nil {
		return err
	}
	class, ok := t.classForUpdate(id)
	if !ok {
		return domain.ErrURIForNonexistent
	}
	class.URIOverride = uri
	t.emit(domain.URI{Value: uri, TokenClassID: id})
	return nil
}
