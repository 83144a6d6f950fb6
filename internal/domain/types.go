package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroAddress is the null address used as "from" on mints and "to" on burns
var ZeroAddress = common.Address{}

// Role identifies a privilege, hashed the same way contract roles are
type Role common.Hash

var (
	// RoleDefaultAdmin administers every other grantable role
	RoleDefaultAdmin = Role(common.Hash{})
	// RoleTrustedBridge may mint against externally assigned identifiers
	RoleTrustedBridge = Role(crypto.Keccak256Hash([]byte("POLYNETWORK_ROLE")))
	// RoleOwner is the singular, transferable contract ownership
	RoleOwner = Role(crypto.Keccak256Hash([]byte("OWNER_ROLE")))
)

var roleNames = map[Role]string{
	RoleDefaultAdmin:  "DEFAULT_ADMIN",
	RoleTrustedBridge: "TRUSTED_BRIDGE",
	RoleOwner:         "OWNER",
}

// String returns the role name, or its hex hash for unknown roles
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return common.Hash(r).Hex()
}

// Hex returns the 0x-prefixed hash of the role
func (r Role) Hex() string {
	return common.Hash(r).Hex()
}

// ParseRole accepts either a known role name or a 32-byte hex hash
func ParseRole(s string) (Role, bool) {
	for role, name := range roleNames {
		if name == s {
			return role, true
		}
	}
	if len(s) == 66 && (s[:2] == "0x" || s[:2] == "0X") {
		return Role(common.HexToHash(s)), true
	}
	return Role{}, false
}

// Royalty is a recipient's share of resale value, in basis points
type Royalty struct {
	Recipient common.Address `json:"recipient"`
	ShareBps  uint16         `json:"share_bps"`
}

// TotalRoyaltyBps sums the shares of royalties
func TotalRoyaltyBps(royalties []Royalty) uint64 {
	var total uint64
	for _, r := range royalties {
		total += uint64(r.ShareBps)
	}
	return total
}

// TokenClass is one minted identifier and everything attached to it
type TokenClass struct {
	ID                     uint64
	TotalSupply            *big.Int
	URIOverride            string
	ExternalURI            string
	MetadataJSON           string
	Royalties              []Royalty
	LockedContent          string
	LockedContentViewCount uint64
	// Bridged is set when the class was created by an explicit-id mint
	Bridged bool
}

// Clone returns a deep copy of the class
func (c *TokenClass) Clone() *TokenClass {
	cp := *c
	cp.TotalSupply = copyInt(c.TotalSupply)
	if c.Royalties != nil {
		cp.Royalties = append([]Royalty(nil), c.Royalties...)
	}
	return &cp
}

// Settings holds the singular per-ledger values
type Settings struct {
	LedgerID        string
	Name            string
	Symbol          string
	DefaultURI      string
	Owner           common.Address
	NextTokenID     uint64
	MintFee         *big.Int
	ContractBalance *big.Int
}

// Clone returns a deep copy of the settings
func (s Settings) Clone() Settings {
	cp := s
	cp.MintFee = copyInt(s.MintFee)
	cp.ContractBalance = copyInt(s.ContractBalance)
	return cp
}

// copyInt copies v, treating nil as zero
func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// Balance is a holder's amount of one token class
type Balance struct {
	TokenID uint64
	Holder  common.Address
	Amount  *big.Int
}

// RoleMember records whether account holds role
type RoleMember struct {
	Role    Role
	Account common.Address
	Granted bool
}

// OperatorApproval records whether operator may move holder's tokens
type OperatorApproval struct {
	Holder   common.Address
	Operator common.Address
	Approved bool
}

// IsZeroAddress reports whether addr is the null address
func IsZeroAddress(addr common.Address) bool {
	return addr == ZeroAddress
}

// MarshalText encodes the role as its hex hash
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.Hex()), nil
}

// UnmarshalText decodes a hex hash
func (r *Role) UnmarshalText(text []byte) error {
	var h common.Hash
	if err := h.UnmarshalText(text); err != nil {
		return err
	}
	*r = Role(h)
	return nil
}
