package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/store"
)

type balanceKey struct {
	tokenID uint64
	holder  common.Address
}

type roleKey struct {
	role    domain.Role
	account common.Address
}

type approvalKey struct {
	holder   common.Address
	operator common.Address
}

// state is the committed in-memory image of one ledger
type state struct {
	settings  domain.Settings
	classes   map[uint64]*domain.TokenClass
	balances  map[balanceKey]*big.Int
	roles     map[roleKey]bool
	approvals map[approvalKey]bool
}

func newState(ls *store.LedgerState) *state {
	s := &state{
		settings:  ls.Settings.Clone(),
		classes:   make(map[uint64]*domain.TokenClass, len(ls.Classes)),
		balances:  make(map[balanceKey]*big.Int, len(ls.Balances)),
		roles:     make(map[roleKey]bool, len(ls.Roles)),
		approvals: make(map[approvalKey]bool, len(ls.Approvals)),
	}
	for _, c := range ls.Classes {
		s.classes[c.ID] = c.Clone()
	}
	for _, b := range ls.Balances {
		if b.Amount != nil && b.Amount.Sign() > 0 {
			s.balances[balanceKey{b.TokenID, b.Holder}] = new(big.Int).Set(b.Amount)
		}
	}
	for _, r := range ls.Roles {
		if r.Granted {
			s.roles[roleKey{r.Role, r.Account}] = true
		}
	}
	for _, a := range ls.Approvals {
		if a.Approved {
			s.approvals[approvalKey{a.Holder, a.Operator}] = true
		}
	}
	return s
}

// begin opens a working set over the committed state
func (s *state) begin() *txn {
	return &txn{
		base:     s,
		settings: s.settings.Clone(),
	}
}

// txn is a copy-on-write working set. Reads fall through to the committed
// state; writes stay in the overlay until commit. Discarding a txn is a rollback.
type txn struct {
	base *state

	settings      domain.Settings
	settingsDirty bool

	classes   map[uint64]*domain.TokenClass
	balances  map[balanceKey]*big.Int
	roles     map[roleKey]bool
	approvals map[approvalKey]bool

	// write order, so changesets are deterministic
	classOrder    []uint64
	balanceOrder  []balanceKey
	roleOrder     []roleKey
	approvalOrder []approvalKey

	events []domain.Event
}

func (t *txn) settingsForUpdate() *domain.Settings {
	t.settingsDirty = true
	return &t.settings
}

// class returns a read-only view of a class
func (t *txn) class(id uint64) (*domain.TokenClass, bool) {
	if c, ok := t.classes[id]; ok {
		return c, true
	}
	c, ok := t.base.classes[id]
	return c, ok
}

// classForUpdate returns a private copy of a class that will be written on commit
func (t *txn) classForUpdate(id uint64) (*domain.TokenClass, bool) {
	if c, ok := t.classes[id]; ok {
		return c, true
	}
	c, ok := t.base.classes[id]
	if !ok {
		return nil, false
	}
	cp := c.Clone()
	t.putClass(cp)
	return cp, true
}

func (t *txn) createClass(c *domain.TokenClass) {
	t.putClass(c)
}

func (t *txn) putClass(c *domain.TokenClass) {
	if t.classes == nil {
		t.classes = make(map[uint64]*domain.TokenClass)
	}
	if _, seen := t.classes[c.ID]; !seen {
		t.classOrder = append(t.classOrder, c.ID)
	}
	t.classes[c.ID] = c
}

// balanceOf returns the holder's balance; the result must not be mutated
func (t *txn) balanceOf(id uint64, holder common.Address) *big.Int {
	k := balanceKey{id, holder}
	if b, ok := t.balances[k]; ok {
		return b
	}
	if b, ok := t.base.balances[k]; ok {
		return b
	}
	return new(big.Int)
}

func (t *txn) setBalance(id uint64, holder common.Address, amount *big.Int) {
	if t.balances == nil {
		t.balances = make(map[balanceKey]*big.Int)
	}
	k := balanceKey{id, holder}
	if _, seen := t.balances[k]; !seen {
		t.balanceOrder = append(t.balanceOrder, k)
	}
	t.balances[k] = amount
}

func (t *txn) hasRole(role domain.Role, account common.Address) bool {
	k := roleKey{role, account}
	if granted, ok := t.roles[k]; ok {
		return granted
	}
	return t.base.roles[k]
}

func (t *txn) setRole(role domain.Role, account common.Address, granted bool) {
	if t.roles == nil {
		t.roles = make(map[roleKey]bool)
	}
	k := roleKey{role, account}
	if _, seen := t.roles[k]; !seen {
		t.roleOrder = append(t.roleOrder, k)
	}
	t.roles[k] = granted
}

func (t *txn) isApproved(holder, operator common.Address) bool {
	k := approvalKey{holder, operator}
	if approved, ok := t.approvals[k]; ok {
		return approved
	}
	return t.base.approvals[k]
}

func (t *txn) setApproval(holder, operator common.Address, approved bool) {
	if t.approvals == nil {
		t.approvals = make(map[approvalKey]bool)
	}
	k := approvalKey{holder, operator}
	if _, seen := t.approvals[k]; !seen {
		t.approvalOrder = append(t.approvalOrder, k)
	}
	t.approvals[k] = approved
}

func (t *txn) emit(e domain.Event) {
	t.events = append(t.events, e)
}

// changeset converts the overlay into absolute rows for the store
func (t *txn) changeset(ledgerID string, events []domain.EventEnvelope) *store.Changeset {
	cs := &store.Changeset{LedgerID: ledgerID, Events: events}
	if t.settingsDirty {
		s := t.settings.Clone()
		cs.Settings = &s
	}
	for _, id := range t.classOrder {
		cs.Classes = append(cs.Classes, t.classes[id].Clone())
	}
	for _, k := range t.balanceOrder {
		cs.Balances = append(cs.Balances, domain.Balance{
			TokenID: k.tokenID,
			Holder:  k.holder,
			Amount:  new(big.Int).Set(t.balances[k]),
		})
	}
	for _, k := range t.roleOrder {
		cs.Roles = append(cs.Roles, domain.RoleMember{Role: k.role, Account: k.account, Granted: t.roles[k]})
	}
	for _, k := range t.approvalOrder {
		cs.Approvals = append(cs.Approvals, domain.OperatorApproval{Holder: k.holder, Operator: k.operator, Approved: t.approvals[k]})
	}
	return cs
}

// commit merges the overlay into the committed state
func (t *txn) commit() {
	s := t.base
	if t.settingsDirty {
		s.settings = t.settings
	}
	for id, c := range t.classes {
		s.classes[id] = c
	}
	for k, b := range t.balances {
		if b.Sign() == 0 {
			delete(s.balances, k)
			continue
		}
		s.balances[k] = b
	}
	for k, granted := range t.roles {
		if granted {
			s.roles[k] = true
		} else {
			delete(s.roles, k)
		}
	}
	for k, approved := range t.approvals {
		if approved {
			s.approvals[k] = true
		} else {
			delete(s.approvals, k)
		}
	}
}
