package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// accessControl answers role questions and applies role changes on a txn.
// OWNER is not a member set: it is the singular owner kept in the settings.
type accessControl struct{}

func (accessControl) hasRole(t *txn, role domain.Role, account common.Address) bool {
	if role == domain.RoleOwner {
		return !domain.IsZeroAddress(account) && t.settings.Owner == account
	}
	return t.hasRole(role, account)
}

func (accessControl) requireOwner(t *txn, caller common.Address) error {
	if domain.IsZeroAddress(caller) || t.settings.Owner != caller {
		return domain.ErrCallerNotOwner
	}
	return nil
}

// adminOf returns the role allowed to grant and revoke role
func adminOf(domain.Role) domain.Role {
	return domain.RoleDefaultAdmin
}

func (a accessControl) canAdminister(t *txn, role domain.Role, caller common.Address) bool {
	return a.hasRole(t, domain.RoleOwner, caller) || a.hasRole(t, adminOf(role), caller)
}

func (a accessControl) grantRole(t *txn, caller common.Address, role domain.Role, account common.Address) error {
	if role == domain.RoleOwner {
		return domain.ErrOwnerRoleNotGrantable
	}
	if !a.canAdminister(t, role, caller) {
		return domain.ErrNotAdminToGrant
	}
	if t.hasRole(role, account) {
		return nil
	}
	t.setRole(role, account, true)
	t.emit(domain.RoleGranted{Role: role, Account: account, Sender: caller})
	return nil
}

func (a accessControl) revokeRole(t *txn, caller common.Address, role domain.Role, account common.Address) error {
	if role == domain.RoleOwner {
		return domain.ErrOwnerRoleNotGrantable
	}
	if !a.canAdminister(t, role, caller) {
		return domain.ErrNotAdminToRevoke
	}
	a.drop(t, caller, role, account)
	return nil
}

func (a accessControl) renounceRole(t *txn, caller common.Address, role domain.Role, account common.Address) error {
	if account != caller {
		return domain.ErrRenounceForSelfOnly
	}
	if role == domain.RoleOwner {
		return domain.ErrOwnerRoleNotGrantable
	}
	a.drop(t, caller, role, account)
	return nil
}

func (accessControl) drop(t *txn, caller common.Address, role domain.Role, account common.Address) {
	if !t.hasRole(role, account) {
		return
	}
	t.setRole(role, account, false)
	t.emit(domain.RoleRevoked{Role: role, Account: account, Sender: caller})
}

func (a accessControl) transferOwnership(t *txn, caller, newOwner common.Address) error {
	if err := a.requireOwner(t, caller); err != nil {
		return err
	}
	if domain.IsZeroAddress(newOwner) {
		return domain.ErrNewOwnerZeroAddress
	}
	s := t.settingsForUpdate()
	previous := s.Owner
	s.Owner = newOwner
	t.emit(domain.OwnershipTransferred{PreviousOwner: previous, NewOwner: newOwner})
	return nil
}
