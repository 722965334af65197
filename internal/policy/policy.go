// Package policy holds the pure access-control predicates applied to
// every data-bearing operation. The functions here never touch storage
// or transport; handlers resolve an Identity from the request and ask
// this package what it may see or change.
package policy

import (
	"time"

	"ledger-service/internal/model"
)

// StaffEditWindow is how long a STAFF user may mutate their own log
// after creating it. The boundary is exclusive: at exactly the window's
// edge the log is still editable, beyond it it is not.
const StaffEditWindow = 24 * time.Hour

// Identity is the resolved caller: who they are, where they belong and
// what they may do.
type Identity struct {
	UserID         uint
	OrganizationID uint
	Role           model.Role
}

// IsPrivileged reports whether the identity holds an admin role.
func (id Identity) IsPrivileged() bool {
	return id.Role == model.RoleSuperAdmin || id.Role == model.RoleAdminLini
}

// IsGlobalAdmin reports whether the identity may cross organization
// boundaries.
func (id Identity) IsGlobalAdmin() bool {
	return id.Role == model.RoleSuperAdmin
}

// CanAccessOrganization reports whether the identity may read data owned
// by the given organization.
func CanAccessOrganization(id Identity, orgID uint) bool {
	if id.IsGlobalAdmin() {
		return true
	}
	return id.OrganizationID == orgID
}

// EffectiveOrganizationFilter resolves the organization scope actually
// applied to a query. A global admin gets the requested scope verbatim,
// nil meaning the global view. Everyone else is pinned to their own
// organization: a requested id is silently ignored, never honored and
// never rejected, even when it does not exist.
func EffectiveOrganizationFilter(id Identity, requested *uint) *uint {
	if id.IsGlobalAdmin() {
		return requested
	}
	own := id.OrganizationID
	return &own
}

// CanMutateLog reports whether the identity may update or archive a log
// authored by authorID in orgID and created at createdAt. STAFF may only
// touch their own logs and only within StaffEditWindow of creation;
// admins are not age-limited but stay inside their organization scope.
func CanMutateLog(id Identity, authorID, orgID uint, createdAt, now time.Time) bool {
	if !CanAccessOrganization(id, orgID) {
		return false
	}
	if id.IsPrivileged() {
		return true
	}
	if authorID != id.UserID {
		return false
	}
	return now.Sub(createdAt) <= StaffEditWindow
}

// CanRestoreLog reports whether the identity may un-archive a log.
func CanRestoreLog(id Identity) bool {
	return id.IsGlobalAdmin()
}

// CanManageOrganizations reports whether the identity may create, update
// or delete organizations.
func CanManageOrganizations(id Identity) bool {
	return id.IsGlobalAdmin()
}

// CanManageUsers reports whether the identity may manage users belonging
// to the target organization.
func CanManageUsers(id Identity, targetOrgID uint) bool {
	return id.IsPrivileged() && CanAccessOrganization(id, targetOrgID)
}

// TargetOrganizationForNewUser resolves which organization a new user is
// registered into. Only a global admin may choose; everyone else creates
// users in their own organization regardless of the requested id.
func TargetOrganizationForNewUser(id Identity, requested *uint) uint {
	if id.IsGlobalAdmin() && requested != nil {
		return *requested
	}
	return id.OrganizationID
}

// TargetOrganizationForNewLog resolves which organization a new log is
// recorded under, with the same override rule as user creation.
func TargetOrganizationForNewLog(id Identity, requested *uint) uint {
	if id.IsGlobalAdmin() && requested != nil {
		return *requested
	}
	return id.OrganizationID
}
