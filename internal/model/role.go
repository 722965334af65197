package model

// Role is the access level a user holds within the system.
type Role string

const (
	// RoleSuperAdmin can read and manage data across every organization.
	RoleSuperAdmin Role = "SUPER_ADMIN"
	// RoleAdminLini manages users and logs within a single organization.
	RoleAdminLini Role = "ADMIN_LINI"
	// RoleStaff records logs for their own organization.
	RoleStaff Role = "STAFF"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdminLini, RoleStaff:
		return true
	}
	return false
}
