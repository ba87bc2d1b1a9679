package domain

import "strings"

// Role is a closed set of account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// ParseRole normalises s into a known role. Unknown or empty input maps to RoleUser.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	default:
		return RoleUser
	}
}

// Permission is an opaque token naming one allowed action.
type Permission string

const (
	PermCreateUsers       Permission = "create_users"
	PermEditUsers         Permission = "edit_users"
	PermDeleteUsers       Permission = "delete_users"
	PermViewUsers         Permission = "view_users"
	PermManageTickets     Permission = "manage_tickets"
	PermViewReports       Permission = "view_reports"
	PermSystemSettings    Permission = "system_settings"
	PermExportData        Permission = "export_data"
	PermManageCategories  Permission = "manage_categories"
	PermManageDepartments Permission = "manage_departments"
	PermAssignTickets     Permission = "assign_tickets"
	PermEditTickets       Permission = "edit_tickets"
	PermCloseTickets      Permission = "close_tickets"
	PermCreateTickets     Permission = "create_tickets"
	PermViewOwnTickets    Permission = "view_own_tickets"
	PermEditOwnTickets    Permission = "edit_own_tickets"
)

// rolePermissions is the role → permissions matrix. Order is significant:
// PermissionsForRole returns entries in this order.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermCreateUsers,
		PermEditUsers,
		PermDeleteUsers,
		PermManageTickets,
		PermViewReports,
		PermSystemSettings,
		PermExportData,
		PermManageCategories,
		PermManageDepartments,
	},
	RoleManager: {
		PermManageTickets,
		PermViewReports,
		PermAssignTickets,
		PermEditTickets,
		PermCloseTickets,
		PermViewUsers,
	},
	RoleUser: {
		PermCreateTickets,
		PermViewOwnTickets,
		PermEditOwnTickets,
	},
}

// PermissionsForRole returns a fresh copy of the permission set for role.
// Unknown roles receive the RoleUser set.
func PermissionsForRole(role Role) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		perms = rolePermissions[RoleUser]
	}
	return append([]Permission(nil), perms...)
}

// PermissionsMatch reports whether got holds exactly the permissions derived from role.
func PermissionsMatch(role Role, got []Permission) bool {
	want := PermissionsForRole(role)
	if len(got) != len(want) {
		return false
	}
	seen := make(map[Permission]struct{}, len(got))
	for _, p := range got {
		seen[p] = struct{}{}
	}
	if len(seen) != len(want) {
		return false
	}
	for _, p := range want {
		if _, ok := seen[p]; !ok {
			return false
		}
	}
	return true
}

// HasPermission reports whether u currently holds perm.
func HasPermission(u *User, perm Permission) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether u holds at least one of perms.
func HasAnyPermission(u *User, perms ...Permission) bool {
	for _, p := range perms {
		if HasPermission(u, p) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether u has the admin role.
func IsAdmin(u *User) bool {
	return u != nil && u.Role == RoleAdmin
}
