// Package rbac holds the role and ownership rules shared by services and middleware.
package rbac

import (
	"slices"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/google/uuid"
)

// Permission constants
const (
	PermReadOwn     = "read_own"
	PermWriteOwn    = "write_own"
	PermReadAny     = "read_any"
	PermWriteAny    = "write_any"
	PermDeleteAny   = "delete_any"
	PermManageUsers = "manage_users"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	models.RoleUser: {
		PermReadOwn, PermWriteOwn,
	},
	models.RoleAdmin: {
		PermReadOwn, PermWriteOwn,
		PermReadAny, PermWriteAny, PermDeleteAny,
		PermManageUsers,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	return slices.Contains(RolePermissions[role], permission)
}

// HasRole reports whether role is one of allowed.
func HasRole(role string, allowed ...string) bool {
	return slices.Contains(allowed, role)
}

// CanAccess is the per-resource ownership rule: the owner, or any principal
// allowed to act on other users' resources. Team membership and assignment
// never grant access here.
func CanAccess(principal *models.User, owner uuid.UUID, permission string) bool {
	if principal == nil {
		return false
	}
	if principal.ID == owner {
		return true
	}
	return HasPermission(principal.Role, permission)
}
