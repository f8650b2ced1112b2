package auth

import "gatekeeper_backend/internal/models"

// AllPermissions - разрешения, которые создает сидер
var AllPermissions = []string{
	models.PermViewUsers,
	models.PermCreateUsers,
	models.PermEditUsers,
	models.PermDeleteUsers,
	models.PermAssignRoles,
	models.PermViewOwnProfile,
	models.PermEditOwnProfile,
	models.PermViewAnyProfile,
	models.PermViewRoles,
	models.PermCreateRoles,
	models.PermEditRoles,
	models.PermDeleteRoles,
	models.PermViewPermissions,
	models.PermAssignPermissions,
	models.PermAccessDashboard,
}

// DefaultRolePermissions - начальный набор разрешений системных ролей.
// super-admin получает все существующие разрешения отдельно (SyncSuperRole).
var DefaultRolePermissions = map[string][]string{
	models.RoleAdmin: {
		models.PermViewUsers,
		models.PermCreateUsers,
		models.PermEditUsers,
		models.PermDeleteUsers,
		models.PermViewOwnProfile,
		models.PermEditOwnProfile,
		models.PermViewAnyProfile,
		models.PermAccessDashboard,
	},
	models.RoleUser: {
		models.PermViewOwnProfile,
		models.PermEditOwnProfile,
		models.PermAccessDashboard,
	},
}

// RoleCapability - описание системной роли для UI
type RoleCapability struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// Capabilities - статическое описание системных ролей
func Capabilities() []RoleCapability {
	return []RoleCapability{
		{
			Name:        models.RoleSuperAdmin,
			Description: "Full access to every feature of the system",
			Capabilities: []string{
				"Manage all users",
				"Manage roles and permissions",
				"Access all profiles",
				"Access the dashboard",
			},
		},
		{
			Name:        models.RoleAdmin,
			Description: "User management without role and permission administration",
			Capabilities: []string{
				"View, create, edit and delete users",
				"View any profile",
				"Manage own profile",
				"Access the dashboard",
			},
		},
		{
			Name:        models.RoleUser,
			Description: "Basic access to the own profile",
			Capabilities: []string{
				"View own profile",
				"Edit own profile",
				"Access the dashboard",
			},
		},
	}
}
