package models

import "time"

// Зарезервированные роли
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

// Разрешения, создаваемые сидером
const (
	PermViewUsers         = "view users"
	PermCreateUsers       = "create users"
	PermEditUsers         = "edit users"
	PermDeleteUsers       = "delete users"
	PermAssignRoles       = "assign roles"
	PermViewOwnProfile    = "view own profile"
	PermEditOwnProfile    = "edit own profile"
	PermViewAnyProfile    = "view any profile"
	PermViewRoles         = "view roles"
	PermCreateRoles       = "create roles"
	PermEditRoles         = "edit roles"
	PermDeleteRoles       = "delete roles"
	PermViewPermissions   = "view permissions"
	PermAssignPermissions = "assign permissions"
	PermAccessDashboard   = "access dashboard"
)

// IsReservedRole - системные роли нельзя удалять
func IsReservedRole(name string) bool {
	switch name {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

type Role struct {
	BaseModel
	Name        string       `gorm:"type:varchar(255);uniqueIndex;not null"`
	Permissions []Permission `gorm:"many2many:role_permissions;joinForeignKey:RoleID;joinReferences:PermissionID;constraint:OnDelete:CASCADE"`
}

// PermissionNames возвращает имена разрешений роли
func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}

type Permission struct {
	BaseModel
	Name string `gorm:"type:varchar(255);uniqueIndex;not null"`
}

// RolePermission - явная join-сущность Role <-> Permission
type RolePermission struct {
	RoleID       string `gorm:"type:varchar(36);primaryKey"`
	PermissionID string `gorm:"type:varchar(36);primaryKey;index"`
	CreatedAt    time.Time
}

// UserRole - явная join-сущность User <-> Role
type UserRole struct {
	UserID    string `gorm:"type:varchar(36);primaryKey"`
	RoleID    string `gorm:"type:varchar(36);primaryKey;index"`
	CreatedAt time.Time
}
