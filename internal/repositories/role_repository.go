package repositories

import (
	"errors"

	"gatekeeper_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrRoleAlreadyExists = errors.New("role already exists")
)

type RoleRepository interface {
	FindAll(db *gorm.DB) ([]models.Role, error)
	FindByID(db *gorm.DB, id string) (*models.Role, error)
	FindByName(db *gorm.DB, name string) (*models.Role, error)
	// NameTaken проверяет уникальность имени, исключая excludeID
	NameTaken(db *gorm.DB, name, excludeID string) (bool, error)
	Create(db *gorm.DB, role *models.Role) error
	Rename(db *gorm.DB, roleID, name string) error
	// SyncPermissions заменяет набор разрешений роли целиком
	SyncPermissions(db *gorm.DB, roleID string, permissionIDs []string) error
	// Delete удаляет роль вместе со связями role_permissions и user_roles
	Delete(db *gorm.DB, roleID string) error

	// SyncUserRoles заменяет роли пользователя целиком
	SyncUserRoles(db *gorm.DB, userID string, roleIDs []string) error
	DeleteUserRoles(db *gorm.DB, userID string) error
	// PermissionNamesForUser - объединение разрешений всех ролей пользователя
	PermissionNamesForUser(db *gorm.DB, userID string) ([]string, error)
}

type roleRepository struct{}

func NewRoleRepository() RoleRepository {
	return &roleRepository{}
}

func (r *roleRepository) FindAll(db *gorm.DB) ([]models.Role, error) {
	var roles []models.Role
	err := db.Preload("Permissions", func(q *gorm.DB) *gorm.DB {
		return q.Order("permissions.name ASC")
	}).Order("name ASC").Find(&roles).Error
	return roles, err
}

func (r *roleRepository) FindByID(db *gorm.DB, id string) (*models.Role, error) {
	var role models.Role
	err := db.Preload("Permissions", func(q *gorm.DB) *gorm.DB {
		return q.Order("permissions.name ASC")
	}).First(&role, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByName(db *gorm.DB, name string) (*models.Role, error) {
	var role models.Role
	if err := db.Preload("Permissions").Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) NameTaken(db *gorm.DB, name, excludeID string) (bool, error) {
	var count int64
	q := db.Model(&models.Role{}).Where("name = ?", name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *roleRepository) Create(db *gorm.DB, role *models.Role) error {
	if err := db.Omit("Permissions").Create(role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRoleAlreadyExists
		}
		return err
	}
	return nil
}

func (r *roleRepository) Rename(db *gorm.DB, roleID, name string) error {
	result := db.Model(&models.Role{}).Where("id = ?", roleID).Update("name", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrRoleAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func (r *roleRepository) SyncPermissions(db *gorm.DB, roleID string, permissionIDs []string) error {
	if err := db.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
		return err
	}
	if len(permissionIDs) == 0 {
		return nil
	}
	links := make([]models.RolePermission, 0, len(permissionIDs))
	for _, id := range uniqueStrings(permissionIDs) {
		links = append(links, models.RolePermission{RoleID: roleID, PermissionID: id})
	}
	return db.Create(&links).Error
}

func (r *roleRepository) Delete(db *gorm.DB, roleID string) error {
	if err := db.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
		return err
	}
	if err := db.Where("role_id = ?", roleID).Delete(&models.UserRole{}).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", roleID).Delete(&models.Role{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func (r *roleRepository) SyncUserRoles(db *gorm.DB, userID string, roleIDs []string) error {
	if err := r.DeleteUserRoles(db, userID); err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}
	links := make([]models.UserRole, 0, len(roleIDs))
	for _, id := range uniqueStrings(roleIDs) {
		links = append(links, models.UserRole{UserID: userID, RoleID: id})
	}
	return db.Create(&links).Error
}

func (r *roleRepository) DeleteUserRoles(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error
}

func (r *roleRepository) PermissionNamesForUser(db *gorm.DB, userID string) ([]string, error) {
	var names []string
	err := db.Model(&models.Permission{}).
		Distinct("permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID).
		Order("permissions.name ASC").
		Pluck("permissions.name", &names).Error
	return names, err
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
