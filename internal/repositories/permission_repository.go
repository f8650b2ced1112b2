package repositories

import (
	"errors"

	"gatekeeper_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPermissionNotFound      = errors.New("permission not found")
	ErrPermissionAlreadyExists = errors.New("permission already exists")
)

type PermissionRepository interface {
	FindAll(db *gorm.DB) ([]models.Permission, error)
	FindByID(db *gorm.DB, id string) (*models.Permission, error)
	// FindByNames возвращает найденные разрешения; отсутствующие просто не попадают в результат
	FindByNames(db *gorm.DB, names []string) ([]models.Permission, error)
	NameTaken(db *gorm.DB, name string) (bool, error)
	Create(db *gorm.DB, permission *models.Permission) error
	// Delete удаляет разрешение и его связи со всеми ролями
	Delete(db *gorm.DB, id string) error
}

type permissionRepository struct{}

func NewPermissionRepository() PermissionRepository {
	return &permissionRepository{}
}

func (r *permissionRepository) FindAll(db *gorm.DB) ([]models.Permission, error) {
	var permissions []models.Permission
	err := db.Order("name ASC").Find(&permissions).Error
	return permissions, err
}

func (r *permissionRepository) FindByID(db *gorm.DB, id string) (*models.Permission, error) {
	var permission models.Permission
	if err := db.First(&permission, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, err
	}
	return &permission, nil
}

func (r *permissionRepository) FindByNames(db *gorm.DB, names []string) ([]models.Permission, error) {
	var permissions []models.Permission
	if len(names) == 0 {
		return permissions, nil
	}
	err := db.Where("name IN ?", names).Find(&permissions).Error
	return permissions, err
}

func (r *permissionRepository) NameTaken(db *gorm.DB, name string) (bool, error) {
	var count int64
	if err := db.Model(&models.Permission{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *permissionRepository) Create(db *gorm.DB, permission *models.Permission) error {
	if err := db.Create(permission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrPermissionAlreadyExists
		}
		return err
	}
	return nil
}

func (r *permissionRepository) Delete(db *gorm.DB, id string) error {
	if err := db.Where("permission_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&models.Permission{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPermissionNotFound
	}
	return nil
}
