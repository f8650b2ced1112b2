package repositories

import (
	"errors"
	"strings"

	"gatekeeper_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserFilter - параметры списка пользователей
type UserFilter struct {
	Search  string
	Page    int
	PerPage int
}

type UserRepository interface {
	FindByID(db *gorm.DB, id string) (*models.User, error)
	// FindByIDWithRelations загружает Profile и Roles.Permissions
	FindByIDWithRelations(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	// EmailTaken проверяет уникальность email, исключая excludeID
	EmailTaken(db *gorm.DB, email, excludeID string) (bool, error)
	Create(db *gorm.DB, user *models.User) error
	UpdateFields(db *gorm.DB, userID string, fields map[string]interface{}) error
	UpdatePassword(db *gorm.DB, userID, passwordHash string) error
	Delete(db *gorm.DB, userID string) error
	List(db *gorm.DB, filter UserFilter) ([]models.User, int64, error)
	// FindWithoutProfile - пользователи без строки в profiles
	FindWithoutProfile(db *gorm.DB) ([]models.User, error)
}

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Profile").Preload("Roles.Permissions")
}

func (r *userRepository) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDWithRelations(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := withRelations(db).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) EmailTaken(db *gorm.DB, email, excludeID string) (bool, error) {
	var count int64
	q := db.Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	if err := db.Omit("Profile", "Roles", "Tokens").Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *userRepository) UpdateFields(db *gorm.DB, userID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := db.Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdatePassword(db *gorm.DB, userID, passwordHash string) error {
	return r.UpdateFields(db, userID, map[string]interface{}{"password_hash": passwordHash})
}

func (r *userRepository) Delete(db *gorm.DB, userID string) error {
	result := db.Where("id = ?", userID).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) List(db *gorm.DB, filter UserFilter) ([]models.User, int64, error) {
	search := func(q *gorm.DB) *gorm.DB {
		term := strings.TrimSpace(filter.Search)
		if term == "" {
			return q
		}
		like := "%" + strings.ToLower(term) + "%"
		return q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := db.Model(&models.User{}).Scopes(search).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := withRelations(db).
		Scopes(search, Paginate(filter.Page, filter.PerPage)).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) FindWithoutProfile(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	err := db.Where("NOT EXISTS (SELECT 1 FROM profiles WHERE profiles.user_id = users.id)").
		Find(&users).Error
	return users, err
}
