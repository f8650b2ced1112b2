package repositories

import (
	"errors"

	"gatekeeper_backend/internal/models"

	"gorm.io/gorm"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepository interface {
	FindByUserID(db *gorm.DB, userID string) (*models.Profile, error)
	Create(db *gorm.DB, profile *models.Profile) error
	Save(db *gorm.DB, profile *models.Profile) error
	DeleteByUserID(db *gorm.DB, userID string) error
}

type profileRepository struct{}

func NewProfileRepository() ProfileRepository {
	return &profileRepository{}
}

func (r *profileRepository) FindByUserID(db *gorm.DB, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Create(db *gorm.DB, profile *models.Profile) error {
	return db.Create(profile).Error
}

// Save создает или обновляет профиль целиком
func (r *profileRepository) Save(db *gorm.DB, profile *models.Profile) error {
	return db.Save(profile).Error
}

func (r *profileRepository) DeleteByUserID(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.Profile{}).Error
}
