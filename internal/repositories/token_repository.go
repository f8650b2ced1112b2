package repositories

import (
	"errors"
	"time"

	"gatekeeper_backend/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrTokenNotFound возвращается, когда токен отозван или не существовал
	ErrTokenNotFound = errors.New("access token not found")
)

// TokenRepository - операции с personal access токенами
type TokenRepository interface {
	Create(db *gorm.DB, token *models.PersonalAccessToken) error
	FindByID(db *gorm.DB, id string) (*models.PersonalAccessToken, error)
	// Touch обновляет last_used_at
	Touch(db *gorm.DB, id string, at time.Time) error
	DeleteByID(db *gorm.DB, id string) error
	DeleteByUserID(db *gorm.DB, userID string) error
	CountByUserID(db *gorm.DB, userID string) (int64, error)
}

type tokenRepository struct{}

func NewTokenRepository() TokenRepository {
	return &tokenRepository{}
}

func (r *tokenRepository) Create(db *gorm.DB, token *models.PersonalAccessToken) error {
	return db.Create(token).Error
}

func (r *tokenRepository) FindByID(db *gorm.DB, id string) (*models.PersonalAccessToken, error) {
	var token models.PersonalAccessToken
	if err := db.Where("id = ?", id).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) Touch(db *gorm.DB, id string, at time.Time) error {
	return db.Model(&models.PersonalAccessToken{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", at).Error
}

func (r *tokenRepository) DeleteByID(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.PersonalAccessToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *tokenRepository) DeleteByUserID(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.PersonalAccessToken{}).Error
}

func (r *tokenRepository) CountByUserID(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.PersonalAccessToken{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
