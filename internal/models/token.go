package models

import "time"

// PersonalAccessToken - bearer-токен; живет до явного отзыва (удаления строки)
type PersonalAccessToken struct {
	BaseModel
	UserID     string `gorm:"type:varchar(36);not null;index"`
	Name       string `gorm:"type:varchar(255);not null"`
	TokenHash  string `gorm:"type:varchar(64);uniqueIndex;not null"`
	LastUsedAt *time.Time
}
