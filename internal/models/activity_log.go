package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog - журнал действий, записи не изменяются
type ActivityLog struct {
	ID          string  `gorm:"type:varchar(36);primaryKey"`
	UserID      *string `gorm:"type:varchar(36);index"`
	Action      string  `gorm:"type:varchar(64);not null;index"`
	Model       *string `gorm:"type:varchar(64);index"`
	ModelID     *string `gorm:"type:varchar(36)"`
	Description string  `gorm:"type:text"`
	Properties  datatypes.JSON
	IPAddress   string `gorm:"type:varchar(45)"`
	UserAgent   string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// BeforeUpdate запрещает изменение записей журнала
func (a *ActivityLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrActivityLogImmutable
}
