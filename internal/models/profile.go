package models

// Profile - 1:1 с User, все поля опциональны
type Profile struct {
	BaseModel
	UserID  string  `gorm:"type:varchar(36);uniqueIndex;not null"`
	Phone   *string `gorm:"type:varchar(20)"`
	Address *string `gorm:"type:varchar(500)"`
	Bio     *string `gorm:"type:text"`
	// Путь объекта в хранилище, URL вычисляется при чтении
	Avatar *string `gorm:"type:varchar(255)"`
}
