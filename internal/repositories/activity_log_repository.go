package repositories

import (
	"gatekeeper_backend/internal/models"

	"gorm.io/gorm"
)

// ActivityLogFilter - фильтры журнала
type ActivityLogFilter struct {
	UserID  string
	Action  string
	Model   string
	Page    int
	PerPage int
}

type ActivityLogRepository interface {
	Create(db *gorm.DB, entry *models.ActivityLog) error
	List(db *gorm.DB, filter ActivityLogFilter) ([]models.ActivityLog, int64, error)
}

type activityLogRepository struct{}

func NewActivityLogRepository() ActivityLogRepository {
	return &activityLogRepository{}
}

func (r *activityLogRepository) Create(db *gorm.DB, entry *models.ActivityLog) error {
	return db.Create(entry).Error
}

func (r *activityLogRepository) List(db *gorm.DB, filter ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.Model != "" {
			q = q.Where("model = ?", filter.Model)
		}
		return q
	}

	var total int64
	if err := db.Model(&models.ActivityLog{}).Scopes(where).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ActivityLog
	err := db.Scopes(where, Paginate(filter.Page, filter.PerPage)).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, total, err
}
