package services

import (
	"encoding/json"

	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/repositories"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Действия журнала
const (
	ActionLogin               = "login"
	ActionLogout              = "logout"
	ActionRegister            = "register"
	ActionPasswordChanged     = "password_changed"
	ActionProfileUpdated      = "profile_updated"
	ActionUserCreated         = "user_created"
	ActionUserUpdated         = "user_updated"
	ActionUserDeleted         = "user_deleted"
	ActionUserPasswordUpdated = "user_password_updated"
	ActionRoleCreated         = "role_created"
	ActionRoleUpdated         = "role_updated"
	ActionRoleDeleted         = "role_deleted"
	ActionPermissionCreated   = "permission_created"
	ActionPermissionDeleted   = "permission_deleted"
)

// ActivityEvent - одна запись журнала
type ActivityEvent struct {
	ActorID     string
	Action      string
	Model       string
	ModelID     string
	Description string
	Properties  map[string]interface{}
	Meta        RequestMeta
}

type ActivityService interface {
	// Record пишет событие; ошибка записи только логируется
	Record(db *gorm.DB, event ActivityEvent)
	List(db *gorm.DB, query *dto.ActivityLogQuery) (*dto.Paginated[dto.ActivityLogResponse], error)
}

type ActivityServiceImpl struct {
	activityRepo repositories.ActivityLogRepository
}

func NewActivityService(activityRepo repositories.ActivityLogRepository) ActivityService {
	return &ActivityServiceImpl{activityRepo: activityRepo}
}

func (s *ActivityServiceImpl) Record(db *gorm.DB, event ActivityEvent) {
	entry := &models.ActivityLog{
		Action:      event.Action,
		Description: event.Description,
		IPAddress:   event.Meta.IP,
		UserAgent:   event.Meta.UserAgent,
	}
	if event.ActorID != "" {
		entry.UserID = strPtr(event.ActorID)
	}
	if event.Model != "" {
		entry.Model = strPtr(event.Model)
	}
	if event.ModelID != "" {
		entry.ModelID = strPtr(event.ModelID)
	}
	if len(event.Properties) > 0 {
		raw, err := json.Marshal(event.Properties)
		if err == nil {
			entry.Properties = datatypes.JSON(raw)
		}
	}

	if err := s.activityRepo.Create(db, entry); err != nil {
		logger.CtxWithError(contextOf(db), "Failed to record activity", err,
			"action", event.Action,
			"actor_id", event.ActorID,
		)
	}
}

func (s *ActivityServiceImpl) List(db *gorm.DB, query *dto.ActivityLogQuery) (*dto.Paginated[dto.ActivityLogResponse], error) {
	page, perPage := repositories.NormalizePage(query.Page, query.PerPage)

	entries, total, err := s.activityRepo.List(db, repositories.ActivityLogFilter{
		UserID:  query.UserID,
		Action:  query.Action,
		Model:   query.Model,
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]dto.ActivityLogResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewActivityLogResponse(&entries[i]))
	}
	return dto.NewPaginated(items, page, perPage, total), nil
}
