package services

import (
	"errors"
	"fmt"
	"strings"

	"gatekeeper_backend/internal/auth"
	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/repositories"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type PermissionService interface {
	List(db *gorm.DB) ([]dto.PermissionResponse, error)
	Create(db *gorm.DB, actorID string, req *dto.CreatePermissionRequest, meta RequestMeta) (*dto.PermissionResponse, error)
	// Delete удаляет разрешение из всех ролей
	Delete(db *gorm.DB, actorID, id string, meta RequestMeta) error
}

type PermissionServiceImpl struct {
	permissionRepo repositories.PermissionRepository
	cache          *auth.PermissionCache
	activity       ActivityService
}

func NewPermissionService(
	permissionRepo repositories.PermissionRepository,
	cache *auth.PermissionCache,
	activity ActivityService,
) PermissionService {
	return &PermissionServiceImpl{
		permissionRepo: permissionRepo,
		cache:          cache,
		activity:       activity,
	}
}

func (s *PermissionServiceImpl) List(db *gorm.DB) ([]dto.PermissionResponse, error) {
	perms, err := s.permissionRepo.FindAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]dto.PermissionResponse, 0, len(perms))
	for i := range perms {
		result = append(result, *dto.NewPermissionResponse(&perms[i]))
	}
	return result, nil
}

// Create не добавляет новое разрешение в super-admin; это делает SyncSuperRole
func (s *PermissionServiceImpl) Create(db *gorm.DB, actorID string, req *dto.CreatePermissionRequest, meta RequestMeta) (*dto.PermissionResponse, error) {
	name := strings.TrimSpace(req.Name)

	taken, err := s.permissionRepo.NameTaken(db, name)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if taken {
		return nil, apperrors.ErrDuplicateName
	}

	perm := &models.Permission{Name: name}
	if err := s.permissionRepo.Create(db, perm); err != nil {
		if errors.Is(err, repositories.ErrPermissionAlreadyExists) {
			return nil, apperrors.ErrDuplicateName
		}
		return nil, apperrors.InternalError(err)
	}

	s.cache.Invalidate()
	s.activity.Record(db, ActivityEvent{
		ActorID:     actorID,
		Action:      ActionPermissionCreated,
		Model:       "permission",
		ModelID:     perm.ID,
		Description: fmt.Sprintf("Permission %q created", perm.Name),
		Meta:        meta,
	})

	return dto.NewPermissionResponse(perm), nil
}

func (s *PermissionServiceImpl) Delete(db *gorm.DB, actorID, id string, meta RequestMeta) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	perm, err := s.permissionRepo.FindByID(tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPermissionNotFound) {
			return apperrors.ErrPermissionNotFound
		}
		return apperrors.InternalError(err)
	}

	if err := s.permissionRepo.Delete(tx, perm.ID); err != nil {
		if errors.Is(err, repositories.ErrPermissionNotFound) {
			return apperrors.ErrPermissionNotFound
		}
		return apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	s.cache.Invalidate()
	s.activity.Record(db, ActivityEvent{
		ActorID:     actorID,
		Action:      ActionPermissionDeleted,
		Model:       "permission",
		ModelID:     perm.ID,
		Description: fmt.Sprintf("Permission %q deleted", perm.Name),
		Meta:        meta,
	})
	return nil
}
