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

type RoleService interface {
	List(db *gorm.DB) ([]dto.RoleResponse, error)
	Get(db *gorm.DB, id string) (*dto.RoleResponse, error)
	Create(db *gorm.DB, actorID string, req *dto.CreateRoleRequest, meta RequestMeta) (*dto.RoleResponse, error)
	Update(db *gorm.DB, actorID, id string, req *dto.UpdateRoleRequest, meta RequestMeta) (*dto.RoleResponse, error)
	Delete(db *gorm.DB, actorID, id string, meta RequestMeta) error
	Capabilities() []auth.RoleCapability

	// Seed создает недостающие разрешения и системные роли
	Seed(db *gorm.DB) error
	// SyncSuperRole выдает super-admin все существующие разрешения
	SyncSuperRole(db *gorm.DB) error
}

type RoleServiceImpl struct {
	roleRepo       repositories.RoleRepository
	permissionRepo repositories.PermissionRepository
	cache          *auth.PermissionCache
	activity       ActivityService
}

func NewRoleService(
	roleRepo repositories.RoleRepository,
	permissionRepo repositories.PermissionRepository,
	cache *auth.PermissionCache,
	activity ActivityService,
) RoleService {
	return &RoleServiceImpl{
		roleRepo:       roleRepo,
		permissionRepo: permissionRepo,
		cache:          cache,
		activity:       activity,
	}
}

func (s *RoleServiceImpl) List(db *gorm.DB) ([]dto.RoleResponse, error) {
	roles, err := s.roleRepo.FindAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		result = append(result, *dto.NewRoleResponse(&roles[i]))
	}
	return result, nil
}

func (s *RoleServiceImpl) Get(db *gorm.DB, id string) (*dto.RoleResponse, error) {
	role, err := s.findRole(db, id)
	if err != nil {
		return nil, err
	}
	return dto.NewRoleResponse(role), nil
}

func (s *RoleServiceImpl) Create(db *gorm.DB, actorID string, req *dto.CreateRoleRequest, meta RequestMeta) (*dto.RoleResponse, error) {
	name := strings.TrimSpace(req.Name)

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	taken, err := s.roleRepo.NameTaken(tx, name, "")
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if taken {
		return nil, apperrors.ErrDuplicateName
	}

	permissionIDs, err := s.resolvePermissions(tx, req.Permissions)
	if err != nil {
		return nil, err
	}

	role := &models.Role{Name: name}
	if err := s.roleRepo.Create(tx, role); err != nil {
		if errors.Is(err, repositories.ErrRoleAlreadyExists) {
			return nil, apperrors.ErrDuplicateName
		}
		return nil, apperrors.InternalError(err)
	}
	if err := s.roleRepo.SyncPermissions(tx, role.ID, permissionIDs); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.cache.Invalidate()
	s.activity.Record(db, ActivityEvent{
		ActorID:     actorID,
		Action:      ActionRoleCreated,
		Model:       "role",
		ModelID:     role.ID,
		Description: fmt.Sprintf("Role %q created", role.Name),
		Properties:  map[string]interface{}{"permissions": req.Permissions},
		Meta:        meta,
	})

	return s.Get(db, role.ID)
}

// Update - super-admin не редактируется; Permissions != nil заменяет набор целиком
func (s *RoleServiceImpl) Update(db *gorm.DB, actorID, id string, req *dto.UpdateRoleRequest, meta RequestMeta) (*dto.RoleResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	role, err := s.findRole(tx, id)
	if err != nil {
		return nil, err
	}
	if role.Name == models.RoleSuperAdmin {
		return nil, apperrors.ErrSuperRoleImmutable
	}

	props := map[string]interface{}{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != "" && name != role.Name {
			if models.IsReservedRole(role.Name) {
				return nil, apperrors.ErrReservedRole.WithMessage("System roles cannot be renamed.")
			}
			taken, err := s.roleRepo.NameTaken(tx, name, role.ID)
			if err != nil {
				return nil, apperrors.InternalError(err)
			}
			if taken {
				return nil, apperrors.ErrDuplicateName
			}
			if err := s.roleRepo.Rename(tx, role.ID, name); err != nil {
				if errors.Is(err, repositories.ErrRoleAlreadyExists) {
					return nil, apperrors.ErrDuplicateName
				}
				return nil, apperrors.InternalError(err)
			}
			props["name"] = name
		}
	}

	if req.Permissions != nil {
		permissionIDs, err := s.resolvePermissions(tx, *req.Permissions)
		if err != nil {
			return nil, err
		}
		if err := s.roleRepo.SyncPermissions(tx, role.ID, permissionIDs); err != nil {
			return nil, apperrors.InternalError(err)
		}
		props["permissions"] = *req.Permissions
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.cache.Invalidate()
	s.activity.Record(db, ActivityEvent{
		ActorID:     actorID,
		Action:      ActionRoleUpdated,
		Model:       "role",
		ModelID:     role.ID,
		Description: fmt.Sprintf("Role %q updated", role.Name),
		Properties:  props,
		Meta:        meta,
	})

	return s.Get(db, role.ID)
}

func (s *RoleServiceImpl) Delete(db *gorm.DB, actorID, id string, meta RequestMeta) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	role, err := s.findRole(tx, id)
	if err != nil {
		return err
	}
	if models.IsReservedRole(role.Name) {
		return apperrors.ErrReservedRole
	}

	if err := s.roleRepo.Delete(tx, role.ID); err != nil {
		if errors.Is(err, repositories.ErrRoleNotFound) {
			return apperrors.ErrRoleNotFound
		}
		return apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	s.cache.Invalidate()
	s.activity.Record(db, ActivityEvent{
		ActorID:     actorID,
		Action:      ActionRoleDeleted,
		Model:       "role",
		ModelID:     role.ID,
		Description: fmt.Sprintf("Role %q deleted", role.Name),
		Meta:        meta,
	})
	return nil
}

func (s *RoleServiceImpl) Capabilities() []auth.RoleCapability {
	return auth.Capabilities()
}

func (s *RoleServiceImpl) Seed(db *gorm.DB) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	existing, err := s.permissionRepo.FindByNames(tx, auth.AllPermissions)
	if err != nil {
		return apperrors.InternalError(err)
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.Name] = true
	}
	for _, name := range auth.AllPermissions {
		if have[name] {
			continue
		}
		if err := s.permissionRepo.Create(tx, &models.Permission{Name: name}); err != nil {
			return apperrors.InternalError(err)
		}
	}

	for _, name := range []string{models.RoleSuperAdmin, models.RoleAdmin, models.RoleUser} {
		_, err := s.roleRepo.FindByName(tx, name)
		if err == nil {
			// Уже существующие роли не трогаем: их наборы могли изменить
			continue
		}
		if !errors.Is(err, repositories.ErrRoleNotFound) {
			return apperrors.InternalError(err)
		}

		role := &models.Role{Name: name}
		if err := s.roleRepo.Create(tx, role); err != nil {
			return apperrors.InternalError(err)
		}
		if defaults, ok := auth.DefaultRolePermissions[name]; ok {
			perms, err := s.permissionRepo.FindByNames(tx, defaults)
			if err != nil {
				return apperrors.InternalError(err)
			}
			if err := s.roleRepo.SyncPermissions(tx, role.ID, permissionIDs(perms)); err != nil {
				return apperrors.InternalError(err)
			}
		}
	}

	if err := s.syncSuperRole(tx); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	s.cache.Invalidate()
	return nil
}

func (s *RoleServiceImpl) SyncSuperRole(db *gorm.DB) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.syncSuperRole(tx); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	s.cache.Invalidate()
	return nil
}

func (s *RoleServiceImpl) syncSuperRole(tx *gorm.DB) error {
	role, err := s.roleRepo.FindByName(tx, models.RoleSuperAdmin)
	if err != nil {
		if errors.Is(err, repositories.ErrRoleNotFound) {
			return apperrors.ErrRoleNotFound
		}
		return apperrors.InternalError(err)
	}

	all, err := s.permissionRepo.FindAll(tx)
	if err != nil {
		return apperrors.InternalError(err)
	}

	if err := s.roleRepo.SyncPermissions(tx, role.ID, permissionIDs(all)); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *RoleServiceImpl) findRole(db *gorm.DB, id string) (*models.Role, error) {
	role, err := s.roleRepo.FindByID(db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRoleNotFound) {
			return nil, apperrors.ErrRoleNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return role, nil
}

// resolvePermissions переводит имена в ID; неизвестное имя - ErrUnknownPermission
func (s *RoleServiceImpl) resolvePermissions(db *gorm.DB, names []string) ([]string, error) {
	wanted := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		wanted = append(wanted, n)
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	found, err := s.permissionRepo.FindByNames(db, wanted)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if len(found) != len(wanted) {
		known := make(map[string]bool, len(found))
		for _, p := range found {
			known[p.Name] = true
		}
		var missing []string
		for _, n := range wanted {
			if !known[n] {
				missing = append(missing, fmt.Sprintf("The permission %q does not exist.", n))
			}
		}
		return nil, apperrors.ErrUnknownPermission.WithDetails(map[string][]string{"permissions": missing})
	}

	return permissionIDs(found), nil
}

func permissionIDs(perms []models.Permission) []string {
	ids := make([]string, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}
	return ids
}
