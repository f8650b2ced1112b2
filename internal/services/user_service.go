package services

import (
	"errors"
	"sort"
	"strings"

	"gatekeeper_backend/internal/auth"
	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/repositories"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/internal/storage"
	"gatekeeper_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type UserService interface {
	All(db *gorm.DB, search string) ([]dto.UserResponse, error)
	List(db *gorm.DB, query *dto.UserListQuery) (*dto.Paginated[dto.UserResponse], error)
	Get(db *gorm.DB, id string) (*dto.UserResponse, error)
	Create(db *gorm.DB, actorID string, req *dto.CreateUserRequest, meta RequestMeta) (*dto.UserResponse, error)
	Update(db *gorm.DB, actorID, id string, req *dto.UpdateUserRequest, meta RequestMeta) (*dto.UserResponse, error)
	Delete(db *gorm.DB, actorID, id string, meta RequestMeta) error
	UpdatePassword(db *gorm.DB, actorID, id string, req *dto.UpdatePasswordRequest, meta RequestMeta) error

	// MakeSuperAdmin заменяет роли пользователя на super-admin
	MakeSuperAdmin(db *gorm.DB, email string) error
}

type UserServiceImpl struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	roleRepo    repositories.RoleRepository
	tokenRepo   repositories.TokenRepository
	cache       *auth.PermissionCache
	storage     storage.Storage
	activity    ActivityService
}

func NewUserService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	roleRepo repositories.RoleRepository,
	tokenRepo repositories.TokenRepository,
	cache *auth.PermissionCache,
	storage storage.Storage,
	activity ActivityService,
) UserService {
	return &UserServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		roleRepo:    roleRepo,
		tokenRepo:   tokenRepo,
		cache:       cache,
		storage:     storage,
		activity:    activity,
	}
}

// All - полный список; читается страницами по MaxPerPage
func (s *UserServiceImpl) All(db *gorm.DB, search string) ([]dto.UserResponse, error) {
	ctx := contextOf(db)
	result := []dto.UserResponse{}

	for page := 1; ; page++ {
		users, total, err := s.userRepo.List(db, repositories.UserFilter{
			Search:  search,
			Page:    page,
			PerPage: repositories.MaxPerPage,
		})
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		for i := range users {
			result = append(result, *toUserResponse(ctx, s.storage, &users[i]))
		}
		if len(users) == 0 || int64(len(result)) >= total {
			break
		}
	}

	return result, nil
}

func (s *UserServiceImpl) List(db *gorm.DB, query *dto.UserListQuery) (*dto.Paginated[dto.UserResponse], error) {
	page, perPage := repositories.NormalizePage(query.Page, query.PerPage)

	users, total, err := s.userRepo.List(db, repositories.UserFilter{
		Search:  query.Search,
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	ctx := contextOf(db)
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, *toUserResponse(ctx, s.storage, &users[i]))
	}
	return dto.NewPaginated(items, page, perPage, total), nil
}

func (s *UserServiceImpl) Get(db *gorm.DB, id string) (*dto.UserResponse, error) {
	return loadUserResponse(db, s.userRepo, s.storage, id)
}

func (s *UserServiceImpl) Create(db *gorm.DB, actorID string, req *dto.CreateUserRequest, meta RequestMeta) (*dto.UserResponse, error) {
	taken, err := s.userRepo.EmailTaken(db, req.Email, "")
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if taken {
		return nil, apperrors.ErrDuplicateEmail
	}

	roleName := strings.TrimSpace(req.Role)
	if roleName == "" {
		roleName = models.RoleUser
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	role, err := s.findRole(tx, roleName)
	if err != nil {
		return nil, err
	}

	user := &models.User{Name: req.Name, Email: req.Email, PasswordHash: hash}
	if err := s.userRepo.Create(tx, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.InternalError(err)
	}
	if err := s.roleRepo.SyncUserRoles(tx, user.ID, []string{role.ID}); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.profileRepo.Create(tx, &models.Profile{UserID: user.ID}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.cache.Invalidate()
	s.activity.Record(db, ActivityEvent{
		ActorID:     actorID,
		Action:      ActionUserCreated,
		Model:       "user",
		ModelID:     user.ID,
		Description: "User created",
		Properties:  map[string]interface{}{"role": role.Name},
		Meta:        meta,
	})

	return loadUserResponse(db, s.userRepo, s.storage, user.ID)
}

// Update - пустой пароль не меняет хеш, роль заменяется целиком
func (s *UserServiceImpl) Update(db *gorm.DB, actorID, id string, req *dto.UpdateUserRequest, meta RequestMeta) (*dto.UserResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user, err := s.userRepo.FindByIDWithRelations(tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	fields := map[string]interface{}{}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil && *req.Email != "" && !strings.EqualFold(*req.Email, user.Email) {
		taken, err := s.userRepo.EmailTaken(tx, *req.Email, id)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if taken {
			return nil, apperrors.ErrDuplicateEmail
		}
		fields["email"] = *req.Email
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		fields["password_hash"] = hash
	}

	if err := s.userRepo.UpdateFields(tx, id, fields); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.InternalError(err)
	}

	properties := map[string]interface{}{"fields": fieldNames(fields)}
	rolesChanged := false
	if req.Role != nil && strings.TrimSpace(*req.Role) != "" {
		role, err := s.findRole(tx, strings.TrimSpace(*req.Role))
		if err != nil {
			return nil, err
		}
		if err := s.roleRepo.SyncUserRoles(tx, id, []string{role.ID}); err != nil {
			return nil, apperrors.InternalError(err)
		}
		rolesChanged = true
		properties["previous_roles"] = user.RoleNames()
		properties["role"] = role.Name
	}
	properties["role_changed"] = rolesChanged

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	if rolesChanged {
		s.cache.Invalidate()
	}
	s.activity.Record(db, ActivityEvent{
		ActorID:     actorID,
		Action:      ActionUserUpdated,
		Model:       "user",
		ModelID:     id,
		Description: "User updated",
		Properties:  properties,
		Meta:        meta,
	})

	return loadUserResponse(db, s.userRepo, s.storage, id)
}

// Delete удаляет токены, профиль, связи с ролями и саму запись
func (s *UserServiceImpl) Delete(db *gorm.DB, actorID, id string, meta RequestMeta) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	profile, err := s.profileRepo.FindByUserID(tx, id)
	if err != nil && !errors.Is(err, repositories.ErrProfileNotFound) {
		return apperrors.InternalError(err)
	}

	if err := s.tokenRepo.DeleteByUserID(tx, id); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.profileRepo.DeleteByUserID(tx, id); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.roleRepo.DeleteUserRoles(tx, id); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.Delete(tx, id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	s.cache.Invalidate()

	if profile != nil && profile.Avatar != nil && *profile.Avatar != "" {
		ctx := contextOf(db)
		if err := s.storage.Delete(ctx, *profile.Avatar); err != nil {
			logger.CtxWithError(ctx, "Failed to delete avatar of removed user", err, "path", *profile.Avatar)
		}
	}

	s.activity.Record(db, ActivityEvent{
		ActorID:     actorID,
		Action:      ActionUserDeleted,
		Model:       "user",
		ModelID:     id,
		Description: "User deleted",
		Meta:        meta,
	})
	return nil
}

func (s *UserServiceImpl) UpdatePassword(db *gorm.DB, actorID, id string, req *dto.UpdatePasswordRequest, meta RequestMeta) error {
	user, err := s.userRepo.FindByID(db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.UpdatePassword(db, id, hash); err != nil {
		return apperrors.InternalError(err)
	}

	s.activity.Record(db, ActivityEvent{
		ActorID:     actorID,
		Action:      ActionUserPasswordUpdated,
		Model:       "user",
		ModelID:     id,
		Description: "User password updated",
		Meta:        meta,
	})
	return nil
}

func (s *UserServiceImpl) MakeSuperAdmin(db *gorm.DB, email string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user, err := s.userRepo.FindByEmail(tx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	role, err := s.roleRepo.FindByName(tx, models.RoleSuperAdmin)
	if err != nil {
		if errors.Is(err, repositories.ErrRoleNotFound) {
			return apperrors.ErrRoleNotFound
		}
		return apperrors.InternalError(err)
	}

	if err := s.roleRepo.SyncUserRoles(tx, user.ID, []string{role.ID}); err != nil {
		return apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	s.cache.Invalidate()
	return nil
}

// findRole - неизвестная роль это ошибка валидации поля role
func (s *UserServiceImpl) findRole(db *gorm.DB, name string) (*models.Role, error) {
	role, err := s.roleRepo.FindByName(db, name)
	if err != nil {
		if errors.Is(err, repositories.ErrRoleNotFound) {
			return nil, apperrors.FieldError("role", "The selected role is invalid.")
		}
		return nil, apperrors.InternalError(err)
	}
	return role, nil
}

func fieldNames(fields map[string]interface{}) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		if k == "password_hash" {
			names = append(names, "password")
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
