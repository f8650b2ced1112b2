package services

import (
	"gatekeeper_backend/internal/auth"
	"gatekeeper_backend/internal/imageprocessor"
	"gatekeeper_backend/internal/repositories"
	"gatekeeper_backend/internal/storage"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService       AuthService
	ProfileService    ProfileService
	UserService       UserService
	RoleService       RoleService
	PermissionService PermissionService
	ActivityService   ActivityService

	PermissionCache *auth.PermissionCache
	Storage         storage.Storage
}

// Deps - внешние зависимости сервисов
type Deps struct {
	Issuer  *auth.TokenIssuer
	Cache   *auth.PermissionCache
	Storage storage.Storage
	Images  *imageprocessor.Processor
}

func NewServiceContainer(deps Deps) *ServiceContainer {
	// --- Репозитории ---
	userRepo := repositories.NewUserRepository()
	profileRepo := repositories.NewProfileRepository()
	roleRepo := repositories.NewRoleRepository()
	permissionRepo := repositories.NewPermissionRepository()
	tokenRepo := repositories.NewTokenRepository()
	activityRepo := repositories.NewActivityLogRepository()

	// --- Сервисы ---
	activityService := NewActivityService(activityRepo)
	authService := NewAuthService(userRepo, profileRepo, roleRepo, tokenRepo, deps.Issuer, deps.Cache, deps.Storage, activityService)
	profileService := NewProfileService(userRepo, profileRepo, deps.Storage, deps.Images, activityService)
	userService := NewUserService(userRepo, profileRepo, roleRepo, tokenRepo, deps.Cache, deps.Storage, activityService)
	roleService := NewRoleService(roleRepo, permissionRepo, deps.Cache, activityService)
	permissionService := NewPermissionService(permissionRepo, deps.Cache, activityService)

	return &ServiceContainer{
		AuthService:       authService,
		ProfileService:    profileService,
		UserService:       userService,
		RoleService:       roleService,
		PermissionService: permissionService,
		ActivityService:   activityService,
		PermissionCache:   deps.Cache,
		Storage:           deps.Storage,
	}
}
