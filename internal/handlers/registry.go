package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler       *AuthHandler
	ProfileHandler    *ProfileHandler
	UserHandler       *UserHandler
	RoleHandler       *RoleHandler
	PermissionHandler *PermissionHandler
	ActivityHandler   *ActivityHandler
	HealthHandler     *HealthHandler
}
