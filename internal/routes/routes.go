package routes

import (
	"gatekeeper_backend/internal/handlers"
	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/metrics"
	"gatekeeper_backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	m *metrics.Metrics,
	store storage.Storage,
) {
	// Регистрация HTTP API v1
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.ProfileHandler.RegisterRoutes(api)
		appHandlers.UserHandler.RegisterRoutes(api)
		appHandlers.RoleHandler.RegisterRoutes(api)
		appHandlers.PermissionHandler.RegisterRoutes(api)
		appHandlers.ActivityHandler.RegisterRoutes(api)
	}

	// Служебные маршруты без версии
	appHandlers.HealthHandler.RegisterRoutes(&ginRouter.RouterGroup)
	if m != nil {
		ginRouter.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Аватары из локального хранилища
	if local, ok := store.(*storage.LocalStorage); ok {
		ginRouter.Static("/storage", local.BasePath())
		logger.Info("Local storage route /storage registered", "path", local.BasePath())
	}
}
