package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gatekeeper_backend/internal/auth"
	"gatekeeper_backend/internal/config"
	"gatekeeper_backend/internal/database"
	"gatekeeper_backend/internal/handlers"
	"gatekeeper_backend/internal/imageprocessor"
	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/metrics"
	"gatekeeper_backend/internal/middleware"
	"gatekeeper_backend/internal/ratelimit"
	"gatekeeper_backend/internal/routes"
	"gatekeeper_backend/internal/services"
	"gatekeeper_backend/internal/storage"
	"gatekeeper_backend/internal/validator"
	"gatekeeper_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.SetDebug(cfg.Server.Debug)

	gormDB, sqlDB, err := OpenDatabase(cfg)
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	defer sqlDB.Close()

	svc, err := BuildServices(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	if err := Seed(gormDB, cfg, svc); err != nil {
		// Без ролей и разрешений сервер не запускаем
		logger.Fatal("Failed to seed roles and permissions", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ginRouter := SetupRouter(ctx, cfg, gormDB, sqlDB, svc)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}

// OpenDatabase подключается и применяет миграции
func OpenDatabase(cfg *config.Config) (*gorm.DB, *sql.DB, error) {
	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(database.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Env:    cfg.Server.Env,
	})
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}

	if err := database.Migrate(gormDB); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	logger.Info("Database connected")

	return gormDB, sqlDB, nil
}

// BuildServices создает хранилище, выпуск токенов, кеш разрешений и сервисы
func BuildServices(cfg *config.Config) (*services.ServiceContainer, error) {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		PathStyle:  cfg.Storage.PathStyle,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	issuer, err := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		return nil, err
	}

	return services.NewServiceContainer(services.Deps{
		Issuer:  issuer,
		Cache:   auth.NewPermissionCache(cfg.PermissionCache.Size, cfg.PermissionCacheTTL()),
		Storage: storageInstance,
		Images: imageprocessor.NewProcessor(
			cfg.Upload.ImageQuality,
			cfg.Upload.MaxAvatarSize,
			cfg.Upload.AvatarMaxPixel,
			cfg.Upload.MaxPixels,
			cfg.Upload.AllowedTypes,
		),
	}), nil
}

// SetupRouter собирает middleware, хэндлеры и маршруты
func SetupRouter(ctx context.Context, cfg *config.Config, gormDB *gorm.DB, sqlDB *sql.DB, svc *services.ServiceContainer) *gin.Engine {
	m := metrics.New()
	m.RegisterDB(sqlDB)
	svc.PermissionCache.SetObserver(m.ObserveCacheLookup)

	limiter, redisPinger := initializeRateLimiter(ctx, cfg, m)

	appHandlers := initializeHandlers(cfg, svc, m, limiter, sqlDB, redisPinger)

	ginRouter := initializeGinRouter(cfg, gormDB, m)
	routes.RegisterRoutes(ginRouter, appHandlers, m, svc.Storage)

	return ginRouter
}

func initializeRateLimiter(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*middleware.RateLimiter, handlers.Pinger) {
	if cfg.Redis.URL != "" {
		client, err := ratelimit.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			logger.Error("Invalid REDIS_URL, falling back to in-memory rate limiter", "error", err)
		} else {
			redisLimiter := ratelimit.NewRedisLimiter(client, "gatekeeper:ratelimit")
			logger.Info("Rate limiter initialized", "store", "redis", "enabled", cfg.RateLimit.Enabled)
			return middleware.NewRateLimiter(redisLimiter, m, cfg.RateLimit.Enabled), redisLimiter
		}
	}

	memLimiter := ratelimit.NewMemoryLimiter()
	memLimiter.StartCleanup(ctx, time.Minute)
	logger.Info("Rate limiter initialized", "store", "memory", "enabled", cfg.RateLimit.Enabled)
	return middleware.NewRateLimiter(memLimiter, m, cfg.RateLimit.Enabled), nil
}

func initializeHandlers(
	cfg *config.Config,
	svc *services.ServiceContainer,
	m *metrics.Metrics,
	limiter *middleware.RateLimiter,
	sqlDB *sql.DB,
	redisPinger handlers.Pinger,
) *handlers.AppHandlers {
	customValidator := validator.New()
	gate := middleware.NewGate(svc.AuthService, m)
	baseHandler := handlers.NewBaseHandler(customValidator, gate, limiter)

	return &handlers.AppHandlers{
		AuthHandler:       handlers.NewAuthHandler(baseHandler, svc.AuthService),
		ProfileHandler:    handlers.NewProfileHandler(baseHandler, svc.ProfileService, cfg.Upload.MaxAvatarSize),
		UserHandler:       handlers.NewUserHandler(baseHandler, svc.UserService),
		RoleHandler:       handlers.NewRoleHandler(baseHandler, svc.RoleService),
		PermissionHandler: handlers.NewPermissionHandler(baseHandler, svc.PermissionService),
		ActivityHandler:   handlers.NewActivityHandler(baseHandler, svc.ActivityService),
		HealthHandler:     handlers.NewHealthHandler(baseHandler, sqlDB, redisPinger),
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB, m *metrics.Metrics) *gin.Engine {
	switch {
	case cfg.IsDevelopment():
		gin.SetMode(gin.DebugMode)
	case cfg.Server.Env == "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.DBMiddleware(db))
	// Лимит multipart в памяти; аватар проверяется отдельно
	router.MaxMultipartMemory = 8 << 20
	return router
}
