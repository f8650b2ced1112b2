package app

import (
	"fmt"

	"gatekeeper_backend/internal/config"
	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/services"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Seed - разрешения, системные роли, синхронизация super-admin и первый администратор.
// Повторный запуск ничего не дублирует.
func Seed(db *gorm.DB, cfg *config.Config, svc *services.ServiceContainer) error {
	if err := svc.RoleService.Seed(db); err != nil {
		return fmt.Errorf("failed to seed roles and permissions: %w", err)
	}
	logger.Info("Roles and permissions seeded")

	return seedFirstAdmin(db, cfg, svc)
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config, svc *services.ServiceContainer) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	_, err := svc.UserService.Create(db, "", &dto.CreateUserRequest{
		Name:     "Super Admin",
		Email:    adminEmail,
		Password: adminPassword,
		Role:     models.RoleSuperAdmin,
	}, services.RequestMeta{IP: "127.0.0.1", UserAgent: "seeder"})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrDuplicateEmail) {
			logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
			return nil
		}
		return fmt.Errorf("failed to create first admin: %w", err)
	}

	logger.Info("Successfully created first admin user", "email", adminEmail)
	return nil
}
