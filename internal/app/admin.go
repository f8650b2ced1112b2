package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gatekeeper_backend/internal/config"
	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/services"

	"gorm.io/gorm"
)

const adminUsage = `Usage: admin <command> [args]

Commands:
  seed                     create missing permissions and system roles
  sync-super-role          grant every existing permission to super-admin
  make-superadmin <email>  replace the user's roles with super-admin
  ensure-profiles          create empty profiles for users without one
`

// ErrUsage - неверные аргументы командной строки
var ErrUsage = errors.New("invalid usage")

// RunAdmin - точка входа cmd/admin, возвращает код выхода
func RunAdmin(args []string) int {
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { fmt.Fprint(os.Stderr, adminUsage) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)

	gormDB, sqlDB, err := OpenDatabase(cfg)
	if err != nil {
		logger.Error("Database unavailable", "error", err)
		return 1
	}
	defer sqlDB.Close()

	svc, err := BuildServices(cfg)
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		return 1
	}

	if err := ExecAdmin(gormDB, cfg, svc, fs.Args(), os.Stdout); err != nil {
		if errors.Is(err, ErrUsage) {
			fmt.Fprint(os.Stderr, adminUsage)
			return 2
		}
		logger.Error("Admin command failed", "error", err)
		return 1
	}
	return 0
}

// ExecAdmin выполняет одну команду
func ExecAdmin(db *gorm.DB, cfg *config.Config, svc *services.ServiceContainer, args []string, out io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "seed":
		if err := Seed(db, cfg, svc); err != nil {
			return err
		}
		fmt.Fprintln(out, "Roles and permissions seeded.")

	case "sync-super-role":
		if err := svc.RoleService.SyncSuperRole(db); err != nil {
			return err
		}
		fmt.Fprintln(out, "super-admin now holds every permission.")

	case "make-superadmin":
		if len(args) != 2 {
			return ErrUsage
		}
		if err := svc.UserService.MakeSuperAdmin(db, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "User %s is now super-admin.\n", args[1])

	case "ensure-profiles":
		created, err := svc.ProfileService.EnsureProfiles(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %d profile(s).\n", created)

	default:
		return ErrUsage
	}

	return nil
}
