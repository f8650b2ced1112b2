package database

import (
	"errors"
	"testing"

	"gatekeeper_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"postgres", "pgsql", "", "mysql", "sqlite", "sqlite3", "SQLite"} {
		d, err := Dialector(driver, "dsn")
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := Dialector("oracle", "dsn")
	assert.Error(t, err)
}

func TestOpenAndMigrate_SQLite(t *testing.T) {
	db, err := Open(Options{Driver: DriverSQLite, DSN: SQLiteMemoryDSN("database_test"), Env: "test"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	// Повторная миграция безопасна
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "profiles", "roles", "permissions", "role_permissions", "user_roles", "personal_access_tokens", "activity_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	require.NoError(t, db.Create(&models.Permission{Name: "view users"}).Error)
	err = db.Create(&models.Permission{Name: "view users"}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "Нарушение уникальности переводится в ErrDuplicatedKey: %v", err)
}
