package app_test

import (
	"bytes"
	"testing"

	"gatekeeper_backend/internal/app"
	"gatekeeper_backend/internal/auth"
	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/pkg/apperrors"
	"gatekeeper_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecAdmin_Usage(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)

	testCases := []struct {
		name string
		args []string
	}{
		{"без команды", nil},
		{"неизвестная команда", []string{"drop-everything"}},
		{"make-superadmin без email", []string{"make-superadmin"}},
		{"make-superadmin с лишним аргументом", []string{"make-superadmin", "a@test.com", "b@test.com"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := app.ExecAdmin(ts.DB, ts.Config, ts.Services, tc.args, &out)
			assert.ErrorIs(t, err, app.ErrUsage)
			assert.Empty(t, out.String())
		})
	}
}

func TestExecAdmin_SeedIsIdempotent(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)

	var out bytes.Buffer
	require.NoError(t, app.ExecAdmin(ts.DB, ts.Config, ts.Services, []string{"seed"}, &out))
	require.NoError(t, app.ExecAdmin(ts.DB, ts.Config, ts.Services, []string{"seed"}, &out))
	assert.Contains(t, out.String(), "seeded")

	var perms, roles int64
	ts.DB.Model(&models.Permission{}).Count(&perms)
	ts.DB.Model(&models.Role{}).Count(&roles)
	assert.Equal(t, int64(len(auth.AllPermissions)), perms)
	assert.Equal(t, int64(3), roles)
}

func TestExecAdmin_SyncSuperRole(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)

	require.NoError(t, ts.DB.Create(&models.Permission{Name: "export reports"}).Error)

	var out bytes.Buffer
	require.NoError(t, app.ExecAdmin(ts.DB, ts.Config, ts.Services, []string{"sync-super-role"}, &out))

	var super models.Role
	require.NoError(t, ts.DB.Preload("Permissions").Where("name = ?", models.RoleSuperAdmin).First(&super).Error)
	names := make([]string, 0, len(super.Permissions))
	for _, p := range super.Permissions {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "export reports")
	assert.Len(t, names, len(auth.AllPermissions)+1)
}

func TestExecAdmin_MakeSuperAdmin(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	user := helpers.CreateUser(t, ts, "Promoted", helpers.UniqueEmail("promoted"), models.RoleAdmin)

	var out bytes.Buffer
	require.NoError(t, app.ExecAdmin(ts.DB, ts.Config, ts.Services, []string{"make-superadmin", user.Email}, &out))
	assert.Contains(t, out.String(), user.Email)

	set, err := ts.Services.AuthService.Permissions(ts.DB, user.ID)
	require.NoError(t, err)
	assert.True(t, set.HasAll(auth.AllPermissions...))

	err = app.ExecAdmin(ts.DB, ts.Config, ts.Services, []string{"make-superadmin", "ghost@test.com"}, &out)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestExecAdmin_EnsureProfiles(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	user := helpers.CreateUser(t, ts, "No Profile", helpers.UniqueEmail("noprofile"), models.RoleUser)
	require.NoError(t, ts.DB.Where("user_id = ?", user.ID).Delete(&models.Profile{}).Error)

	var out bytes.Buffer
	require.NoError(t, app.ExecAdmin(ts.DB, ts.Config, ts.Services, []string{"ensure-profiles"}, &out))
	assert.Equal(t, "Created 1 profile(s).\n", out.String())
}

func TestSeed_FirstAdmin(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	ts.Config.FirstAdminEmail = "root@test.com"
	ts.Config.FirstAdminPassword = "password123"

	require.NoError(t, app.Seed(ts.DB, ts.Config, ts.Services))
	// Повторный сидинг не падает на существующем email
	require.NoError(t, app.Seed(ts.DB, ts.Config, ts.Services))

	token := helpers.Login(t, ts, "root@test.com", "password123")
	identity, err := ts.Services.AuthService.Authenticate(ts.DB, token)
	require.NoError(t, err)

	set, err := ts.Services.AuthService.Permissions(ts.DB, identity.User.ID)
	require.NoError(t, err)
	assert.True(t, set.Has(models.PermAssignPermissions))
}
