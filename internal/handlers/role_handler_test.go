package handlers_test

import (
	"net/http"
	"testing"

	"gatekeeper_backend/internal/auth"
	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findRoleByName(t *testing.T, ts *helpers.TestServer, token, name string) dto.RoleResponse {
	t.Helper()

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/roles", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var roles []dto.RoleResponse
	helpers.DecodeData(t, body, &roles)
	for _, r := range roles {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("Роль %q не найдена", name)
	return dto.RoleResponse{}
}

func TestRoles_SeededState(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	superToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleSuperAdmin)

	super := findRoleByName(t, ts, superToken, models.RoleSuperAdmin)
	assert.ElementsMatch(t, auth.AllPermissions, super.Permissions, "super-admin владеет всеми разрешениями")
	assert.Equal(t, len(auth.AllPermissions), super.PermissionsCount)

	admin := findRoleByName(t, ts, superToken, models.RoleAdmin)
	assert.ElementsMatch(t, auth.DefaultRolePermissions[models.RoleAdmin], admin.Permissions)

	user := findRoleByName(t, ts, superToken, models.RoleUser)
	assert.ElementsMatch(t, auth.DefaultRolePermissions[models.RoleUser], user.Permissions)
}

func TestRoles_CRUD(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	superToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleSuperAdmin)

	// Создание
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/roles", superToken, map[string]interface{}{
		"name":        "editor",
		"permissions": []string{models.PermViewUsers, models.PermEditUsers},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var created dto.RoleResponse
	helpers.DecodeData(t, body, &created)
	assert.Equal(t, "editor", created.Name)
	assert.ElementsMatch(t, []string{models.PermViewUsers, models.PermEditUsers}, created.Permissions)

	// Получение
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/roles/"+created.ID, superToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// Замена набора разрешений и переименование
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/roles/"+created.ID, superToken, map[string]interface{}{
		"name":        "senior editor",
		"permissions": []string{models.PermViewRoles},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var updated dto.RoleResponse
	helpers.DecodeData(t, body, &updated)
	assert.Equal(t, "senior editor", updated.Name)
	assert.Equal(t, []string{models.PermViewRoles}, updated.Permissions)

	// Пустой список снимает все разрешения
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/roles/"+created.ID, superToken, map[string]interface{}{
		"permissions": []string{},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	updated = dto.RoleResponse{}
	helpers.DecodeData(t, body, &updated)
	assert.Empty(t, updated.Permissions)
	assert.Equal(t, "senior editor", updated.Name, "Имя не меняется, если не передано")

	// Удаление
	res, body = ts.SendRequest(t, http.MethodDelete, "/api/v1/roles/"+created.ID, superToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/roles/"+created.ID, superToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRoles_ProtectedRoles(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	superToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleSuperAdmin)

	super := findRoleByName(t, ts, superToken, models.RoleSuperAdmin)
	admin := findRoleByName(t, ts, superToken, models.RoleAdmin)

	t.Run("системную роль нельзя удалить", func(t *testing.T) {
		for _, id := range []string{super.ID, admin.ID} {
			res, body := ts.SendRequest(t, http.MethodDelete, "/api/v1/roles/"+id, superToken, nil)
			assert.Equal(t, http.StatusForbidden, res.StatusCode, body)
		}
	})

	t.Run("super-admin нельзя редактировать", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/roles/"+super.ID, superToken, map[string]interface{}{
			"permissions": []string{models.PermViewUsers},
		})
		assert.Equal(t, http.StatusForbidden, res.StatusCode, body)

		after := findRoleByName(t, ts, superToken, models.RoleSuperAdmin)
		assert.ElementsMatch(t, super.Permissions, after.Permissions)
	})

	t.Run("системную роль нельзя переименовать", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/roles/"+admin.ID, superToken, map[string]interface{}{
			"name": "administrator",
		})
		assert.Equal(t, http.StatusForbidden, res.StatusCode, body)
	})

	t.Run("набор admin можно менять", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/roles/"+admin.ID, superToken, map[string]interface{}{
			"name":        models.RoleAdmin,
			"permissions": []string{models.PermViewUsers},
		})
		require.Equal(t, http.StatusOK, res.StatusCode, body)
	})
}

func TestRoles_ValidationErrors(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	superToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleSuperAdmin)

	t.Run("неизвестное разрешение", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/roles", superToken, map[string]interface{}{
			"name":        "auditor",
			"permissions": []string{models.PermViewUsers, "launch rockets"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode, body)
		env := helpers.DecodeEnvelope(t, body)
		assert.Equal(t, "UNKNOWN_PERMISSION", env.Code)
		assert.Contains(t, env.Errors, "permissions")

		var count int64
		ts.DB.Model(&models.Role{}).Where("name = ?", "auditor").Count(&count)
		assert.Zero(t, count, "Роль не создается, если разрешение неизвестно")
	})

	t.Run("дубликат имени", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/roles", superToken, map[string]interface{}{
			"name": models.RoleAdmin,
		})
		require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode, body)
		assert.Equal(t, "DUPLICATE_NAME", helpers.DecodeEnvelope(t, body).Code)
	})

	t.Run("недопустимое имя", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/roles", superToken, map[string]interface{}{
			"name": "Bad_Name!",
		})
		require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode, body)
		assert.Contains(t, helpers.DecodeEnvelope(t, body).Errors, "name")
	})
}

func TestRoles_PermissionChangeIsVisibleImmediately(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	superToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleSuperAdmin)
	adminToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleAdmin)

	// Прогреваем кеш разрешений admin
	res, _ := ts.SendRequest(t, http.MethodGet, "/api/v1/user", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	admin := findRoleByName(t, ts, superToken, models.RoleAdmin)
	res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/roles/"+admin.ID, superToken, map[string]interface{}{
		"permissions": []string{models.PermViewOwnProfile},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/user", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, "Отозванное разрешение не должно действовать из кеша")
}

func TestRoles_Capabilities(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	userToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleUser)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/roles/capabilities", userToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var caps []auth.RoleCapability
	helpers.DecodeData(t, body, &caps)
	require.Len(t, caps, 3)
	assert.Equal(t, models.RoleSuperAdmin, caps[0].Name)

	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/roles/capabilities", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
