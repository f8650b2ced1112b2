package handlers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/services"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers_PaginatedShape(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	adminToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleAdmin)

	// 1. Подготовка (Arrange): админ + 11 пользователей = 12 записей
	for i := 0; i < 11; i++ {
		helpers.CreateUser(t, ts, fmt.Sprintf("Member %d", i), helpers.UniqueEmail("member"), models.RoleUser)
	}

	// 2. Действие (Act)
	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/user/all/paginated?page=2&per_page=5", adminToken, nil)

	// 3. Проверка (Assert)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var page dto.Paginated[dto.UserResponse]
	helpers.DecodeData(t, body, &page)

	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 5, page.PerPage)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 3, page.LastPage)
	assert.Len(t, page.Data, 5)
	require.NotNil(t, page.From)
	require.NotNil(t, page.To)
	assert.Equal(t, 6, *page.From)
	assert.Equal(t, 10, *page.To)
}

func TestUsers_PaginatedSearch(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	adminToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleAdmin)
	helpers.CreateUser(t, ts, "Zelda Finder", "zelda@test.com", models.RoleUser)
	helpers.CreateUser(t, ts, "Someone Else", "else@test.com", models.RoleUser)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/user/all/paginated?search=zelda", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var page dto.Paginated[dto.UserResponse]
	helpers.DecodeData(t, body, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "zelda@test.com", page.Data[0].Email)

	// Пустой результат: from/to = null
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/user/all/paginated?search=nothing-matches", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	page = dto.Paginated[dto.UserResponse]{}
	helpers.DecodeData(t, body, &page)
	assert.Empty(t, page.Data)
	assert.Nil(t, page.From)
	assert.Nil(t, page.To)
	assert.Equal(t, 1, page.LastPage)
}

func TestUsers_Index(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	adminToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleAdmin)
	helpers.CreateUser(t, ts, "Second", helpers.UniqueEmail("second"), models.RoleUser)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/user", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var users []dto.UserResponse
	helpers.DecodeData(t, body, &users)
	assert.Len(t, users, 2)
}

func TestUsers_CreateWithRole(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	adminToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleAdmin)
	superToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleSuperAdmin)

	t.Run("роль по умолчанию", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/user", adminToken, map[string]string{
			"name": "Plain", "email": "plain@test.com", "password": "password123",
		})
		require.Equal(t, http.StatusCreated, res.StatusCode, body)

		var user dto.UserResponse
		helpers.DecodeData(t, body, &user)
		require.Len(t, user.Roles, 1)
		assert.Equal(t, models.RoleUser, user.Roles[0].Name)
		assert.NotNil(t, user.Profile)
	})

	t.Run("явная роль", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/user", superToken, map[string]string{
			"name": "Boss", "email": "boss@test.com", "password": "password123", "role": models.RoleAdmin,
		})
		require.Equal(t, http.StatusCreated, res.StatusCode, body)

		var user dto.UserResponse
		helpers.DecodeData(t, body, &user)
		require.Len(t, user.Roles, 1)
		assert.Equal(t, models.RoleAdmin, user.Roles[0].Name)
	})

	t.Run("несуществующая роль", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/user", superToken, map[string]string{
			"name": "Ghost", "email": "ghost@test.com", "password": "password123", "role": "no-such-role",
		})
		require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode, body)
		assert.Contains(t, helpers.DecodeEnvelope(t, body).Errors, "role")

		var count int64
		ts.DB.Model(&models.User{}).Where("email = ?", "ghost@test.com").Count(&count)
		assert.Zero(t, count, "Пользователь не должен создаваться при ошибке роли")
	})
}

func TestUsers_UpdateReplacesRole(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	superToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleSuperAdmin)
	userToken, target := helpers.CreateAndLoginUser(t, ts, models.RoleUser)

	// До смены роли пользователь не видит список
	res, _ := ts.SendRequest(t, http.MethodGet, "/api/v1/user", userToken, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/user/"+target.ID, superToken, map[string]string{
		"name": "Promoted",
		"role": models.RoleAdmin,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var updated dto.UserResponse
	helpers.DecodeData(t, body, &updated)
	assert.Equal(t, "Promoted", updated.Name)
	require.Len(t, updated.Roles, 1, "Роль заменяется, а не добавляется")
	assert.Equal(t, models.RoleAdmin, updated.Roles[0].Name)

	// Новые разрешения действуют сразу, кеш сброшен
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/user", userToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestUsers_RoleAssignmentRequiresPermission(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	adminToken, admin := helpers.CreateAndLoginUser(t, ts, models.RoleAdmin)
	superToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleSuperAdmin)
	target := helpers.CreateUser(t, ts, "Target", helpers.UniqueEmail("target"), models.RoleUser)

	// 1. Админ не может повысить себя
	res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/user/"+admin.ID, adminToken, map[string]string{
		"role": models.RoleSuperAdmin,
	})
	require.Equal(t, http.StatusForbidden, res.StatusCode, body)
	assert.Equal(t, "FORBIDDEN", helpers.DecodeEnvelope(t, body).Code)

	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/roles", adminToken, map[string]string{"name": "escalated"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode, "Роль админа не изменилась")

	// 2. ...и не может назначить роль при создании
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/user", adminToken, map[string]string{
		"name": "Sneaky", "email": "sneaky@test.com", "password": "password123", "role": models.RoleSuperAdmin,
	})
	require.Equal(t, http.StatusForbidden, res.StatusCode, body)
	var count int64
	ts.DB.Model(&models.User{}).Where("email = ?", "sneaky@test.com").Count(&count)
	assert.Zero(t, count)

	// 3. Без поля role админ по-прежнему редактирует пользователей
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/user/"+target.ID, adminToken, map[string]string{
		"name": "Renamed",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// 4. super-admin назначает роли
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/user/"+target.ID, superToken, map[string]string{
		"role": models.RoleAdmin,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var updated dto.UserResponse
	helpers.DecodeData(t, body, &updated)
	require.Len(t, updated.Roles, 1)
	assert.Equal(t, models.RoleAdmin, updated.Roles[0].Name)

	// В журнале остается прежний набор ролей
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/activity-logs?action="+services.ActionUserUpdated, superToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var page dto.Paginated[dto.ActivityLogResponse]
	helpers.DecodeData(t, body, &page)
	var roleChange string
	for _, e := range page.Data {
		if e.ModelID != nil && *e.ModelID == target.ID && strings.Contains(string(e.Properties), "previous_roles") {
			roleChange = string(e.Properties)
		}
	}
	require.NotEmpty(t, roleChange)
	assert.JSONEq(t, `{"fields":[],"previous_roles":["user"],"role":"admin","role_changed":true}`, roleChange)
}

func TestUsers_UpdateKeepsPasswordWhenEmpty(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	adminToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleAdmin)
	target := helpers.CreateUser(t, ts, "Keep", "keep@test.com", models.RoleUser)

	res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/user/"+target.ID, adminToken, map[string]string{
		"name":     "Kept",
		"password": "",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	helpers.Login(t, ts, "keep@test.com", helpers.DefaultPassword)
}

func TestUsers_DeleteIsHard(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	superToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleSuperAdmin)
	victimToken, victim := helpers.CreateAndLoginUser(t, ts, models.RoleUser)

	res, body := ts.SendRequest(t, http.MethodDelete, "/api/v1/user/"+victim.ID, superToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var users, profiles, tokens, links int64
	ts.DB.Model(&models.User{}).Where("id = ?", victim.ID).Count(&users)
	ts.DB.Model(&models.Profile{}).Where("user_id = ?", victim.ID).Count(&profiles)
	ts.DB.Model(&models.PersonalAccessToken{}).Where("user_id = ?", victim.ID).Count(&tokens)
	ts.DB.Model(&models.UserRole{}).Where("user_id = ?", victim.ID).Count(&links)
	assert.Zero(t, users)
	assert.Zero(t, profiles)
	assert.Zero(t, tokens)
	assert.Zero(t, links)

	// Токен удаленного пользователя не работает
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/me", victimToken, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// Повторное удаление - 404
	res, _ = ts.SendRequest(t, http.MethodDelete, "/api/v1/user/"+victim.ID, superToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUsers_ShowNotFound(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	adminToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleAdmin)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/user/00000000-0000-0000-0000-000000000000", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "NOT_FOUND", helpers.DecodeEnvelope(t, body).Code)
}

func TestUsers_UpdatePassword(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	adminToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleAdmin)
	target := helpers.CreateUser(t, ts, "Target", "target@test.com", models.RoleUser)
	path := "/api/v1/user/" + target.ID + "/update-password"

	res, body := ts.SendRequest(t, http.MethodPut, path, adminToken, map[string]string{
		"current_password": "wrong-password",
		"password":         "another-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPut, path, adminToken, map[string]string{
		"current_password":      helpers.DefaultPassword,
		"password":              "another-pass",
		"password_confirmation": "mismatch-pass",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPut, path, adminToken, map[string]string{
		"current_password":      helpers.DefaultPassword,
		"password":              "another-pass",
		"password_confirmation": "another-pass",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	helpers.Login(t, ts, "target@test.com", "another-pass")
}

func TestUsers_PermissionMatrix(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	userToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleUser)
	adminToken, _ := helpers.CreateAndLoginUser(t, ts, models.RoleAdmin)

	testCases := []struct {
		name   string
		token  string
		method string
		path   string
		status int
	}{
		{"user не видит список", userToken, http.MethodGet, "/api/v1/user", http.StatusForbidden},
		{"user не создает", userToken, http.MethodPost, "/api/v1/user", http.StatusForbidden},
		{"admin не видит роли", adminToken, http.MethodGet, "/api/v1/roles", http.StatusForbidden},
		{"admin не видит разрешения", adminToken, http.MethodGet, "/api/v1/permissions", http.StatusForbidden},
		{"admin видит список", adminToken, http.MethodGet, "/api/v1/user", http.StatusOK},
		{"без токена", "", http.MethodGet, "/api/v1/user", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			res, body := ts.SendRequest(t, tc.method, tc.path, tc.token, nil)
			assert.Equal(t, tc.status, res.StatusCode, body)
		})
	}
}
