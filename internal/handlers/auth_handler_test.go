package handlers_test

import (
	"net/http"
	"testing"

	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterLoginFlow(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)

	// 1. Регистрация
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/register", "", map[string]string{
		"name":     "A",
		"email":    "a@x.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var registered dto.AuthResponse
	env := helpers.DecodeData(t, body, &registered)
	assert.True(t, env.Success)
	assert.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, "Bearer", registered.TokenType)
	require.NotNil(t, registered.User)
	require.Len(t, registered.User.Roles, 1)
	assert.Equal(t, models.RoleUser, registered.User.Roles[0].Name)
	require.NotNil(t, registered.User.Profile, "Профиль создается при регистрации")
	assert.Nil(t, registered.User.Profile.Phone)
	assert.Nil(t, registered.User.Profile.Bio)

	// 2. Неверный пароль
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", helpers.DecodeEnvelope(t, body).Code)

	// 3. Верный пароль
	token := helpers.Login(t, ts, "a@x.com", "secret123")

	// 4. Без "view users" список пользователей недоступен
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/user", token, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "FORBIDDEN", helpers.DecodeEnvelope(t, body).Code)
}

func TestAuth_LoginUnknownEmailSameError(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	helpers.CreateUser(t, ts, "Known", "known@test.com", models.RoleUser)

	_, wrongPassword := ts.SendRequest(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "known@test.com", "password": "not-the-password",
	})
	res, unknownEmail := ts.SendRequest(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "nobody@test.com", "password": "not-the-password",
	})

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, helpers.DecodeEnvelope(t, wrongPassword).Message, helpers.DecodeEnvelope(t, unknownEmail).Message,
		"Сообщение не должно раскрывать, существует ли email")
}

func TestAuth_RegisterValidation(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/register", "", map[string]string{
		"name":     "",
		"email":    "not-an-email",
		"password": "short",
	})

	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode, body)
	env := helpers.DecodeEnvelope(t, body)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_FAILED", env.Code)
	assert.Contains(t, env.Errors, "name")
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "password")
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	helpers.CreateUser(t, ts, "Taken", "taken@test.com", models.RoleUser)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/register", "", map[string]string{
		"name":     "Other",
		"email":    "taken@test.com",
		"password": "password123",
	})

	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode, body)
	env := helpers.DecodeEnvelope(t, body)
	assert.Equal(t, "DUPLICATE_EMAIL", env.Code)
	assert.Contains(t, env.Errors, "email")

	var count int64
	ts.DB.Model(&models.User{}).Where("email = ?", "taken@test.com").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAuth_MeAndLogout(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	token, user := helpers.CreateAndLoginUser(t, ts, models.RoleAdmin)

	// me возвращает того же пользователя
	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var me dto.UserResponse
	helpers.DecodeData(t, body, &me)
	assert.Equal(t, user.ID, me.ID)
	assert.Contains(t, me.Permissions, models.PermViewUsers)

	// Второй токен того же пользователя
	other := helpers.Login(t, ts, user.Email, helpers.DefaultPassword)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/logout", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// Отозванный токен больше не принимается
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// Остальные токены продолжают работать
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/me", other, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestAuth_Unauthenticated(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)

	testCases := []struct {
		name  string
		token string
	}{
		{"без токена", ""},
		{"мусор вместо токена", "garbage"},
		{"подделанная подпись", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiJ4In0.invalid"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/me", tc.token, nil)
			assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
			env := helpers.DecodeEnvelope(t, body)
			assert.False(t, env.Success)
			assert.Equal(t, "UNAUTHENTICATED", env.Code)
		})
	}
}

func TestAuth_ChangePassword(t *testing.T) {
	t.Parallel()
	ts := helpers.NewTestServer(t)
	token, user := helpers.CreateAndLoginUser(t, ts, models.RoleUser)

	// Неверный текущий пароль
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/change-password", token, map[string]string{
		"current_password": "wrong-password",
		"new_password":     "brand-new-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", helpers.DecodeEnvelope(t, body).Code)

	// Успешная смена
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/change-password", token, map[string]string{
		"current_password": helpers.DefaultPassword,
		"new_password":     "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// Текущий токен остается действительным
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// Старый пароль больше не подходит, новый подходит
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": user.Email, "password": helpers.DefaultPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	helpers.Login(t, ts, user.Email, "brand-new-pass")
}
