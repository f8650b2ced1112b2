package helpers

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"gatekeeper_backend/internal/services"
	"gatekeeper_backend/internal/services/dto"

	"github.com/stretchr/testify/require"
)

// DefaultPassword - пароль пользователей, созданных хелперами
const DefaultPassword = "password123"

var emailCounter int64

// UniqueEmail возвращает email, не повторяющийся в рамках прогона
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.com", prefix, atomic.AddInt64(&emailCounter, 1))
}

// CreateUser создает пользователя с ролью через сервис (профиль создается тоже)
func CreateUser(t *testing.T, ts *TestServer, name, email, role string) *dto.UserResponse {
	t.Helper()

	user, err := ts.Services.UserService.Create(ts.DB, "", &dto.CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: DefaultPassword,
		Role:     role,
	}, services.RequestMeta{IP: "127.0.0.1", UserAgent: "test"})
	require.NoError(t, err, "Создание тестового пользователя не должно вызывать ошибку")
	return user
}

// Login логинит через API и возвращает bearer-токен
func Login(t *testing.T, ts *TestServer, email, password string) string {
	t.Helper()

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "Логин должен быть успешным. Ответ: "+body)

	var auth dto.AuthResponse
	DecodeData(t, body, &auth)
	require.NotEmpty(t, auth.AccessToken, "Токен не должен быть пустым")
	return auth.AccessToken
}

// CreateAndLoginUser создает пользователя с ролью и логинит его
func CreateAndLoginUser(t *testing.T, ts *TestServer, role string) (string, *dto.UserResponse) {
	t.Helper()

	email := UniqueEmail(role)
	user := CreateUser(t, ts, "Test "+role, email, role)
	token := Login(t, ts, email, DefaultPassword)
	return token, user
}
