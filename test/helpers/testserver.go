package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"gatekeeper_backend/internal/app"
	"gatekeeper_backend/internal/config"
	"gatekeeper_backend/internal/database"
	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/services"

	"gorm.io/gorm"
)

var (
	dbCounter int64
	initOnce  sync.Once
)

// TestServer - httptest-сервер поверх отдельной in-memory sqlite
type TestServer struct {
	Server   *httptest.Server
	DB       *gorm.DB
	Config   *config.Config
	Services *services.ServiceContainer
}

// Envelope - конверт ответа API
type Envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       json.RawMessage     `json:"data"`
	Code       string              `json:"code"`
	Errors     map[string][]string `json:"errors"`
	RetryAfter int                 `json:"retry_after"`
}

// NewTestServer создает сервер с засеянными ролями и разрешениями.
// opts могут поменять конфиг до сборки роутера.
func NewTestServer(t *testing.T, opts ...func(*config.Config)) *TestServer {
	t.Helper()
	initOnce.Do(func() { logger.Init("test") })

	cfg := config.NewDefault()
	cfg.Server.Env = "test"
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.DSN = database.SQLiteMemoryDSN(fmt.Sprintf("gatekeeper_test_%d", atomic.AddInt64(&dbCounter, 1)))
	cfg.JWT.Secret = "test-secret-with-enough-length-0123456789"
	cfg.Storage.BasePath = t.TempDir()
	for _, opt := range opts {
		opt(cfg)
	}

	db, sqlDB, err := app.OpenDatabase(cfg)
	if err != nil {
		t.Fatalf("Не удалось открыть тестовую БД: %v", err)
	}

	svc, err := app.BuildServices(cfg)
	if err != nil {
		t.Fatalf("Не удалось собрать сервисы: %v", err)
	}

	if err := app.Seed(db, cfg, svc); err != nil {
		t.Fatalf("Не удалось выполнить сидирование: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	router := app.SetupRouter(ctx, cfg, db, sqlDB, svc)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		cancel()
		sqlDB.Close()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Config:   cfg,
		Services: svc,
	}
}

// SendRequest отправляет JSON-запрос и возвращает ответ с телом
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Ошибка кодирования JSON для запроса: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return ts.do(t, req)
}

// SendMultipart отправляет multipart/form-data; file может быть nil
func (ts *TestServer) SendMultipart(t *testing.T, path, token string, fields map[string]string, fileField, filename string, file []byte) (*http.Response, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Ошибка записи поля формы: %v", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("Ошибка создания файла формы: %v", err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatalf("Ошибка записи файла формы: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Ошибка закрытия формы: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+path, &buf)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return ts.do(t, req)
}

func (ts *TestServer) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("Ошибка отправки HTTP-запроса: %v", err)
	}
	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Ошибка чтения тела ответа: %v", err)
	}

	return res, string(resBodyBytes)
}

// DecodeEnvelope разбирает конверт; data можно дочитать через DecodeData
func DecodeEnvelope(t *testing.T, body string) Envelope {
	t.Helper()

	var env Envelope
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&env); err != nil {
		t.Fatalf("Не удалось распарсить конверт ответа: %v (тело: %s)", err, body)
	}
	return env
}

// DecodeData разбирает поле data конверта в out
func DecodeData(t *testing.T, body string, out interface{}) Envelope {
	t.Helper()

	env := DecodeEnvelope(t, body)
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("Не удалось распарсить data: %v (тело: %s)", err, body)
	}
	return env
}
