package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *GinErrorHandler, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h.HandleGinError(c, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestIs_ComparesByCode(t *testing.T) {
	withDetails := ErrForbidden.WithMessage("nope")
	assert.True(t, Is(withDetails, ErrForbidden))
	assert.True(t, Is(fmt.Errorf("wrapped: %w", withDetails), ErrForbidden))
	assert.False(t, Is(withDetails, ErrUnauthenticated))

	cause := errors.New("db gone")
	internal := InternalError(cause)
	assert.ErrorIs(t, internal, cause)
}

func TestHandleGinError_Envelope(t *testing.T) {
	h := &GinErrorHandler{}

	testCases := []struct {
		name     string
		err      error
		status   int
		code     string
		errorsAt string
	}{
		{"валидация", FieldError("email", "bad"), http.StatusUnprocessableEntity, "VALIDATION_FAILED", "email"},
		{"дубликат email", ErrDuplicateEmail, http.StatusUnprocessableEntity, "DUPLICATE_EMAIL", "email"},
		{"аватар", ErrInvalidAvatar, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "avatar"},
		{"нет доступа", ErrForbidden, http.StatusForbidden, "FORBIDDEN", ""},
		{"не найдено", ErrRoleNotFound, http.StatusNotFound, "NOT_FOUND", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := serve(t, h, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.code, body["code"])
			assert.Contains(t, body, "data")
			if tc.errorsAt != "" {
				require.IsType(t, map[string]interface{}{}, body["errors"])
				assert.Contains(t, body["errors"], tc.errorsAt)
			}
		})
	}
}

func TestHandleGinError_HidesInternalDetails(t *testing.T) {
	cause := errors.New("pq: password authentication failed")

	w, body := serve(t, &GinErrorHandler{}, cause)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, body, "errors")

	_, body = serve(t, &GinErrorHandler{Debug: true}, cause)
	assert.Equal(t, cause.Error(), body["errors"])
}

func TestHandleGinError_RateLimited(t *testing.T) {
	w, body := serve(t, &GinErrorHandler{}, NewRateLimitedError(0))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"), "Минимум одна секунда")
	assert.Equal(t, float64(1), body["retry_after"])
}
