package apperrors

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Response - общий конверт ответа API
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Code       ErrorCode   `json:"code,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
	RetryAfter int         `json:"retry_after,omitempty"`
}

// GinErrorHandler - обработчик ошибок для Gin
type GinErrorHandler struct {
	Debug bool
}

// HandleGinError пишет ошибку в формате конверта и прерывает цепочку
func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	resp := Response{
		Success: false,
		Message: appErr.Message,
		Data:    nil,
		Code:    appErr.Code,
		Errors:  appErr.Details,
	}

	if appErr.HTTPCode >= http.StatusInternalServerError {
		// Детали 5xx не уходят клиенту
		resp.Message = "Internal server error"
		resp.Errors = nil
		if h.Debug && appErr.Err != nil {
			resp.Errors = appErr.Err.Error()
		}
	}

	if appErr.Code == CodeRateLimited {
		resp.RetryAfter = appErr.RetryAfter
		c.Header("Retry-After", strconv.Itoa(appErr.RetryAfter))
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, resp)
}

var defaultHandler = &GinErrorHandler{}

// SetDebug включает вывод причин 5xx (server.debug / APP_DEBUG)
func SetDebug(debug bool) {
	defaultHandler = &GinErrorHandler{Debug: debug}
}

// HandleError - быстрая функция-помощник для Gin
func HandleError(c *gin.Context, err error) {
	defaultHandler.HandleGinError(c, err)
}

// AsAppError - пытается преобразовать error в *AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Success пишет успешный ответ в формате конверта
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}
