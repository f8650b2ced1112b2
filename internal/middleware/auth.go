package middleware

import (
	"strings"

	"gatekeeper_backend/internal/auth"
	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/metrics"
	"gatekeeper_backend/internal/services"
	"gatekeeper_backend/pkg/apperrors"
	"gatekeeper_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Gate - аутентификация bearer-токена и проверка разрешений маршрута
type Gate struct {
	authService services.AuthService
	metrics     *metrics.Metrics
}

func NewGate(authService services.AuthService, m *metrics.Metrics) *Gate {
	return &Gate{authService: authService, metrics: m}
}

// Authenticate - 401, если заголовок отсутствует, поврежден или токен отозван
func (g *Gate) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			g.authFailure(c, "missing_token")
			return
		}

		identity, err := g.authService.Authenticate(dbFrom(c), token)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrUnauthenticated) {
				g.authFailure(c, "invalid_token")
				return
			}
			logger.CtxWithError(c.Request.Context(), "Token lookup failed", err)
			apperrors.HandleError(c, err)
			return
		}

		c.Set(string(contextkeys.UserContextKey), identity)
		c.Set(string(contextkeys.TokenContextKey), identity.Token)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), identity.User.ID))
		c.Next()
	}
}

// Require - нужны все перечисленные разрешения
func (g *Gate) Require(permissions ...string) gin.HandlerFunc {
	return g.check(func(set auth.PermissionSet) bool {
		return set.HasAll(permissions...)
	}, permissions)
}

// RequireAny - достаточно одного из разрешений
func (g *Gate) RequireAny(permissions ...string) gin.HandlerFunc {
	return g.check(func(set auth.PermissionSet) bool {
		return set.HasAny(permissions...)
	}, permissions)
}

func (g *Gate) check(allowed func(auth.PermissionSet) bool, permissions []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.authorize(c, allowed, permissions, apperrors.ErrForbidden) {
			return
		}
		c.Next()
	}
}

// Authorize - проверка внутри обработчика, когда разрешение зависит от тела запроса.
// При отказе пишет 403 и возвращает false.
func (g *Gate) Authorize(c *gin.Context, message string, permissions ...string) bool {
	return g.authorize(c, func(set auth.PermissionSet) bool {
		return set.HasAll(permissions...)
	}, permissions, apperrors.NewForbiddenError(message))
}

func (g *Gate) authorize(c *gin.Context, allowed func(auth.PermissionSet) bool, permissions []string, denied error) bool {
	identity := GetIdentity(c)
	if identity == nil {
		g.authFailure(c, "no_identity")
		return false
	}

	set, err := g.authService.Permissions(dbFrom(c), identity.User.ID)
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "Failed to resolve permissions", err)
		apperrors.HandleError(c, err)
		return false
	}

	if !allowed(set) {
		logger.CtxWarn(c.Request.Context(), "Permission denied",
			"required", permissions,
			"path", c.Request.URL.Path,
		)
		if g.metrics != nil {
			g.metrics.PermissionDenials.WithLabelValues(c.FullPath()).Inc()
		}
		apperrors.HandleError(c, denied)
		return false
	}
	return true
}

func (g *Gate) authFailure(c *gin.Context, reason string) {
	if g.metrics != nil {
		g.metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	}
	apperrors.HandleError(c, apperrors.ErrUnauthenticated)
}

// GetIdentity - вызывающий, установленный Authenticate
func GetIdentity(c *gin.Context) *auth.Identity {
	val, ok := c.Get(string(contextkeys.UserContextKey))
	if !ok {
		return nil
	}
	identity, ok := val.(*auth.Identity)
	if !ok || identity == nil || identity.User == nil {
		return nil
	}
	return identity
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	return GetIdentity(c).UserID()
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func dbFrom(c *gin.Context) *gorm.DB {
	if val, ok := c.Get(string(contextkeys.DBContextKey)); ok {
		if db, ok := val.(*gorm.DB); ok {
			return db
		}
	}
	panic("critical error: DBMiddleware did not set the db key")
}
