package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// Pinger - внешняя зависимость с проверкой доступности
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	*BaseHandler
	sqlDB *sql.DB
	redis Pinger
}

// NewHealthHandler; redis может быть nil
func NewHealthHandler(base *BaseHandler, sqlDB *sql.DB, redis Pinger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: base,
		sqlDB:       sqlDB,
		redis:       redis,
	}
}

func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.limiter.Limit(ratelimit.TierPublic), h.Health)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Time   time.Time         `json:"time"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: map[string]string{}, Time: time.Now().UTC()}
	status := http.StatusOK

	if err := h.sqlDB.PingContext(ctx); err != nil {
		logger.CtxWithError(ctx, "Health check: database unavailable", err)
		resp.Checks["database"] = "unavailable"
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	} else {
		resp.Checks["database"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			logger.CtxWithError(ctx, "Health check: redis unavailable", err)
			resp.Checks["redis"] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["redis"] = "ok"
		}
	}

	c.JSON(status, resp)
}
