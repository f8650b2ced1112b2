package handlers

import (
	"net/http"

	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/ratelimit"
	"gatekeeper_backend/internal/services"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	*BaseHandler
	activityService services.ActivityService
}

func NewActivityHandler(base *BaseHandler, activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		BaseHandler:     base,
		activityService: activityService,
	}
}

func (h *ActivityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/activity-logs",
		h.gate.Authenticate(),
		h.limiter.Limit(ratelimit.TierAPI),
		h.gate.Require(models.PermViewUsers),
		h.Index,
	)
}

func (h *ActivityHandler) Index(c *gin.Context) {
	var query dto.ActivityLogQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	page, err := h.activityService.List(h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Activity logs retrieved successfully.", page)
}
