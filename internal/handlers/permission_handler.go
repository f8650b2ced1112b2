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

type PermissionHandler struct {
	*BaseHandler
	permissionService services.PermissionService
}

func NewPermissionHandler(base *BaseHandler, permissionService services.PermissionService) *PermissionHandler {
	return &PermissionHandler{
		BaseHandler:       base,
		permissionService: permissionService,
	}
}

func (h *PermissionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	perms := rg.Group("/permissions", h.gate.Authenticate(), h.limiter.Limit(ratelimit.TierAPI))
	{
		perms.GET("", h.gate.Require(models.PermViewPermissions), h.Index)
		perms.POST("", h.gate.Require(models.PermAssignPermissions), h.Create)
		perms.DELETE("/:id", h.gate.Require(models.PermAssignPermissions), h.Delete)
	}
}

func (h *PermissionHandler) Index(c *gin.Context) {
	perms, err := h.permissionService.List(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Permissions retrieved successfully.", perms)
}

func (h *PermissionHandler) Create(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreatePermissionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	perm, err := h.permissionService.Create(h.GetDB(c), identity.UserID(), &req, h.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusCreated, "Permission created successfully.", perm)
}

func (h *PermissionHandler) Delete(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	if err := h.permissionService.Delete(h.GetDB(c), identity.UserID(), c.Param("id"), h.RequestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Permission deleted successfully.", nil)
}
