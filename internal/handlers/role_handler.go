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

type RoleHandler struct {
	*BaseHandler
	roleService services.RoleService
}

func NewRoleHandler(base *BaseHandler, roleService services.RoleService) *RoleHandler {
	return &RoleHandler{
		BaseHandler: base,
		roleService: roleService,
	}
}

func (h *RoleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	roles := rg.Group("/roles", h.gate.Authenticate(), h.limiter.Limit(ratelimit.TierAPI))
	{
		roles.GET("", h.gate.Require(models.PermViewRoles), h.Index)
		roles.GET("/capabilities", h.Capabilities)
		roles.GET("/:id", h.gate.Require(models.PermViewRoles), h.Show)
		roles.POST("", h.gate.Require(models.PermCreateRoles), h.Create)
		roles.PUT("/:id", h.gate.Require(models.PermEditRoles), h.Update)
		roles.DELETE("/:id", h.gate.Require(models.PermDeleteRoles), h.Delete)
	}
}

func (h *RoleHandler) Index(c *gin.Context) {
	roles, err := h.roleService.List(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Roles retrieved successfully.", roles)
}

func (h *RoleHandler) Capabilities(c *gin.Context) {
	apperrors.Success(c, http.StatusOK, "Role capabilities retrieved successfully.", h.roleService.Capabilities())
}

func (h *RoleHandler) Show(c *gin.Context) {
	role, err := h.roleService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Role retrieved successfully.", role)
}

func (h *RoleHandler) Create(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateRoleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	role, err := h.roleService.Create(h.GetDB(c), identity.UserID(), &req, h.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusCreated, "Role created successfully.", role)
}

func (h *RoleHandler) Update(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	role, err := h.roleService.Update(h.GetDB(c), identity.UserID(), c.Param("id"), &req, h.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Role updated successfully.", role)
}

func (h *RoleHandler) Delete(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	if err := h.roleService.Delete(h.GetDB(c), identity.UserID(), c.Param("id"), h.RequestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Role deleted successfully.", nil)
}
