package handlers

import (
	"net/http"
	"strings"

	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/ratelimit"
	"gatekeeper_backend/internal/services"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const assignRolesDenied = "You are not allowed to assign roles."

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	api := h.limiter.Limit(ratelimit.TierAPI)
	sensitive := h.limiter.Limit(ratelimit.TierSensitive)

	users := rg.Group("/user", h.gate.Authenticate())
	{
		users.GET("", api, h.gate.Require(models.PermViewUsers), h.Index)
		users.GET("/all/paginated", api, h.gate.Require(models.PermViewUsers), h.Paginated)
		users.POST("", api, h.gate.Require(models.PermCreateUsers), h.Create)
		users.GET("/:id", api, h.gate.Require(models.PermViewUsers), h.Show)
		users.PUT("/:id", api, h.gate.Require(models.PermEditUsers), h.Update)
		users.DELETE("/:id", sensitive, h.gate.Require(models.PermDeleteUsers), h.Delete)
		users.PUT("/:id/update-password", sensitive, h.gate.Require(models.PermEditUsers), h.UpdatePassword)
	}
}

func (h *UserHandler) Index(c *gin.Context) {
	var query dto.UserListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	users, err := h.userService.All(h.GetDB(c), query.Search)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Users retrieved successfully.", users)
}

func (h *UserHandler) Paginated(c *gin.Context) {
	var query dto.UserListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	page, err := h.userService.List(h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Users retrieved successfully.", page)
}

func (h *UserHandler) Show(c *gin.Context) {
	user, err := h.userService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "User retrieved successfully.", user)
}

func (h *UserHandler) Create(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Role) != "" && !h.gate.Authorize(c, assignRolesDenied, models.PermAssignRoles) {
		return
	}

	user, err := h.userService.Create(h.GetDB(c), identity.UserID(), &req, h.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusCreated, "User created successfully.", user)
}

func (h *UserHandler) Update(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	if req.Role != nil && strings.TrimSpace(*req.Role) != "" && !h.gate.Authorize(c, assignRolesDenied, models.PermAssignRoles) {
		return
	}

	user, err := h.userService.Update(h.GetDB(c), identity.UserID(), c.Param("id"), &req, h.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "User updated successfully.", user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(h.GetDB(c), identity.UserID(), c.Param("id"), h.RequestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "User deleted successfully.", nil)
}

func (h *UserHandler) UpdatePassword(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdatePasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.userService.UpdatePassword(h.GetDB(c), identity.UserID(), c.Param("id"), &req, h.RequestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Password updated successfully.", nil)
}
