package handlers

import (
	"net/http"

	"gatekeeper_backend/internal/ratelimit"
	"gatekeeper_backend/internal/services"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

// RegisterRoutes регистрирует маршруты аутентификации
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.limiter.Limit(ratelimit.TierLogin), h.Login)
	rg.POST("/register", h.limiter.Limit(ratelimit.TierRegister), h.Register)

	authed := rg.Group("", h.gate.Authenticate())
	{
		authed.POST("/logout", h.limiter.Limit(ratelimit.TierAPI), h.Logout)
		authed.GET("/me", h.limiter.Limit(ratelimit.TierAPI), h.Me)
		authed.POST("/change-password", h.limiter.Limit(ratelimit.TierSensitive), h.ChangePassword)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.authService.Register(db, &req, h.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusCreated, "Registration successful.", response)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.authService.Login(db, &req, h.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Login successful.", response)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(h.GetDB(c), identity, h.RequestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Logged out successfully.", nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(h.GetDB(c), identity)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "User retrieved successfully.", user)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(h.GetDB(c), identity, &req, h.RequestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Password changed successfully.", nil)
}
