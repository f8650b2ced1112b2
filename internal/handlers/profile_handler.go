package handlers

import (
	"errors"
	"io"
	"net/http"

	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/ratelimit"
	"gatekeeper_backend/internal/services"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const avatarField = "avatar"

type ProfileHandler struct {
	*BaseHandler
	profileService services.ProfileService
	maxAvatarSize  int64
}

func NewProfileHandler(base *BaseHandler, profileService services.ProfileService, maxAvatarSize int64) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    base,
		profileService: profileService,
		maxAvatarSize:  maxAvatarSize,
	}
}

func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	profile := rg.Group("/profile", h.gate.Authenticate())
	{
		profile.GET("", h.limiter.Limit(ratelimit.TierAPI), h.gate.Require(models.PermViewOwnProfile), h.GetProfile)
		profile.POST("", h.limiter.Limit(ratelimit.TierUploads), h.gate.Require(models.PermEditOwnProfile), h.UpdateProfile)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(h.GetDB(c), identity.User.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Profile retrieved successfully.", profile)
}

// UpdateProfile принимает multipart (с файлом avatar) или JSON
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	avatar, err := h.readAvatar(c)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	profile, err := h.profileService.UpdateProfile(h.GetDB(c), identity.User.ID, &req, avatar, h.RequestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	apperrors.Success(c, http.StatusOK, "Profile updated successfully.", profile)
}

// readAvatar - nil, если файл не передан
func (h *ProfileHandler) readAvatar(c *gin.Context) (*dto.AvatarUpload, error) {
	header, err := c.FormFile(avatarField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperrors.ErrInvalidAvatar.WithError(err)
	}

	if h.maxAvatarSize > 0 && header.Size > h.maxAvatarSize {
		return nil, apperrors.ErrInvalidAvatar
	}

	f, err := header.Open()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	defer f.Close()

	limit := h.maxAvatarSize
	if limit <= 0 {
		limit = 2 << 20
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if int64(len(data)) > limit {
		return nil, apperrors.ErrInvalidAvatar
	}

	return &dto.AvatarUpload{Filename: header.Filename, Data: data}, nil
}
