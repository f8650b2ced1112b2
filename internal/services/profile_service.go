package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gatekeeper_backend/internal/imageprocessor"
	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/repositories"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/internal/storage"
	"gatekeeper_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Префикс ключей аватаров в хранилище
const avatarDir = "avatars"

type ProfileService interface {
	GetProfile(db *gorm.DB, userID string) (*dto.ProfileResponse, error)
	UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest, avatar *dto.AvatarUpload, meta RequestMeta) (*dto.ProfileResponse, error)
	// EnsureProfiles создает пустые профили для пользователей без профиля
	EnsureProfiles(db *gorm.DB) (int, error)
}

type ProfileServiceImpl struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	storage     storage.Storage
	images      *imageprocessor.Processor
	activity    ActivityService
}

func NewProfileService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	storage storage.Storage,
	images *imageprocessor.Processor,
	activity ActivityService,
) ProfileService {
	return &ProfileServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		storage:     storage,
		images:      images,
		activity:    activity,
	}
}

// GetProfile - отсутствующий профиль дает пустые поля, а не ошибку
func (s *ProfileServiceImpl) GetProfile(db *gorm.DB, userID string) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	profile, err := s.profileRepo.FindByUserID(db, userID)
	if err != nil && !errors.Is(err, repositories.ErrProfileNotFound) {
		return nil, apperrors.InternalError(err)
	}

	return s.buildResponse(db, user, profile), nil
}

// UpdateProfile обновляет пользователя и профиль в одной транзакции.
// Новый аватар сначала сохраняется в хранилище; при откате он удаляется,
// старый файл удаляется только после коммита.
func (s *ProfileServiceImpl) UpdateProfile(
	db *gorm.DB,
	userID string,
	req *dto.UpdateProfileRequest,
	avatar *dto.AvatarUpload,
	meta RequestMeta,
) (*dto.ProfileResponse, error) {
	ctx := contextOf(db)

	var processed *imageprocessor.Result
	if avatar != nil {
		var err error
		processed, err = s.images.Process(avatar.Data)
		if err != nil {
			if errors.Is(err, imageprocessor.ErrNotAnImage) ||
				errors.Is(err, imageprocessor.ErrImageTooLarge) ||
				errors.Is(err, imageprocessor.ErrDecodeFailed) {
				return nil, apperrors.ErrInvalidAvatar.WithError(err)
			}
			return nil, apperrors.InternalError(err)
		}
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user, err := s.userRepo.FindByID(tx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	fields := map[string]interface{}{}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil && *req.Email != "" && !strings.EqualFold(*req.Email, user.Email) {
		taken, err := s.userRepo.EmailTaken(tx, *req.Email, userID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if taken {
			return nil, apperrors.ErrDuplicateEmail
		}
		fields["email"] = *req.Email
	}
	if err := s.userRepo.UpdateFields(tx, userID, fields); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.InternalError(err)
	}

	profile, err := s.profileRepo.FindByUserID(tx, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, apperrors.InternalError(err)
		}
		profile = &models.Profile{UserID: userID}
	}

	if req.Phone != nil {
		profile.Phone = req.Phone
	}
	if req.Address != nil {
		profile.Address = req.Address
	}
	if req.Bio != nil {
		profile.Bio = req.Bio
	}

	var oldAvatar, stagedAvatar string
	committed := false
	if processed != nil {
		stagedAvatar = fmt.Sprintf("%s/%s.%s", avatarDir, uuid.NewString(), processed.Extension)
		if err := s.storage.Save(ctx, stagedAvatar, bytes.NewReader(processed.Data), processed.ContentType); err != nil {
			return nil, apperrors.InternalError(err)
		}
		// Компенсация: транзакция не закоммитилась - убрать новый файл
		defer func() {
			if !committed {
				if delErr := s.storage.Delete(ctx, stagedAvatar); delErr != nil {
					logger.CtxWithError(ctx, "Failed to remove staged avatar", delErr, "path", stagedAvatar)
				}
			}
		}()

		if profile.Avatar != nil {
			oldAvatar = *profile.Avatar
		}
		profile.Avatar = strPtr(stagedAvatar)
	}

	if err := s.profileRepo.Save(tx, profile); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	committed = true

	if oldAvatar != "" && oldAvatar != stagedAvatar {
		if delErr := s.storage.Delete(ctx, oldAvatar); delErr != nil {
			logger.CtxWithError(ctx, "Failed to delete old avatar", delErr, "path", oldAvatar)
		}
	}

	s.activity.Record(db, ActivityEvent{
		ActorID:     userID,
		Action:      ActionProfileUpdated,
		Model:       "profile",
		ModelID:     profile.ID,
		Description: "Profile updated",
		Properties:  map[string]interface{}{"avatar_changed": processed != nil},
		Meta:        meta,
	})

	updated, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.buildResponse(db, updated, profile), nil
}

func (s *ProfileServiceImpl) EnsureProfiles(db *gorm.DB) (int, error) {
	users, err := s.userRepo.FindWithoutProfile(db)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}

	created := 0
	for _, u := range users {
		if err := s.profileRepo.Create(db, &models.Profile{UserID: u.ID}); err != nil {
			return created, apperrors.InternalError(err)
		}
		created++
	}
	return created, nil
}

func (s *ProfileServiceImpl) buildResponse(db *gorm.DB, user *models.User, profile *models.Profile) *dto.ProfileResponse {
	resp := &dto.ProfileResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
	if profile != nil {
		resp.Bio = profile.Bio
		resp.Phone = profile.Phone
		resp.Address = profile.Address
		resp.AvatarURL = avatarURL(contextOf(db), s.storage, profile.Avatar)
	}
	return resp
}
