package services

import (
	"context"
	"errors"

	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/repositories"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/internal/storage"
	"gatekeeper_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// RequestMeta - данные запроса для журнала активности
type RequestMeta struct {
	IP        string
	UserAgent string
}

// contextOf достает context запроса из db (DBMiddleware делает WithContext)
func contextOf(db *gorm.DB) context.Context {
	if db != nil && db.Statement != nil && db.Statement.Context != nil {
		return db.Statement.Context
	}
	return context.Background()
}

// avatarURL возвращает публичный URL аватара или nil
func avatarURL(ctx context.Context, store storage.Storage, path *string) *string {
	if path == nil || *path == "" || store == nil {
		return nil
	}
	url, err := store.GetURL(ctx, *path)
	if err != nil {
		return nil
	}
	return &url
}

func strPtr(s string) *string {
	return &s
}

// loadUserResponse загружает пользователя с профилем и ролями и собирает ответ
func loadUserResponse(db *gorm.DB, userRepo repositories.UserRepository, store storage.Storage, userID string) (*dto.UserResponse, error) {
	user, err := userRepo.FindByIDWithRelations(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return toUserResponse(contextOf(db), store, user), nil
}

func toUserResponse(ctx context.Context, store storage.Storage, user *models.User) *dto.UserResponse {
	var url *string
	if user.Profile != nil {
		url = avatarURL(ctx, store, user.Profile.Avatar)
	}
	return dto.NewUserResponse(user, url)
}
