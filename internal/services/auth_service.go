package services

import (
	"errors"
	"time"

	"gatekeeper_backend/internal/auth"
	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/models"
	"gatekeeper_backend/internal/repositories"
	"gatekeeper_backend/internal/services/dto"
	"gatekeeper_backend/internal/storage"
	"gatekeeper_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Имя токена, выдаваемого при login/register
const defaultTokenName = "auth_token"

type AuthService interface {
	Register(db *gorm.DB, req *dto.RegisterRequest, meta RequestMeta) (*dto.AuthResponse, error)
	Login(db *gorm.DB, req *dto.LoginRequest, meta RequestMeta) (*dto.AuthResponse, error)
	Logout(db *gorm.DB, identity *auth.Identity, meta RequestMeta) error
	Me(db *gorm.DB, identity *auth.Identity) (*dto.UserResponse, error)
	ChangePassword(db *gorm.DB, identity *auth.Identity, req *dto.ChangePasswordRequest, meta RequestMeta) error

	// Authenticate разрешает bearer-токен в пользователя
	Authenticate(db *gorm.DB, bearer string) (*auth.Identity, error)
	// Permissions - объединение разрешений всех ролей пользователя (через кеш)
	Permissions(db *gorm.DB, userID string) (auth.PermissionSet, error)
}

type AuthServiceImpl struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	roleRepo    repositories.RoleRepository
	tokenRepo   repositories.TokenRepository
	issuer      *auth.TokenIssuer
	cache       *auth.PermissionCache
	storage     storage.Storage
	activity    ActivityService
	now         func() time.Time
}

func NewAuthService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	roleRepo repositories.RoleRepository,
	tokenRepo repositories.TokenRepository,
	issuer *auth.TokenIssuer,
	cache *auth.PermissionCache,
	storage storage.Storage,
	activity ActivityService,
) AuthService {
	return &AuthServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		roleRepo:    roleRepo,
		tokenRepo:   tokenRepo,
		issuer:      issuer,
		cache:       cache,
		storage:     storage,
		activity:    activity,
		now:         time.Now,
	}
}

// Register - пользователь, роль user, пустой профиль и токен в одной транзакции
func (s *AuthServiceImpl) Register(db *gorm.DB, req *dto.RegisterRequest, meta RequestMeta) (*dto.AuthResponse, error) {
	taken, err := s.userRepo.EmailTaken(db, req.Email, "")
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if taken {
		return nil, apperrors.ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(tx, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.InternalError(err)
	}

	role, err := s.roleRepo.FindByName(tx, models.RoleUser)
	if err != nil {
		// Роль создается сидером; без нее регистрация невозможна
		return nil, apperrors.InternalError(err)
	}
	if err := s.roleRepo.SyncUserRoles(tx, user.ID, []string{role.ID}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.profileRepo.Create(tx, &models.Profile{UserID: user.ID}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	token, err := s.issueToken(tx, user.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.cache.Invalidate()
	s.activity.Record(db, ActivityEvent{
		ActorID:     user.ID,
		Action:      ActionRegister,
		Model:       "user",
		ModelID:     user.ID,
		Description: "User registered",
		Meta:        meta,
	})

	userResp, err := loadUserResponse(db, s.userRepo, s.storage, user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   auth.TokenType,
		User:        userResp,
	}, nil
}

// Login - одинаковая ошибка для неизвестного email и неверного пароля
func (s *AuthServiceImpl) Login(db *gorm.DB, req *dto.LoginRequest, meta RequestMeta) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.issueToken(db, user.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.activity.Record(db, ActivityEvent{
		ActorID:     user.ID,
		Action:      ActionLogin,
		Model:       "user",
		ModelID:     user.ID,
		Description: "User logged in",
		Meta:        meta,
	})

	userResp, err := loadUserResponse(db, s.userRepo, s.storage, user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   auth.TokenType,
		User:        userResp,
	}, nil
}

// Logout отзывает только текущий токен
func (s *AuthServiceImpl) Logout(db *gorm.DB, identity *auth.Identity, meta RequestMeta) error {
	if identity == nil || identity.User == nil || identity.Token == nil {
		return apperrors.ErrUnauthenticated
	}

	if err := s.tokenRepo.DeleteByID(db, identity.Token.ID); err != nil {
		if !errors.Is(err, repositories.ErrTokenNotFound) {
			return apperrors.InternalError(err)
		}
	}

	s.activity.Record(db, ActivityEvent{
		ActorID:     identity.User.ID,
		Action:      ActionLogout,
		Model:       "user",
		ModelID:     identity.User.ID,
		Description: "User logged out",
		Meta:        meta,
	})
	return nil
}

func (s *AuthServiceImpl) Me(db *gorm.DB, identity *auth.Identity) (*dto.UserResponse, error) {
	if identity == nil || identity.User == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return loadUserResponse(db, s.userRepo, s.storage, identity.User.ID)
}

// ChangePassword не отзывает выданные токены
func (s *AuthServiceImpl) ChangePassword(db *gorm.DB, identity *auth.Identity, req *dto.ChangePasswordRequest, meta RequestMeta) error {
	if identity == nil || identity.User == nil {
		return apperrors.ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(db, identity.User.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUnauthenticated
		}
		return apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.UpdatePassword(db, user.ID, hash); err != nil {
		return apperrors.InternalError(err)
	}

	s.activity.Record(db, ActivityEvent{
		ActorID:     user.ID,
		Action:      ActionPasswordChanged,
		Model:       "user",
		ModelID:     user.ID,
		Description: "Password changed",
		Meta:        meta,
	})
	return nil
}

func (s *AuthServiceImpl) Authenticate(db *gorm.DB, bearer string) (*auth.Identity, error) {
	if bearer == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	claims, err := s.issuer.Parse(bearer)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	token, err := s.tokenRepo.FindByID(db, claims.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, apperrors.InternalError(err)
	}
	if token.UserID != claims.Subject || !auth.MatchesHash(bearer, token.TokenHash) {
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(db, token.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, apperrors.InternalError(err)
	}

	now := s.now()
	if err := s.tokenRepo.Touch(db, token.ID, now); err != nil {
		logger.CtxWarn(contextOf(db), "Failed to update token last_used_at", "token_id", token.ID, "error", err.Error())
	} else {
		token.LastUsedAt = &now
	}

	return &auth.Identity{User: user, Token: token}, nil
}

func (s *AuthServiceImpl) Permissions(db *gorm.DB, userID string) (auth.PermissionSet, error) {
	set, err := s.cache.Get(userID, func(id string) ([]string, error) {
		return s.roleRepo.PermissionNamesForUser(db, id)
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return set, nil
}

// issueToken создает строку personal_access_tokens и возвращает bearer-строку
func (s *AuthServiceImpl) issueToken(db *gorm.DB, userID string) (string, error) {
	token := &models.PersonalAccessToken{UserID: userID, Name: defaultTokenName}
	token.ID = uuid.NewString()

	raw, hash, err := s.issuer.Issue(token.ID, userID)
	if err != nil {
		return "", err
	}
	token.TokenHash = hash

	if err := s.tokenRepo.Create(db, token); err != nil {
		return "", err
	}
	return raw, nil
}
