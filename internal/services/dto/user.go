package dto

import (
	"time"

	"gatekeeper_backend/internal/models"
)

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password"`
	// Пусто - базовая роль
	Role string `json:"role" validate:"omitempty,max=255"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=255"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
	// Пустой пароль не меняет хеш
	Password string  `json:"password" validate:"omitempty,password"`
	Role     *string `json:"role" validate:"omitempty,max=255"`
}

type UpdatePasswordRequest struct {
	CurrentPassword      string `json:"current_password" validate:"required"`
	Password             string `json:"password" validate:"required,password"`
	PasswordConfirmation string `json:"password_confirmation" validate:"omitempty,eqfield=Password"`
}

type UserListQuery struct {
	Search  string `form:"search" validate:"omitempty,max=255"`
	Page    int    `form:"page" validate:"omitempty,min=1"`
	PerPage int    `form:"per_page" validate:"omitempty,min=1,max=100"`
}

type PermissionRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoleRef struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Permissions []PermissionRef `json:"permissions"`
}

type ProfileResource struct {
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Bio       *string `json:"bio"`
	Avatar    *string `json:"avatar"`
	AvatarURL *string `json:"avatar_url"`
}

// UserResponse - пользователь с ролями, разрешениями и профилем
type UserResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	EmailVerifiedAt *time.Time       `json:"email_verified_at"`
	Profile         *ProfileResource `json:"profile"`
	Roles           []RoleRef        `json:"roles"`
	Permissions     []string         `json:"permissions"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewUserResponse собирает ответ; avatarURL вычисляется хранилищем
func NewUserResponse(u *models.User, avatarURL *string) *UserResponse {
	resp := &UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		EmailVerifiedAt: u.EmailVerifiedAt,
		Roles:           make([]RoleRef, 0, len(u.Roles)),
		Permissions:     u.PermissionNames(),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}

	if u.Profile != nil {
		resp.Profile = &ProfileResource{
			Phone:     u.Profile.Phone,
			Address:   u.Profile.Address,
			Bio:       u.Profile.Bio,
			Avatar:    u.Profile.Avatar,
			AvatarURL: avatarURL,
		}
	}

	for _, r := range u.Roles {
		ref := RoleRef{ID: r.ID, Name: r.Name, Permissions: make([]PermissionRef, 0, len(r.Permissions))}
		for _, p := range r.Permissions {
			ref.Permissions = append(ref.Permissions, PermissionRef{ID: p.ID, Name: p.Name})
		}
		resp.Roles = append(resp.Roles, ref)
	}

	return resp
}
