package dto

import (
	"time"

	"gatekeeper_backend/internal/models"
)

type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,max=255,role-name"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required"`
}

// UpdateRoleRequest - nil Permissions оставляет набор без изменений,
// пустой список снимает все разрешения
type UpdateRoleRequest struct {
	Name        *string   `json:"name" validate:"omitempty,max=255,role-name"`
	Permissions *[]string `json:"permissions"`
}

type CreatePermissionRequest struct {
	Name string `json:"name" validate:"required,max=255,permission-name"`
}

type RoleResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Permissions      []string  `json:"permissions"`
	PermissionsCount int       `json:"permissions_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewRoleResponse(r *models.Role) *RoleResponse {
	names := r.PermissionNames()
	return &RoleResponse{
		ID:               r.ID,
		Name:             r.Name,
		Permissions:      names,
		PermissionsCount: len(names),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type PermissionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewPermissionResponse(p *models.Permission) *PermissionResponse {
	return &PermissionResponse{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt}
}
