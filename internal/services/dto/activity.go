package dto

import (
	"encoding/json"
	"time"

	"gatekeeper_backend/internal/models"
)

type ActivityLogQuery struct {
	UserID  string `form:"user_id" validate:"omitempty,max=36"`
	Action  string `form:"action" validate:"omitempty,max=64"`
	Model   string `form:"model" validate:"omitempty,max=64"`
	Page    int    `form:"page" validate:"omitempty,min=1"`
	PerPage int    `form:"per_page" validate:"omitempty,min=1,max=100"`
}

type ActivityLogResponse struct {
	ID          string          `json:"id"`
	UserID      *string         `json:"user_id"`
	Action      string          `json:"action"`
	Model       *string         `json:"model"`
	ModelID     *string         `json:"model_id"`
	Description string          `json:"description"`
	Properties  json.RawMessage `json:"properties"`
	IPAddress   string          `json:"ip_address"`
	UserAgent   string          `json:"user_agent"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewActivityLogResponse(a *models.ActivityLog) ActivityLogResponse {
	props := json.RawMessage(a.Properties)
	if len(props) == 0 {
		props = json.RawMessage("null")
	}
	return ActivityLogResponse{
		ID:          a.ID,
		UserID:      a.UserID,
		Action:      a.Action,
		Model:       a.Model,
		ModelID:     a.ModelID,
		Description: a.Description,
		Properties:  props,
		IPAddress:   a.IPAddress,
		UserAgent:   a.UserAgent,
		CreatedAt:   a.CreatedAt,
	}
}
