package auth

import "gatekeeper_backend/internal/models"

// Identity - аутентифицированный вызывающий: пользователь и токен запроса
type Identity struct {
	User  *models.User
	Token *models.PersonalAccessToken
}

func (i *Identity) UserID() string {
	if i == nil || i.User == nil {
		return ""
	}
	return i.User.ID
}
