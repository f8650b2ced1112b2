package dto

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required"`
}

type RegisterRequest struct {
	Name                 string `json:"name" form:"name" validate:"required,max=255"`
	Email                string `json:"email" form:"email" validate:"required,email,max=255"`
	Password             string `json:"password" form:"password" validate:"required,password"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"omitempty,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword         string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword             string `json:"new_password" form:"new_password" validate:"required,password"`
	NewPasswordConfirmation string `json:"new_password_confirmation" form:"new_password_confirmation" validate:"omitempty,eqfield=NewPassword"`
}

// AuthResponse - ответ login/register
type AuthResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	User        *UserResponse `json:"user"`
}
