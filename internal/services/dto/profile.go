package dto

// UpdateProfileRequest - multipart или JSON; nil-поля не меняются
type UpdateProfileRequest struct {
	Name    *string `json:"name" form:"name" validate:"omitempty,max=255"`
	Email   *string `json:"email" form:"email" validate:"omitempty,email,max=255"`
	Phone   *string `json:"phone" form:"phone" validate:"omitempty,max=20,phone"`
	Address *string `json:"address" form:"address" validate:"omitempty,max=500"`
	Bio     *string `json:"bio" form:"bio" validate:"omitempty,max=2000"`
}

// AvatarUpload - содержимое загруженного файла
type AvatarUpload struct {
	Filename string
	Data     []byte
}

// ProfileResponse - плоское представление профиля
type ProfileResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}
