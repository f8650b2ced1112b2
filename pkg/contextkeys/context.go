package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

const (
	// DBContextKey - ключ, по которому хранится *gorm.DB в gin.Context
	DBContextKey = contextKey("db")

	// UserContextKey - аутентифицированный *models.User
	UserContextKey = contextKey("user")

	// TokenContextKey - *models.PersonalAccessToken текущего запроса
	TokenContextKey = contextKey("access_token")
)
