package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

const (
	// Системные ошибки
	CodeInternalError ErrorCode = "INTERNAL_ERROR"

	// Аутентификация и авторизация
	CodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"

	// Ошибки данных
	CodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	CodeBadRequest        ErrorCode = "BAD_REQUEST"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeDuplicateName     ErrorCode = "DUPLICATE_NAME"
	CodeDuplicateEmail    ErrorCode = "DUPLICATE_EMAIL"
	CodeUnknownPermission ErrorCode = "UNKNOWN_PERMISSION"

	// Ограничения
	CodeRateLimited ErrorCode = "RATE_LIMITED"
)
