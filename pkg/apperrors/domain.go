package apperrors

import (
	"net/http"
)

/*
Предопределенные ошибки домена аутентификации и RBAC.
Сервисы возвращают их как есть или через WithDetails/WithError.
*/

// --- Auth ---

// ErrUnauthenticated - нет валидного токена
var ErrUnauthenticated = New(
	CodeUnauthenticated,
	"auth",
	"Unauthenticated.",
	http.StatusUnauthorized,
)

// ErrInvalidCredentials - одинаковое сообщение для неизвестного email и неверного пароля
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"The provided credentials are incorrect.",
	http.StatusUnauthorized,
)

// ErrForbidden - у вызывающего нет нужного разрешения
var ErrForbidden = New(
	CodeForbidden,
	"auth",
	"This action is unauthorized.",
	http.StatusForbidden,
)

// ErrDuplicateEmail - email уже занят
var ErrDuplicateEmail = New(
	CodeDuplicateEmail,
	"user",
	"The email has already been taken.",
	http.StatusUnprocessableEntity,
).WithDetails(map[string][]string{"email": {"The email has already been taken."}})

// --- Roles & Permissions ---

// ErrDuplicateName - имя роли или разрешения уже занято
var ErrDuplicateName = New(
	CodeDuplicateName,
	"rbac",
	"The name has already been taken.",
	http.StatusUnprocessableEntity,
).WithDetails(map[string][]string{"name": {"The name has already been taken."}})

// ErrUnknownPermission - в запросе есть несуществующее разрешение
var ErrUnknownPermission = New(
	CodeUnknownPermission,
	"rbac",
	"One or more permissions do not exist.",
	http.StatusUnprocessableEntity,
)

// ErrSuperRoleImmutable - роль super-admin нельзя менять
var ErrSuperRoleImmutable = New(
	CodeForbidden,
	"rbac",
	"Super admin role cannot be modified.",
	http.StatusForbidden,
)

// ErrReservedRole - системные роли нельзя удалить
var ErrReservedRole = New(
	CodeForbidden,
	"rbac",
	"System roles cannot be deleted.",
	http.StatusForbidden,
)

// --- Not found ---

var ErrUserNotFound = NewNotFoundError("user", "User not found.")
var ErrRoleNotFound = NewNotFoundError("rbac", "Role not found.")
var ErrPermissionNotFound = NewNotFoundError("rbac", "Permission not found.")

// --- Uploads ---

// ErrInvalidAvatar - файл не является изображением или превышает лимит
var ErrInvalidAvatar = New(
	CodeValidationFailed,
	"validation",
	"The avatar must be an image (jpeg, png, gif, webp) not larger than 2MB.",
	http.StatusUnprocessableEntity,
).WithDetails(map[string][]string{"avatar": {"The avatar must be an image (jpeg, png, gif, webp) not larger than 2MB."}})
