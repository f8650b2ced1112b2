package validator

import (
	"log"
	"regexp"
	"strings"

	"gatekeeper_backend/internal/auth"

	"github.com/go-playground/validator/v10"
)

var (
	roleNameRe       = regexp.MustCompile(`^[a-z0-9]+([ -][a-z0-9]+)*$`)
	permissionNameRe = regexp.MustCompile(`^[a-z0-9]+( [a-z0-9]+)*$`)
	phoneRe          = regexp.MustCompile(`^\+?[0-9 ()\-]{5,20}$`)
)

// registerCustomRules регистрирует кастомные правила в экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Без правила приложение не должно запускаться
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'role-name': "super-admin", "content editor"
	mustRegister("role-name", validateRoleName)

	// 'permission-name': "view users", "edit own profile"
	mustRegister("permission-name", validatePermissionName)

	// 'phone': +7 (700) 123-45-67
	mustRegister("phone", validatePhone)

	// 'password': длина 8..72 байт
	mustRegister("password", validatePassword)
}

// --- Функции валидации ---

func validateRoleName(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // пустые значения проверяет 'required'
	}
	return roleNameRe.MatchString(value)
}

func validatePermissionName(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return permissionNameRe.MatchString(value)
}

func validatePassword(fl validator.FieldLevel) bool {
	return auth.ValidatePassword(fl.Field().String()) == nil
}

func validatePhone(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return true
	}
	return phoneRe.MatchString(value)
}
