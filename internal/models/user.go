package models

import "time"

type User struct {
	BaseModel
	Name            string `gorm:"type:varchar(255);not null"`
	Email           string `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash    string `gorm:"type:varchar(255);not null"`
	EmailVerifiedAt *time.Time

	// Relations
	Profile *Profile              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Roles   []Role                `gorm:"many2many:user_roles;joinForeignKey:UserID;joinReferences:RoleID;constraint:OnDelete:CASCADE"`
	Tokens  []PersonalAccessToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// RoleNames возвращает имена ролей (роли должны быть предзагружены)
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// PermissionNames - объединение разрешений всех ролей, без дублей
func (u *User) PermissionNames() []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			names = append(names, p.Name)
		}
	}
	return names
}
