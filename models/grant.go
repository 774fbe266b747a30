package models

import (
	"sociallink/db"
	"strings"
)

type Permission uint8

const (
	PermissionNone     Permission = 0
	PermissionAdmin    Permission = 1 // implies all other permissions
	PermissionInvite   Permission = 2 // can create invites, up to User.InviteLimit
	PermissionModerate Permission = 3 // can ban/unban non-admin users
	PermissionBadges   Permission = 4 // can assign badges
)

var permissionNames = map[Permission]string{
	PermissionAdmin:    "admin",
	PermissionInvite:   "invite",
	PermissionModerate: "moderate",
	PermissionBadges:   "badges",
}

type Grant struct {
	ID         uint64 `gorm:"primaryKey"`
	CreatedAt  int64
	GrantorID  *string    `gorm:"type:varchar(36)"` // nil when granted from the CLI
	UserID     string     `gorm:"type:varchar(36);not null;index:user_permission,unique"`
	Permission Permission `gorm:"not null;index:user_permission,unique"`
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return "none"
}

func PermissionFromString(name string) Permission {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range permissionNames {
		if n == name {
			return p
		}
	}
	return PermissionNone
}

func GrantPermission(userID string, permission Permission, grantorID *string) error {
	grant := Grant{UserID: userID, Permission: permission, GrantorID: grantorID}
	return db.Instance.
		Where(Grant{UserID: userID, Permission: permission}).
		FirstOrCreate(&grant).Error
}

func RevokePermission(userID string, permission Permission) error {
	return db.Instance.Where("user_id = ? AND permission = ?", userID, permission).Delete(&Grant{}).Error
}
