package models

import (
	"errors"
	"regexp"
	"sociallink/db"
	"strings"

	"gorm.io/gorm"
)

type User struct {
	ID          string  `gorm:"type:varchar(36);primaryKey" json:"id"` // Auth provider (Supabase) user ID
	UID         uint64  `gorm:"not null;uniqueIndex" json:"uid"`       // Sequential number shown on profiles
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
	Username    string  `gorm:"type:varchar(20);not null;uniqueIndex" json:"username"`
	Email       string  `gorm:"type:varchar(150);not null;uniqueIndex" json:"email,omitempty"`
	DisplayName string  `gorm:"type:varchar(50)" json:"display_name"`
	InvitedByID *string `gorm:"type:varchar(36)" json:"invited_by,omitempty"`
	InvitedBy   *User   `gorm:"foreignKey:InvitedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	InviteLimit int     `gorm:"not null" json:"invite_limit"` // 0 - no limit (if the user may invite at all)
	Banned      bool    `gorm:"not null" json:"banned"`
	BanReason   string  `gorm:"type:varchar(300)" json:"ban_reason,omitempty"`
	Views       uint64  `gorm:"not null" json:"views"`
	Grants      []Grant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

const (
	MaxDisplayNameLength = 50
)

var (
	usernameRegex     = regexp.MustCompile(`^[a-z0-9_.]{1,20}$`)
	reservedUsernames = map[string]bool{
		"admin": true, "administrator": true, "api": true, "assets": true, "auth": true,
		"badges": true, "dashboard": true, "login": true, "logout": true, "motd": true,
		"register": true, "root": true, "settings": true, "signup": true, "static": true,
		"support": true, "system": true, "u": true, "user": true, "www": true,
	}
)

// NormalizeUsername lowercases and validates a username
func NormalizeUsername(username string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernameRegex.MatchString(username) {
		return "", ErrUsernameInvalid
	}
	if reservedUsernames[username] {
		return "", ErrUsernameReserved
	}
	return username, nil
}

func UsernameTaken(username string) (bool, error) {
	var count int64
	err := db.Instance.Model(&User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// UserByID loads the user with their grants
func UserByID(id string) (u User, err error) {
	err = db.Instance.Preload("Grants").First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrNotFound
	}
	return
}

func UserByUsername(username string) (u User, err error) {
	err = db.Instance.Preload("Grants").First(&u, "username = ?", strings.ToLower(username)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrNotFound
	}
	return
}

func (u *User) GetPermissions() []string {
	permissions := []string{}
	for _, grant := range u.Grants {
		permissions = append(permissions, grant.Permission.String())
	}
	return permissions
}

func (u *User) HasPermission(required Permission) bool {
	for _, grant := range u.Grants {
		if grant.Permission == required || grant.Permission == PermissionAdmin {
			return true
		}
	}
	return false
}

func (u *User) HasPermissions(required []Permission) bool {
	for _, permission := range required {
		if !u.HasPermission(permission) {
			return false
		}
	}
	return true
}

func (u *User) IsAdmin() bool {
	return u.HasPermission(PermissionAdmin)
}

func (u *User) SetDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if len([]rune(name)) > MaxDisplayNameLength {
		return invalid("display name is too long")
	}
	if err := db.Instance.Model(u).Update("display_name", name).Error; err != nil {
		return err
	}
	u.DisplayName = name
	return nil
}

func (u *User) Ban(reason string) error {
	reason = strings.TrimSpace(reason)
	// varchar length is in characters
	if r := []rune(reason); len(r) > 300 {
		reason = string(r[:300])
	}
	err := db.Instance.Model(u).Updates(map[string]interface{}{"banned": true, "ban_reason": reason}).Error
	if err == nil {
		u.Banned, u.BanReason = true, reason
	}
	return err
}

func (u *User) Unban() error {
	err := db.Instance.Model(u).Updates(map[string]interface{}{"banned": false, "ban_reason": ""}).Error
	if err == nil {
		u.Banned, u.BanReason = false, ""
	}
	return err
}

func (u *User) SetInviteLimit(limit int) error {
	if limit < 0 {
		return invalid("limit must not be negative")
	}
	if err := db.Instance.Model(u).Update("invite_limit", limit).Error; err != nil {
		return err
	}
	u.InviteLimit = limit
	return nil
}

func IncrementViews(userID string) error {
	return db.Instance.Model(&User{}).Where("id = ?", userID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

// ListUsers searches by username or email, newest first
func ListUsers(search string, offset, limit int) (users []User, total int64, err error) {
	tx := db.Instance.Model(&User{})
	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		like := "%" + search + "%"
		tx = tx.Where("username LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if err = tx.Count(&total).Error; err != nil {
		return
	}
	users = []User{}
	err = tx.Preload("Grants").Order("uid DESC").Offset(offset).Limit(limit).Find(&users).Error
	return
}
