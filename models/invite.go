package models

import (
	"errors"
	"sociallink/db"
	"sociallink/utils"
	"strings"

	"gorm.io/gorm"
)

type Invite struct {
	ID          uint64  `gorm:"primaryKey" json:"id"`
	CreatedAt   int64   `json:"created_at"`
	Token       string  `gorm:"type:varchar(120);not null;uniqueIndex" json:"token"`
	CreatedByID *string `gorm:"type:varchar(36);index" json:"created_by,omitempty"` // nil for invites created from the CLI
	CreatedBy   *User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Used        bool    `gorm:"not null" json:"used"`
	UsedByID    *string `gorm:"type:varchar(36)" json:"used_by,omitempty"`
	UsedBy      *User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	UsedAt      int64   `json:"used_at,omitempty"`
}

func newInviteToken() string {
	return utils.Rand16BytesToBase62()
}

// InviteByToken returns ErrInviteInvalid for unknown tokens
func InviteByToken(token string) (i Invite, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return i, ErrInviteInvalid
	}
	err = db.Instance.First(&i, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrInviteInvalid
	}
	return
}

// CheckInvite validates a token without consuming it
func CheckInvite(token string) error {
	invite, err := InviteByToken(token)
	if err != nil {
		return err
	}
	if invite.Used {
		return ErrInviteUsed
	}
	return nil
}

// InvitesLeft returns how many more invites the user may create, -1 meaning unlimited
func InvitesLeft(user *User) (int, error) {
	if user.IsAdmin() {
		return -1, nil
	}
	if !user.HasPermission(PermissionInvite) {
		return 0, ErrNotEligible
	}
	if user.InviteLimit == 0 {
		return -1, nil
	}
	var created int64
	if err := db.Instance.Model(&Invite{}).Where("created_by_id = ?", user.ID).Count(&created).Error; err != nil {
		return 0, err
	}
	left := user.InviteLimit - int(created)
	if left < 0 {
		left = 0
	}
	return left, nil
}

func CreateInvite(user *User) (invite Invite, err error) {
	left, err := InvitesLeft(user)
	if err != nil {
		return
	}
	if left == 0 {
		return invite, ErrInviteLimit
	}
	invite = Invite{Token: newInviteToken(), CreatedByID: &user.ID}
	err = db.Instance.Create(&invite).Error
	return
}

// CreateSystemInvites creates invites with no issuer
func CreateSystemInvites(count int) ([]Invite, error) {
	if count <= 0 {
		return nil, invalid("count must be positive")
	}
	invites := make([]Invite, count)
	for i := range invites {
		invites[i].Token = newInviteToken()
	}
	return invites, db.Instance.Create(&invites).Error
}

func InvitesCreatedBy(userID string) (invites []Invite, err error) {
	invites = []Invite{}
	err = db.Instance.Where("created_by_id = ?", userID).Order("id DESC").Find(&invites).Error
	return
}

func ListInvites(onlyUnused bool, offset, limit int) (invites []Invite, total int64, err error) {
	tx := db.Instance.Model(&Invite{})
	if onlyUnused {
		tx = tx.Where("used = ?", false)
	}
	if err = tx.Count(&total).Error; err != nil {
		return
	}
	invites = []Invite{}
	err = tx.Order("id DESC").Offset(offset).Limit(limit).Find(&invites).Error
	return
}

func DeleteInvite(id uint64) error {
	result := db.Instance.Delete(&Invite{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
