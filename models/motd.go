package models

import (
	"errors"
	"sociallink/db"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	motdID        = 1
	MaxMotdLength = 500
)

// Motd is the single site-wide message of the day
type Motd struct {
	ID          uint64  `gorm:"primaryKey" json:"-"`
	UpdatedAt   int64   `json:"updated_at"`
	Message     string  `gorm:"type:varchar(500);not null" json:"message"`
	UpdatedByID *string `gorm:"type:varchar(36)" json:"-"`
	UpdatedBy   *User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}

// GetMotd returns an empty message when none was set
func GetMotd() (m Motd, err error) {
	err = db.Instance.First(&m, motdID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Motd{ID: motdID}, nil
	}
	return
}

func SetMotd(message string, updatedByID *string) (m Motd, err error) {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > MaxMotdLength {
		return m, invalid("message is too long")
	}
	m = Motd{ID: motdID, Message: message, UpdatedByID: updatedByID}
	err = db.Instance.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
	return
}
