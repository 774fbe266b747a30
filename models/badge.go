package models

import (
	"sociallink/db"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Badge struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	CreatedAt   int64  `json:"created_at"`
	Name        string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:varchar(200)" json:"description"`
	IconURL     string `gorm:"type:varchar(500)" json:"icon_url"`
	Color       string `gorm:"type:varchar(9)" json:"color"`
}

type UserBadge struct {
	UserID       string  `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	User         *User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	BadgeID      uint64  `gorm:"primaryKey" json:"badge_id"`
	Badge        *Badge  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"badge,omitempty"`
	CreatedAt    int64   `json:"created_at"`
	AssignedByID *string `gorm:"type:varchar(36)" json:"assigned_by,omitempty"`
	AssignedBy   *User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}

func (b *Badge) Validate() error {
	b.Name = strings.TrimSpace(b.Name)
	b.Color = strings.ToLower(strings.TrimSpace(b.Color))
	b.IconURL = strings.TrimSpace(b.IconURL)
	if b.Name == "" || len(b.Name) > 50 {
		return invalid("name must be 1-50 characters")
	}
	if len(b.Description) > 200 {
		return invalid("description is too long")
	}
	if b.Color != "" && !colorRegex.MatchString(b.Color) {
		return invalid("color must be a hex color")
	}
	if b.IconURL != "" && !validHTTPURL(b.IconURL) {
		return invalid("icon must be an http(s) URL")
	}
	return nil
}

func ListBadges() (badges []Badge, err error) {
	badges = []Badge{}
	err = db.Instance.Order("name").Find(&badges).Error
	return
}

// SaveBadge creates (ID 0) or updates a badge
func SaveBadge(b *Badge) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.ID != 0 {
		result := db.Instance.Model(b).Select("name", "description", "icon_url", "color").Updates(b)
		if db.IsUniqueViolation(result.Error) {
			return ErrBadgeExists
		}
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}
	err := db.Instance.Create(b).Error
	if db.IsUniqueViolation(err) {
		return ErrBadgeExists
	}
	return err
}

func DeleteBadge(id uint64) error {
	return db.Instance.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("badge_id = ?", id).Delete(&UserBadge{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Badge{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AssignBadge is a no-op when the user already has the badge
func AssignBadge(userID string, badgeID uint64, assignedByID *string) error {
	var count int64
	if err := db.Instance.Model(&Badge{}).Where("id = ?", badgeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return db.Instance.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&UserBadge{UserID: userID, BadgeID: badgeID, AssignedByID: assignedByID}).Error
}

func UnassignBadge(userID string, badgeID uint64) error {
	return db.Instance.Where("user_id = ? AND badge_id = ?", userID, badgeID).Delete(&UserBadge{}).Error
}

func BadgesFor(userID string) (badges []Badge, err error) {
	badges = []Badge{}
	err = db.Instance.Joins("JOIN user_badges ON user_badges.badge_id = badges.id").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.created_at").
		Find(&badges).Error
	return
}
