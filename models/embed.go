package models

import (
	"net/url"
	"sociallink/db"
	"strings"

	"gorm.io/gorm"
)

const (
	MaxEmbeds = 5
)

// Hosts allowed per embed type
var embedHosts = map[string][]string{
	"youtube":    {"youtube.com", "www.youtube.com", "m.youtube.com", "youtu.be", "music.youtube.com"},
	"spotify":    {"open.spotify.com"},
	"soundcloud": {"soundcloud.com", "www.soundcloud.com", "on.soundcloud.com"},
}

type Embed struct {
	ID        uint64 `gorm:"primaryKey" json:"id"`
	CreatedAt int64  `json:"created_at"`
	UserID    string `gorm:"type:varchar(36);not null;index:user_embed_position,priority:1" json:"-"`
	User      *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Position  int    `gorm:"not null;index:user_embed_position,priority:2" json:"position"`
	Type      string `gorm:"type:varchar(20);not null" json:"type"`
	URL       string `gorm:"type:varchar(500);not null" json:"url"`
}

// EmbedType detects the embed type from the URL host
func EmbedType(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme != "https" {
		return "", invalid("embed must be an https URL")
	}
	host := strings.ToLower(u.Hostname())
	for embedType, hosts := range embedHosts {
		for _, allowed := range hosts {
			if host == allowed {
				return embedType, nil
			}
		}
	}
	return "", invalid("unsupported embed host")
}

func EmbedsFor(userID string) (embeds []Embed, err error) {
	embeds = []Embed{}
	err = db.Instance.Where("user_id = ?", userID).Order("position, id").Find(&embeds).Error
	return
}

func AddEmbed(userID, rawURL string) (embed Embed, err error) {
	embedType, err := EmbedType(rawURL)
	if err != nil {
		return
	}
	rawURL = strings.TrimSpace(rawURL)
	if len(rawURL) > 500 {
		return embed, invalid("url is too long")
	}
	err = db.Instance.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Embed{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count >= MaxEmbeds {
			return ErrLimitReached
		}
		embed = Embed{UserID: userID, Type: embedType, URL: rawURL, Position: int(count)}
		return tx.Create(&embed).Error
	})
	return
}

func DeleteEmbed(userID string, id uint64) error {
	result := db.Instance.Where("id = ? AND user_id = ?", id, userID).Delete(&Embed{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
