package models

import (
	"errors"
	"net/url"
	"regexp"
	"sociallink/db"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

const (
	MaxCustomLinks = 20
)

// Supported platforms and their profile URL templates (%s is the handle)
var socialPlatforms = map[string]string{
	"discord":    "https://discord.com/users/%s",
	"github":     "https://github.com/%s",
	"instagram":  "https://instagram.com/%s",
	"reddit":     "https://reddit.com/user/%s",
	"snapchat":   "https://snapchat.com/add/%s",
	"soundcloud": "https://soundcloud.com/%s",
	"spotify":    "https://open.spotify.com/user/%s",
	"steam":      "https://steamcommunity.com/id/%s",
	"telegram":   "https://t.me/%s",
	"tiktok":     "https://tiktok.com/@%s",
	"twitch":     "https://twitch.tv/%s",
	"x":          "https://x.com/%s",
	"youtube":    "https://youtube.com/@%s",
}

var handleRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)

type SocialLink struct {
	ID        uint64 `gorm:"primaryKey" json:"id"`
	CreatedAt int64  `json:"created_at"`
	UserID    string `gorm:"type:varchar(36);not null;index:user_platform,unique,priority:1" json:"-"`
	User      *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Platform  string `gorm:"type:varchar(20);not null;index:user_platform,unique,priority:2" json:"platform"`
	Handle    string `gorm:"type:varchar(64);not null" json:"handle"`
	URL       string `gorm:"-" json:"url"`
}

func SocialPlatforms() map[string]string {
	return socialPlatforms
}

func (s *SocialLink) AfterFind(tx *gorm.DB) error {
	s.URL = socialURL(s.Platform, s.Handle)
	return nil
}

func socialURL(platform, handle string) string {
	template, ok := socialPlatforms[platform]
	if !ok {
		return ""
	}
	return strings.Replace(template, "%s", url.PathEscape(handle), 1)
}

func SocialLinksFor(userID string) (links []SocialLink, err error) {
	links = []SocialLink{}
	err = db.Instance.Where("user_id = ?", userID).Order("platform").Find(&links).Error
	return
}

// SaveSocialLink creates or replaces the user's link for the platform
func SaveSocialLink(userID, platform, handle string) (link SocialLink, err error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if _, ok := socialPlatforms[platform]; !ok {
		return link, invalid("unsupported platform")
	}
	if !handleRegex.MatchString(handle) {
		return link, invalid("invalid handle")
	}
	err = db.Instance.Where(SocialLink{UserID: userID, Platform: platform}).
		Assign(SocialLink{Handle: handle}).
		FirstOrCreate(&link).Error
	link.URL = socialURL(link.Platform, link.Handle)
	return
}

func DeleteSocialLink(userID, platform string) error {
	result := db.Instance.Where("user_id = ? AND platform = ?", userID, strings.ToLower(platform)).Delete(&SocialLink{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type CustomLink struct {
	ID        uint64 `gorm:"primaryKey" json:"id"`
	CreatedAt int64  `json:"created_at"`
	UserID    string `gorm:"type:varchar(36);not null;index:user_link_position,priority:1" json:"-"`
	User      *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Position  int    `gorm:"not null;index:user_link_position,priority:2" json:"position"`
	Title     string `gorm:"type:varchar(50);not null" json:"title"`
	URL       string `gorm:"type:varchar(500);not null" json:"url"`
	Icon      string `gorm:"type:varchar(500)" json:"icon"`
}

// validHTTPURL accepts absolute http(s) URLs only
func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func (l *CustomLink) Validate() error {
	l.Title = strings.TrimSpace(l.Title)
	l.URL = strings.TrimSpace(l.URL)
	l.Icon = strings.TrimSpace(l.Icon)
	if l.Title == "" || utf8.RuneCountInString(l.Title) > 50 {
		return invalid("title must be 1-50 characters")
	}
	if len(l.URL) > 500 || !validHTTPURL(l.URL) {
		return invalid("url must be an http(s) URL")
	}
	if l.Icon != "" && (len(l.Icon) > 500 || !validHTTPURL(l.Icon)) {
		return invalid("icon must be an http(s) URL")
	}
	return nil
}

func CustomLinksFor(userID string) (links []CustomLink, err error) {
	links = []CustomLink{}
	err = db.Instance.Where("user_id = ?", userID).Order("position, id").Find(&links).Error
	return
}

// SaveCustomLink creates (ID 0, appended last) or updates one of the user's links
func SaveCustomLink(userID string, link *CustomLink) error {
	if err := link.Validate(); err != nil {
		return err
	}
	if link.ID != 0 {
		var existing CustomLink
		if err := db.Instance.First(&existing, "id = ? AND user_id = ?", link.ID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		existing.Title, existing.URL, existing.Icon = link.Title, link.URL, link.Icon
		*link = existing
		return db.Instance.Save(link).Error
	}
	return db.Instance.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&CustomLink{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count >= MaxCustomLinks {
			return ErrLimitReached
		}
		var last struct{ Max int }
		if err := tx.Model(&CustomLink{}).Select("COALESCE(MAX(position), -1) AS max").
			Where("user_id = ?", userID).Scan(&last).Error; err != nil {
			return err
		}
		link.UserID = userID
		link.Position = last.Max + 1
		return tx.Create(link).Error
	})
}

func DeleteCustomLink(userID string, id uint64) error {
	result := db.Instance.Where("id = ? AND user_id = ?", id, userID).Delete(&CustomLink{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReorderCustomLinks sets positions following the given IDs, which must be exactly the user's links
func ReorderCustomLinks(userID string, ids []uint64) error {
	return db.Instance.Transaction(func(tx *gorm.DB) error {
		var owned []uint64
		if err := tx.Model(&CustomLink{}).Where("user_id = ?", userID).Pluck("id", &owned).Error; err != nil {
			return err
		}
		if len(owned) != len(ids) {
			return invalid("every link must be listed exactly once")
		}
		isOwned := make(map[uint64]bool, len(owned))
		for _, id := range owned {
			isOwned[id] = true
		}
		for position, id := range ids {
			if !isOwned[id] {
				return invalid("every link must be listed exactly once")
			}
			delete(isOwned, id)
			if err := tx.Model(&CustomLink{}).Where("id = ?", id).Update("position", position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
