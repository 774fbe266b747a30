package models

import (
	"errors"
	"fmt"
	"regexp"
	"sociallink/db"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

// ProfileConfig holds the profile cosmetics. Booleans have no DB defaults
// so that false is stored as given.
type ProfileConfig struct {
	UserID          string `gorm:"type:varchar(36);primaryKey" json:"-"`
	User            *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UpdatedAt       int64  `json:"updated_at"`
	AccentColor     string `gorm:"type:varchar(9);not null" json:"accent_color"`
	TextColor       string `gorm:"type:varchar(9);not null" json:"text_color"`
	BackgroundColor string `gorm:"type:varchar(9);not null" json:"background_color"`
	IconColor       string `gorm:"type:varchar(9);not null" json:"icon_color"`
	BorderColor     string `gorm:"type:varchar(9);not null" json:"border_color"`
	Blur            int    `gorm:"not null" json:"blur"`          // px, 0-30
	Opacity         int    `gorm:"not null" json:"opacity"`       // %, 0-100
	BorderWidth     int    `gorm:"not null" json:"border_width"`  // px, 0-10
	BorderRadius    int    `gorm:"not null" json:"border_radius"` // px, 0-50
	Tilt            bool   `gorm:"not null" json:"tilt"`
	ShowBadges      bool   `gorm:"not null" json:"show_badges"`
	ShowViews       bool   `gorm:"not null" json:"show_views"`
	Bio             string `gorm:"type:varchar(300)" json:"bio"`
	Location        string `gorm:"type:varchar(50)" json:"location"`
	AudioVolume     int    `gorm:"not null" json:"audio_volume"` // %, 0-100
	AudioAutoplay   bool   `gorm:"not null" json:"audio_autoplay"`
}

var colorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

func DefaultProfileConfig(userID string) ProfileConfig {
	return ProfileConfig{
		UserID:          userID,
		AccentColor:     "#7c3aed",
		TextColor:       "#ffffff",
		BackgroundColor: "#000000",
		IconColor:       "#ffffff",
		BorderColor:     "#ffffff",
		Blur:            8,
		Opacity:         40,
		BorderWidth:     1,
		BorderRadius:    12,
		Tilt:            true,
		ShowBadges:      true,
		ShowViews:       true,
		AudioVolume:     50,
	}
}

func checkRange(errs []error, name string, value, min, max int) []error {
	if value < min || value > max {
		errs = append(errs, invalid(fmt.Sprintf("%s must be between %d and %d", name, min, max)))
	}
	return errs
}

// Validate normalizes colors to lowercase and checks every value
func (p *ProfileConfig) Validate() error {
	var errs []error
	colors := map[string]*string{
		"accent_color":     &p.AccentColor,
		"text_color":       &p.TextColor,
		"background_color": &p.BackgroundColor,
		"icon_color":       &p.IconColor,
		"border_color":     &p.BorderColor,
	}
	for _, name := range []string{"accent_color", "text_color", "background_color", "icon_color", "border_color"} {
		color := colors[name]
		*color = strings.ToLower(strings.TrimSpace(*color))
		if !colorRegex.MatchString(*color) {
			errs = append(errs, invalid(name+" must be a hex color"))
		}
	}
	errs = checkRange(errs, "blur", p.Blur, 0, 30)
	errs = checkRange(errs, "opacity", p.Opacity, 0, 100)
	errs = checkRange(errs, "border_width", p.BorderWidth, 0, 10)
	errs = checkRange(errs, "border_radius", p.BorderRadius, 0, 50)
	errs = checkRange(errs, "audio_volume", p.AudioVolume, 0, 100)
	p.Bio = strings.TrimSpace(p.Bio)
	p.Location = strings.TrimSpace(p.Location)
	if utf8.RuneCountInString(p.Bio) > 300 {
		errs = append(errs, invalid("bio is too long"))
	}
	if utf8.RuneCountInString(p.Location) > 50 {
		errs = append(errs, invalid("location is too long"))
	}
	return errors.Join(errs...)
}

// ProfileConfigFor returns the stored config, or the defaults when there is none
func ProfileConfigFor(userID string) (p ProfileConfig, err error) {
	err = db.Instance.First(&p, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultProfileConfig(userID), nil
	}
	return
}

func SaveProfileConfig(userID string, p *ProfileConfig) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.UserID = userID
	return db.Instance.Save(p).Error
}
