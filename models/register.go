package models

import (
	"errors"
	"fmt"
	"net/mail"
	"sociallink/config"
	"sociallink/db"
	"sociallink/utils"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Registration struct {
	ID       string // issued by the auth provider
	Email    string
	Username string
	Token    string
}

// NormalizeEmail lowercases and validates an email address
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > 150 {
		return "", invalid("invalid email address")
	}
	return email, nil
}

// CheckRegistration runs the checks that do not need the auth provider,
// so a doomed sign up never creates an auth user
func CheckRegistration(username, email, token string) (string, string, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return "", "", err
	}
	email, err = NormalizeEmail(email)
	if err != nil {
		return "", "", err
	}
	if err = CheckInvite(token); err != nil {
		return "", "", err
	}
	taken, err := UsernameTaken(username)
	if err != nil {
		return "", "", err
	}
	if taken {
		return "", "", ErrUsernameTaken
	}
	var count int64
	if err = db.Instance.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return "", "", err
	}
	if count > 0 {
		return "", "", ErrEmailTaken
	}
	return username, email, nil
}

// Retries when a concurrent registration took the same UID
const uidAttempts = 5

var errUIDTaken = errors.New("uid already taken")

// RegisterUser consumes the invite and creates the user with a default
// profile config in one transaction
func RegisterUser(r Registration) (u User, err error) {
	username, email, err := CheckRegistration(r.Username, r.Email, r.Token)
	if err != nil {
		return
	}
	for attempt := 1; attempt <= uidAttempts; attempt++ {
		u, err = registerUser(r, username, email)
		if !errors.Is(err, errUIDTaken) {
			return
		}
		utils.Log.Warn("uid taken, retrying registration", zap.String("username", username), zap.Int("attempt", attempt))
	}
	return u, fmt.Errorf("create user: %w", err)
}

func registerUser(r Registration, username, email string) (u User, err error) {
	err = db.Instance.Transaction(func(tx *gorm.DB) error {
		var invite Invite
		if err := tx.First(&invite, "token = ?", strings.TrimSpace(r.Token)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInviteInvalid
			}
			return err
		}
		var maxUID struct{ Max uint64 }
		if err := tx.Model(&User{}).Select("COALESCE(MAX(uid), 0) AS max").Scan(&maxUID).Error; err != nil {
			return err
		}
		u = User{
			ID:          r.ID,
			UID:         maxUID.Max + 1,
			Username:    username,
			Email:       email,
			DisplayName: username,
			InvitedByID: invite.CreatedByID,
			InviteLimit: config.DEFAULT_INVITE_LIMIT,
		}
		if err := tx.Create(&u).Error; err != nil {
			switch {
			case db.UniqueViolationOn(err, "uid"):
				return errUIDTaken
			case db.UniqueViolationOn(err, "email"):
				return ErrEmailTaken
			case db.UniqueViolationOn(err, "username"):
				return ErrUsernameTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		// Conditional update: only one registration can flip the flag
		result := tx.Model(&Invite{}).
			Where("id = ? AND used = ?", invite.ID, false).
			Updates(map[string]interface{}{"used": true, "used_by_id": u.ID, "used_at": time.Now().Unix()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrInviteUsed
		}
		profile := DefaultProfileConfig(u.ID)
		return tx.Create(&profile).Error
	})
	return
}
