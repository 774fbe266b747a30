package models

import (
	"fmt"
	"path/filepath"
	"sociallink/db"
	"sociallink/storage"
	"sociallink/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type objectRename struct {
	storage  storage.StorageAPI
	from, to string
}

func undoRenames(done []objectRename) {
	for i := len(done) - 1; i >= 0; i-- {
		r := done[i]
		if err := r.storage.Rename(r.to, r.from); err != nil {
			utils.Log.Error("cannot undo rename", zap.String("from", r.to), zap.String("to", r.from), zap.Error(err))
		}
	}
}

// ChangeUsername moves every stored asset to the new name and then updates
// the rows. Any failure puts the already moved objects back.
func ChangeUsername(user *User, newUsername string) error {
	newUsername, err := NormalizeUsername(newUsername)
	if err != nil {
		return err
	}
	if newUsername == user.Username {
		return nil
	}
	taken, err := UsernameTaken(newUsername)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}
	assets, err := AssetsFor(user.ID)
	if err != nil {
		return err
	}
	done := make([]objectRename, 0, len(assets))
	for i := range assets {
		a := &assets[i]
		s := a.Storage()
		if s == nil {
			undoRenames(done)
			return fmt.Errorf("no storage for bucket %d", a.BucketID)
		}
		newPath := AssetPath(newUsername, filepath.Ext(a.Path))
		if err = s.Rename(a.Path, newPath); err != nil {
			undoRenames(done)
			return fmt.Errorf("rename %s: %w", a.Kind, err)
		}
		done = append(done, objectRename{storage: s, from: a.Path, to: newPath})
	}
	err = db.Instance.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("username", newUsername).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return ErrUsernameTaken
			}
			return err
		}
		for i, r := range done {
			err := tx.Model(&assets[i]).Updates(map[string]interface{}{
				"path":            r.to,
				"presigned_url":   "",
				"presigned_until": 0,
			}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		undoRenames(done)
		return err
	}
	user.Username = newUsername
	return nil
}

// clearProfile deletes everything shown on the profile and returns the removed assets
func clearProfile(tx *gorm.DB, userID string) ([]Asset, error) {
	var assets []Asset
	if err := tx.Where("user_id = ?", userID).Find(&assets).Error; err != nil {
		return nil, err
	}
	for _, model := range []interface{}{&SocialLink{}, &CustomLink{}, &Embed{}, &Asset{}, &ProfileConfig{}} {
		if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
			return nil, err
		}
	}
	return assets, nil
}

func deleteObjects(assets []Asset) {
	for i := range assets {
		s := assets[i].Storage()
		if s == nil {
			continue
		}
		if err := s.Delete(assets[i].Path); err != nil {
			utils.Log.Warn("cannot delete asset object",
				zap.String("kind", assets[i].Kind), zap.String("path", assets[i].Path), zap.Error(err))
		}
	}
}

// ResetProfile removes links, embeds, assets and cosmetics. The user,
// grants, badges and invites stay.
func ResetProfile(userID string) error {
	var assets []Asset
	err := db.Instance.Transaction(func(tx *gorm.DB) (err error) {
		if assets, err = clearProfile(tx, userID); err != nil {
			return err
		}
		profile := DefaultProfileConfig(userID)
		return tx.Create(&profile).Error
	})
	if err != nil {
		return err
	}
	deleteObjects(assets)
	return nil
}

// DeleteUser removes the user and everything they own. References from
// other rows (invites, badges they assigned, the MOTD) are set to null.
func DeleteUser(userID string) error {
	var assets []Asset
	err := db.Instance.Transaction(func(tx *gorm.DB) (err error) {
		if assets, err = clearProfile(tx, userID); err != nil {
			return err
		}
		nullify := []struct {
			model  interface{}
			column string
		}{
			{&Invite{}, "created_by_id"},
			{&Invite{}, "used_by_id"},
			{&UserBadge{}, "assigned_by_id"},
			{&Grant{}, "grantor_id"},
			{&Motd{}, "updated_by_id"},
			{&User{}, "invited_by_id"},
		}
		for _, n := range nullify {
			if err = tx.Model(n.model).Where(n.column+" = ?", userID).Update(n.column, nil).Error; err != nil {
				return err
			}
		}
		if err = tx.Where("user_id = ?", userID).Delete(&UserBadge{}).Error; err != nil {
			return err
		}
		if err = tx.Where("user_id = ?", userID).Delete(&Grant{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&User{}, "id = ?", userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	deleteObjects(assets)
	return nil
}
