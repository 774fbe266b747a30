package models

import (
	"errors"
	"fmt"
	"io"
	"sociallink/db"
	"sociallink/storage"
	"strconv"
	"time"

	"gorm.io/gorm"
)

const (
	presignViewURLFor      = time.Hour * 24
	presignValidAtLeastFor = time.Minute * 30
)

// Allowed upload types per kind, mapped to the stored file extension
var assetMimeTypes = map[string]map[string]string{
	storage.KindAvatar: {
		"image/png": ".png", "image/jpeg": ".jpg", "image/gif": ".gif", "image/webp": ".webp",
	},
	storage.KindBanner: {
		"image/png": ".png", "image/jpeg": ".jpg", "image/gif": ".gif", "image/webp": ".webp",
	},
	storage.KindBackground: {
		"image/png": ".png", "image/jpeg": ".jpg", "image/gif": ".gif", "image/webp": ".webp",
		"video/mp4": ".mp4", "video/webm": ".webm",
	},
	storage.KindCursor: {
		"image/png": ".png", "image/x-icon": ".ico", "image/vnd.microsoft.icon": ".ico", "image/gif": ".gif",
	},
	storage.KindAudio: {
		"audio/mpeg": ".mp3", "audio/mp3": ".mp3", "audio/ogg": ".ogg", "audio/wav": ".wav", "audio/x-wav": ".wav",
	},
}

type Asset struct {
	ID             uint64         `gorm:"primaryKey" json:"-"`
	CreatedAt      int64          `json:"created_at"`
	UpdatedAt      int64          `json:"updated_at"`
	UserID         string         `gorm:"type:varchar(36);not null;index:user_kind,unique,priority:1" json:"-"`
	User           *User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Kind           string         `gorm:"type:varchar(20);not null;index:user_kind,unique,priority:2" json:"kind"`
	BucketID       uint64         `json:"-"`
	Bucket         storage.Bucket `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Path           string         `gorm:"type:varchar(300);not null" json:"-"` // <username><ext>
	MimeType       string         `gorm:"type:varchar(50)" json:"mime_type"`
	Size           int64          `json:"size"`
	PresignedUntil int64          `json:"-"`
	PresignedURL   string         `gorm:"type:varchar(2000)" json:"-"`
}

// AssetExtension returns the file extension for an allowed upload
func AssetExtension(kind, mimeType string) (string, bool) {
	ext, ok := assetMimeTypes[kind][mimeType]
	return ext, ok
}

// AssetPath is where a user's asset is stored inside its kind's bucket
func AssetPath(username, ext string) string {
	return username + ext
}

func AssetsFor(userID string) (assets []Asset, err error) {
	assets = []Asset{}
	err = db.Instance.Where("user_id = ?", userID).Order("kind").Find(&assets).Error
	return
}

func AssetFor(userID, kind string) (a Asset, err error) {
	err = db.Instance.First(&a, "user_id = ? AND kind = ?", userID, kind).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrNotFound
	}
	return
}

// SaveAsset stores the data in the kind's bucket and upserts the row.
// An older object with a different extension is removed afterwards.
func SaveAsset(user *User, kind, mimeType string, reader io.Reader) (a Asset, err error) {
	ext, ok := AssetExtension(kind, mimeType)
	if !ok {
		return a, invalid(fmt.Sprintf("%s does not accept %q", kind, mimeType))
	}
	s := storage.StorageFor(kind)
	if s == nil {
		return a, fmt.Errorf("no storage for %s", kind)
	}
	previous, err := AssetFor(user.ID, kind)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return a, err
	}
	path := AssetPath(user.Username, ext)
	size, err := s.Save(path, reader, mimeType)
	if err != nil {
		return a, fmt.Errorf("save %s: %w", kind, err)
	}
	a = previous
	a.UserID = user.ID
	a.Kind = kind
	a.BucketID = s.GetBucket().ID
	a.Path = path
	a.MimeType = mimeType
	a.Size = size
	a.PresignedURL = ""
	a.PresignedUntil = 0
	if err = db.Instance.Save(&a).Error; err != nil {
		// The previous row still points at an overwritten object, keep it
		if previous.ID == 0 || previous.Path != path || previous.BucketID != a.BucketID {
			_ = s.Delete(path)
		}
		return a, err
	}
	if previous.ID != 0 && (previous.Path != path || previous.BucketID != a.BucketID) {
		if old := storage.StorageFrom(&storage.Bucket{ID: previous.BucketID}); old != nil {
			_ = old.Delete(previous.Path)
		}
	}
	return a, nil
}

// DeleteAsset removes the row and then the stored object
func DeleteAsset(userID, kind string) error {
	a, err := AssetFor(userID, kind)
	if err != nil {
		return err
	}
	if err = db.Instance.Delete(&a).Error; err != nil {
		return err
	}
	if s := a.Storage(); s != nil {
		return s.Delete(a.Path)
	}
	return nil
}

func (a *Asset) Storage() storage.StorageAPI {
	return storage.StorageFrom(&storage.Bucket{ID: a.BucketID})
}

// GetURL returns a signed URL for remote buckets (cached in the row)
// and the public asset route otherwise
func (a *Asset) GetURL(username string) string {
	local := "/u/" + username + "/asset/" + a.Kind + "?v=" + strconv.FormatInt(a.UpdatedAt, 10)
	s := a.Storage()
	if s == nil || !s.GetBucket().IsRemote() {
		return local
	}
	if a.PresignedURL == "" || a.PresignedUntil < time.Now().Add(presignValidAtLeastFor).Unix() {
		url, err := s.URL(a.Path, presignViewURLFor)
		if err != nil || url == "" {
			return local
		}
		a.PresignedURL = url
		a.PresignedUntil = time.Now().Add(presignViewURLFor).Unix()
		db.Instance.Model(a).UpdateColumns(map[string]interface{}{
			"presigned_url":   a.PresignedURL,
			"presigned_until": a.PresignedUntil,
		})
	}
	return a.PresignedURL
}
