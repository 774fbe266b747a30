package handlers

import (
	"errors"
	"net/http"
	"sociallink/db"
	"sociallink/models"
	"sociallink/storage"
	"sociallink/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BucketSave creates or replaces the bucket used for a kind.
// Objects already stored are not moved: when the location changes the old
// bucket is retired and keeps serving them.
func BucketSave(c *gin.Context, user *models.User) {
	bucket := storage.Bucket{}
	err := c.ShouldBindWith(&bucket, binding.JSON)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if !storage.IsKind(bucket.Kind) {
		c.JSON(http.StatusBadRequest, Response{"unknown kind"})
		return
	}
	existing := storage.Bucket{}
	err = db.Instance.First(&existing, "kind = ? AND retired = ?", bucket.Kind, false).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	bucket.ID, bucket.CreatedAt = 0, 0
	bucket.Retired = false
	if existing.ID != 0 && bucket.SameLocation(&existing) {
		// Only credentials or region changed
		bucket.ID = existing.ID
		bucket.CreatedAt = existing.CreatedAt
	}
	if bucket.S3Secret == existing.Redacted().S3Secret {
		// The client sent back the redacted value
		bucket.S3Secret = existing.S3Secret
	}
	if err = bucket.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err = bucket.TryInit(); err != nil {
		c.JSON(http.StatusForbidden, Response{err.Error()})
		return
	}
	s, err := storage.NewStorage(&bucket)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err = storage.CheckWriteAccess(s); err != nil {
		c.JSON(http.StatusForbidden, Response{"No write access to bucket: " + err.Error()})
		return
	}
	if bucket.ID != 0 {
		err = db.Instance.Save(&bucket).Error
	} else {
		err = db.Instance.Transaction(func(tx *gorm.DB) error {
			if existing.ID != 0 {
				if err := tx.Model(&existing).Update("retired", true).Error; err != nil {
					return err
				}
			}
			return tx.Create(&bucket).Error
		})
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	// Re-initialize storage
	if err = storage.Reload(); err != nil {
		utils.Log.Error("storage reload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, StorageErrResponse)
		return
	}
	utils.Log.Info("bucket saved", zap.String("kind", bucket.Kind), zap.String("by", user.Username))
	c.JSON(http.StatusOK, bucket.Redacted())
}

func BucketList(c *gin.Context, user *models.User) {
	buckets := []storage.Bucket{}
	result := db.Instance.Order("kind, id").Find(&buckets)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	for i := range buckets {
		buckets[i] = buckets[i].Redacted()
	}
	c.JSON(http.StatusOK, buckets)
}
