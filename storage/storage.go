package storage

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sociallink/config"
	"sociallink/db"
	"sociallink/utils"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type StorageAPI interface {
	Save(path string, reader io.Reader, mimeType string) (int64, error)
	Load(path string, writer io.Writer) (int64, error)
	Serve(path string, request *http.Request, writer http.ResponseWriter)
	Delete(path string) error
	Rename(from, to string) error
	Exists(path string) (bool, error)
	// URL returns a signed download URL for remote buckets and "" for local ones
	URL(path string, expires time.Duration) (string, error)
	GetFreeSpace() uint64
	GetBucket() *Bucket
}

type Storage struct {
	Bucket Bucket
}

var (
	httpClient = &http.Client{Timeout: 30 * time.Second}

	mutex         sync.RWMutex
	cachedStorage = map[string]StorageAPI{} // active bucket by asset kind
	storageByID   = map[uint64]StorageAPI{} // every bucket, retired ones included
)

func (s *Storage) GetBucket() *Bucket {
	return &s.Bucket
}

// GetFreeSpace returns 0 when unknown (remote buckets)
func (s *Storage) GetFreeSpace() uint64 {
	return 0
}

func NewStorage(bucket *Bucket) (StorageAPI, error) {
	switch bucket.StorageType {
	case StorageTypeFile:
		return NewDiskStorage(bucket), nil
	case StorageTypeS3:
		return NewS3Storage(bucket), nil
	case StorageTypeSupabase:
		return NewSupabaseStorage(bucket)
	}
	return nil, fmt.Errorf("storage type unavailable for bucket %d", bucket.ID)
}

// Init loads all buckets, creating the missing ones from config
func Init() error {
	if err := db.Instance.AutoMigrate(&Bucket{}); err != nil {
		return err
	}
	// Older schemas allowed a single bucket per kind
	if m := db.Instance.Migrator(); m.HasIndex(&Bucket{}, "idx_buckets_kind") {
		if err := m.DropIndex(&Bucket{}, "idx_buckets_kind"); err != nil {
			return err
		}
	}
	var buckets []Bucket
	if err := db.Instance.Find(&buckets).Error; err != nil {
		return err
	}
	found := map[string]bool{}
	for _, bucket := range buckets {
		if !bucket.Retired {
			found[bucket.Kind] = true
		}
	}
	for _, kind := range Kinds {
		if found[kind] {
			continue
		}
		bucket := DefaultBucket(kind)
		if err := bucket.TryInit(); err != nil {
			return fmt.Errorf("init %s bucket: %w", kind, err)
		}
		if err := db.Instance.Create(&bucket).Error; err != nil {
			return err
		}
		utils.Log.Info("created default bucket", zap.String("kind", kind), zap.String("name", bucket.Name))
		buckets = append(buckets, bucket)
	}
	return load(buckets)
}

func load(buckets []Bucket) error {
	loaded := make(map[string]StorageAPI, len(Kinds))
	byID := make(map[uint64]StorageAPI, len(buckets))
	for i := range buckets {
		bucket := &buckets[i]
		storage, err := NewStorage(bucket)
		if err != nil {
			if bucket.Retired {
				utils.Log.Warn("skipping retired bucket", zap.Uint64("id", bucket.ID), zap.Error(err))
				continue
			}
			return err
		}
		byID[bucket.ID] = storage
		if !bucket.Retired {
			loaded[bucket.Kind] = storage
		}
	}
	mutex.Lock()
	cachedStorage = loaded
	storageByID = byID
	mutex.Unlock()
	utils.Log.Info("storage buckets loaded", zap.Int("active", len(loaded)), zap.Int("count", len(byID)))
	return nil
}

// Reload re-reads the buckets after they were changed
func Reload() error {
	var buckets []Bucket
	if err := db.Instance.Find(&buckets).Error; err != nil {
		return err
	}
	return load(buckets)
}

func DefaultBucket(kind string) Bucket {
	bucket := Bucket{
		Kind:   kind,
		Name:   config.S3_BUCKET_PREFIX + kindBucketNames[kind],
		Region: config.S3_REGION,
	}
	switch config.DEFAULT_STORAGE {
	case "s3":
		bucket.StorageType = StorageTypeS3
		bucket.Endpoint = config.S3_ENDPOINT
		bucket.S3Key = config.S3_KEY
		bucket.S3Secret = config.S3_SECRET
	case "supabase":
		bucket.StorageType = StorageTypeSupabase
	default:
		bucket.StorageType = StorageTypeFile
		dir, err := filepath.Abs(config.DEFAULT_BUCKET_DIR)
		if err != nil {
			dir = config.DEFAULT_BUCKET_DIR
		}
		bucket.Path = filepath.Join(dir, kindBucketNames[kind])
	}
	return bucket
}

// StorageFor returns the storage for the given asset kind or nil
func StorageFor(kind string) StorageAPI {
	mutex.RLock()
	defer mutex.RUnlock()
	return cachedStorage[kind]
}

// StorageFrom returns the storage of any loaded bucket, retired or not
func StorageFrom(bucket *Bucket) StorageAPI {
	mutex.RLock()
	defer mutex.RUnlock()
	if s, ok := storageByID[bucket.ID]; ok {
		return s
	}
	for _, s := range cachedStorage {
		if s.GetBucket().ID == bucket.ID {
			return s
		}
	}
	return nil
}

// All returns the active storages, ordered by kind
func All() []StorageAPI {
	mutex.RLock()
	defer mutex.RUnlock()
	result := []StorageAPI{}
	for _, kind := range Kinds {
		if s, ok := cachedStorage[kind]; ok {
			result = append(result, s)
		}
	}
	return result
}

// SetForTests replaces the storage used for a kind
func SetForTests(kind string, s StorageAPI) {
	mutex.Lock()
	defer mutex.Unlock()
	cachedStorage[kind] = s
	storageByID[s.GetBucket().ID] = s
}

// CheckWriteAccess saves, renames and deletes a test object
func CheckWriteAccess(s StorageAPI) error {
	testPath := "tmp/write-check-" + utils.Rand8BytesToBase62()
	if _, err := s.Save(testPath, strings.NewReader("some-content"), "text/plain"); err != nil {
		return fmt.Errorf("cannot save: %w", err)
	}
	renamed := testPath + "-renamed"
	if err := s.Rename(testPath, renamed); err != nil {
		_ = s.Delete(testPath)
		return fmt.Errorf("cannot rename: %w", err)
	}
	if err := s.Delete(renamed); err != nil {
		return fmt.Errorf("cannot delete: %w", err)
	}
	return nil
}
