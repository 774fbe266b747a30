package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type StorageType uint8

const (
	StorageTypeFile     StorageType = 0
	StorageTypeS3       StorageType = 1 // any S3 compatible endpoint, including Supabase's S3 protocol
	StorageTypeSupabase StorageType = 2 // Supabase Storage REST API
)

// Asset kinds, each one is stored in its own bucket
const (
	KindAvatar     = "avatar"
	KindBackground = "background"
	KindBanner     = "banner"
	KindCursor     = "cursor"
	KindAudio      = "audio"
)

var (
	Kinds = []string{KindAvatar, KindBackground, KindBanner, KindCursor, KindAudio}

	// Default bucket names, as created in the Supabase dashboard
	kindBucketNames = map[string]string{
		KindAvatar:     "avatars",
		KindBackground: "backgrounds",
		KindBanner:     "banners",
		KindCursor:     "cursors",
		KindAudio:      "audio",
	}
)

type Bucket struct {
	ID          uint64      `gorm:"primaryKey" json:"id"`
	CreatedAt   int64       `json:"created_at"`
	UpdatedAt   int64       `json:"updated_at"`
	Name        string      `gorm:"type:varchar(200)" json:"name"` // Remote bucket name (S3, Supabase)
	Kind        string      `gorm:"type:varchar(20);index:idx_bucket_kind" json:"kind"`
	StorageType StorageType `json:"type"`
	Path        string      `gorm:"type:varchar(500)" json:"path"` // Path on a drive or a prefix in a remote bucket
	Endpoint    string      `gorm:"type:varchar(300)" json:"endpoint"`
	Region      string      `gorm:"type:varchar(50)" json:"region"`
	S3Key       string      `gorm:"type:varchar(300)" json:"s3_key"`
	S3Secret    string      `gorm:"type:varchar(500)" json:"s3_secret"`    // For Supabase buckets this is an optional service key
	Retired     bool        `gorm:"not null;default:false" json:"retired"` // Only serves assets saved before the kind moved
}

func IsKind(kind string) bool {
	_, ok := kindBucketNames[kind]
	return ok
}

func (b *Bucket) IsS3() bool {
	return b.StorageType == StorageTypeS3
}

func (b *Bucket) IsRemote() bool {
	return b.StorageType != StorageTypeFile
}

// SameLocation reports whether both buckets point to the same objects
func (b *Bucket) SameLocation(o *Bucket) bool {
	return b.StorageType == o.StorageType && b.Name == o.Name && b.Path == o.Path && b.Endpoint == o.Endpoint
}

// Redacted returns a copy safe to be sent to clients
func (b Bucket) Redacted() Bucket {
	if b.S3Secret != "" {
		b.S3Secret = "********"
	}
	return b
}

// GetRemotePath prefixes the path with the bucket Path (if any)
func (b *Bucket) GetRemotePath(path string) string {
	prefix := strings.Trim(b.Path, "/")
	if prefix == "" {
		return path
	}
	return prefix + "/" + path
}

// CleanPath removes anything that could escape the bucket
func CleanPath(path string) string {
	for strings.Contains(path, "..") {
		path = strings.ReplaceAll(path, "..", "")
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return strings.TrimPrefix(path, "/")
}

func (b *Bucket) Validate() error {
	if !IsKind(b.Kind) {
		return errors.New("'kind' must be one of: " + strings.Join(Kinds, ", "))
	}
	switch b.StorageType {
	case StorageTypeFile:
		if b.Path == "" {
			return errors.New("empty bucket path")
		}
		if !filepath.IsAbs(b.Path) {
			return errors.New("path must be absolute")
		}
	case StorageTypeS3:
		if b.Name == "" {
			return errors.New("empty bucket name")
		}
		if b.S3Key == "" || b.S3Secret == "" {
			return errors.New("'S3 Key' and 'S3 Secret' must be provided")
		}
		if b.Region == "" {
			b.Region = "us-east-1"
		}
	case StorageTypeSupabase:
		if b.Name == "" {
			return errors.New("empty bucket name")
		}
	default:
		return errors.New("'type' must be one of 0 (file), 1 (s3) or 2 (supabase)")
	}
	return nil
}

// TryInit prepares the bucket location (creates the directory for local buckets)
func (b *Bucket) TryInit() error {
	if b.StorageType == StorageTypeFile {
		return os.MkdirAll(b.Path, 0o755)
	}
	return nil
}

func (b *Bucket) CreateSVC() *s3.S3 {
	cfg := &aws.Config{
		Region:           aws.String(b.Region),
		Credentials:      credentials.NewStaticCredentials(b.S3Key, b.S3Secret, ""),
		S3ForcePathStyle: aws.Bool(true),
		HTTPClient:       httpClient,
	}
	if b.Endpoint != "" {
		cfg.Endpoint = aws.String(b.Endpoint)
	}
	sess := session.Must(session.NewSession(cfg))
	return s3.New(sess)
}

const presignMinimum = time.Minute
