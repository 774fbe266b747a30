package storage

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sociallink/config"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

// SupabaseObjects is the part of the Supabase Storage client we use
type SupabaseObjects interface {
	UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	DownloadFile(bucketId string, filePath string, urlOptions ...storage_go.UrlOptions) ([]byte, error)
	RemoveFile(bucketId string, paths []string) ([]storage_go.FileUploadResponse, error)
	MoveFile(bucketId string, sourceKey string, destinationKey string) (storage_go.FileUploadResponse, error)
	CreateSignedUrl(bucketId string, filePath string, expiresIn int) (storage_go.SignedUrlResponse, error)
}

// NewSupabaseObjects creates the Storage client for a project. Replaced in tests.
var NewSupabaseObjects = func(projectURL, serviceKey string) (SupabaseObjects, error) {
	client, err := supabase.NewClient(projectURL, serviceKey, nil)
	if err != nil {
		return nil, err
	}
	return client.Storage, nil
}

type SupabaseStorage struct {
	Storage
	client SupabaseObjects
}

func NewSupabaseStorage(bucket *Bucket) (StorageAPI, error) {
	projectURL := bucket.Endpoint
	if projectURL == "" {
		projectURL = config.SUPABASE_URL
	}
	serviceKey := bucket.S3Secret
	if serviceKey == "" {
		serviceKey = config.SUPABASE_SERVICE_KEY
	}
	if projectURL == "" || serviceKey == "" {
		return nil, errors.New("supabase bucket needs a project URL and a service key")
	}
	client, err := NewSupabaseObjects(projectURL, serviceKey)
	if err != nil {
		return nil, err
	}
	return &SupabaseStorage{
		Storage: Storage{
			Bucket: *bucket,
		},
		client: client,
	}, nil
}

func (s *SupabaseStorage) key(path string) string {
	return s.Bucket.GetRemotePath(CleanPath(path))
}

func (s *SupabaseStorage) Save(path string, reader io.Reader, mimeType string) (int64, error) {
	// The client sends the whole body at once anyway
	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, err
	}
	upsert := true
	_, err = s.client.UploadFile(s.Bucket.Name, s.key(path), bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &mimeType,
		Upsert:      &upsert,
	})
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (s *SupabaseStorage) Load(path string, writer io.Writer) (int64, error) {
	data, err := s.client.DownloadFile(s.Bucket.Name, s.key(path))
	if err != nil {
		return 0, err
	}
	n, err := writer.Write(data)
	return int64(n), err
}

func (s *SupabaseStorage) Serve(path string, request *http.Request, writer http.ResponseWriter) {
	data, err := s.client.DownloadFile(s.Bucket.Name, s.key(path))
	if err != nil {
		http.Error(writer, "not found", http.StatusNotFound)
		return
	}
	http.ServeContent(writer, request, path, time.Time{}, bytes.NewReader(data))
}

func (s *SupabaseStorage) Delete(path string) error {
	_, err := s.client.RemoveFile(s.Bucket.Name, []string{s.key(path)})
	return err
}

func (s *SupabaseStorage) Rename(from, to string) error {
	_, err := s.client.MoveFile(s.Bucket.Name, s.key(from), s.key(to))
	return err
}

// Exists downloads the object, the client has no HEAD request
func (s *SupabaseStorage) Exists(path string) (bool, error) {
	_, err := s.client.DownloadFile(s.Bucket.Name, s.key(path))
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// isNotFound matches the Storage API's missing object errors, which carry
// no status code in the body
func isNotFound(err error) bool {
	var storageErr *storage_go.StorageError
	if !errors.As(err, &storageErr) {
		return false
	}
	return storageErr.Status == http.StatusNotFound || strings.Contains(strings.ToLower(storageErr.Message), "not found")
}

func (s *SupabaseStorage) URL(path string, expires time.Duration) (string, error) {
	if expires < presignMinimum {
		expires = presignMinimum
	}
	resp, err := s.client.CreateSignedUrl(s.Bucket.Name, s.key(path), int(expires.Seconds()))
	if err != nil {
		return "", err
	}
	return resp.SignedURL, nil
}
