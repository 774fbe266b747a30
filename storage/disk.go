package storage

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type DiskStorage struct {
	Storage
	// BasePath is a directory (usually mount point of a disk) that is writable by the current process
	BasePath  string
	dirs      map[string]bool
	dirsMutex sync.Mutex
}

func NewDiskStorage(bucket *Bucket) StorageAPI {
	return &DiskStorage{
		BasePath: bucket.Path,
		Storage: Storage{
			Bucket: *bucket,
		},
		dirs: make(map[string]bool, 10),
	}
}

func (s *DiskStorage) createDir(dir string) error {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()

	if ok := s.dirs[dir]; ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.dirs[dir] = true
	return nil
}

func (s *DiskStorage) getFullPath(path string) string {
	return filepath.Join(s.BasePath, CleanPath(path))
}

func (s *DiskStorage) Save(path string, reader io.Reader, mimeType string) (int64, error) {
	fileName := s.getFullPath(path)
	if err := s.createDir(filepath.Dir(fileName)); err != nil {
		return 0, err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return 0, err
	}
	result, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return result, err
}

func (s *DiskStorage) Load(path string, writer io.Writer) (int64, error) {
	file, err := os.Open(s.getFullPath(path))
	if err != nil {
		return 0, err
	}
	defer file.Close()
	return io.Copy(writer, file)
}

// Serve handles byte ranges and conditional requests
func (s *DiskStorage) Serve(path string, request *http.Request, writer http.ResponseWriter) {
	http.ServeFile(writer, request, s.getFullPath(path))
}

func (s *DiskStorage) Delete(path string) error {
	err := os.Remove(s.getFullPath(path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *DiskStorage) Rename(from, to string) error {
	target := s.getFullPath(to)
	if err := s.createDir(filepath.Dir(target)); err != nil {
		return err
	}
	return os.Rename(s.getFullPath(from), target)
}

func (s *DiskStorage) Exists(path string) (bool, error) {
	_, err := os.Stat(s.getFullPath(path))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (s *DiskStorage) URL(path string, expires time.Duration) (string, error) {
	return "", nil
}

func (s *DiskStorage) GetFreeSpace() uint64 {
	return freeSpace(s.BasePath)
}
