package storage

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type S3Storage struct {
	Storage
	s3Client *s3.S3
}

func NewS3Storage(bucket *Bucket) StorageAPI {
	return &S3Storage{
		Storage: Storage{
			Bucket: *bucket,
		},
		s3Client: bucket.CreateSVC(),
	}
}

func (s *S3Storage) key(path string) *string {
	return aws.String(s.Bucket.GetRemotePath(CleanPath(path)))
}

func (s *S3Storage) Save(path string, reader io.Reader, mimeType string) (int64, error) {
	counter := &countingReader{Reader: reader}
	uploader := s3manager.NewUploaderWithClient(s.s3Client)
	_, err := uploader.Upload(&s3manager.UploadInput{
		Bucket:      &s.Bucket.Name,
		Key:         s.key(path),
		ContentType: aws.String(mimeType),
		Body:        counter,
	})
	return counter.n, err
}

func (s *S3Storage) Load(path string, writer io.Writer) (int64, error) {
	resp, err := s.s3Client.GetObject(&s3.GetObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    s.key(path),
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(writer, resp.Body)
}

func (s *S3Storage) Serve(path string, request *http.Request, writer http.ResponseWriter) {
	input := &s3.GetObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    s.key(path),
	}
	if r := request.Header.Get("Range"); r != "" {
		input.Range = aws.String(r)
	}
	resp, err := s.s3Client.GetObject(input)
	if err != nil {
		http.Error(writer, "not found", http.StatusNotFound)
		return
	}
	defer resp.Body.Close()
	if resp.ContentType != nil {
		writer.Header().Set("content-type", *resp.ContentType)
	}
	if resp.ContentLength != nil {
		writer.Header().Set("content-length", strconv.FormatInt(*resp.ContentLength, 10))
	}
	status := http.StatusOK
	if resp.ContentRange != nil {
		writer.Header().Set("content-range", *resp.ContentRange)
		status = http.StatusPartialContent
	}
	writer.WriteHeader(status)
	_, _ = io.Copy(writer, resp.Body)
}

func (s *S3Storage) Delete(path string) error {
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    s.key(path),
	})
	return err
}

// Rename copies the object and deletes the original (S3 has no move)
func (s *S3Storage) Rename(from, to string) error {
	source := s.Bucket.Name + "/" + *s.key(from)
	_, err := s.s3Client.CopyObject(&s3.CopyObjectInput{
		Bucket:     &s.Bucket.Name,
		CopySource: aws.String(url.PathEscape(source)),
		Key:        s.key(to),
	})
	if err != nil {
		return err
	}
	return s.Delete(from)
}

func (s *S3Storage) Exists(path string) (bool, error) {
	_, err := s.s3Client.HeadObject(&s3.HeadObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    s.key(path),
	})
	if err != nil {
		var reqErr awserr.RequestFailure
		if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *S3Storage) URL(path string, expires time.Duration) (string, error) {
	if expires < presignMinimum {
		expires = presignMinimum
	}
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    s.key(path),
	})
	return req.Presign(expires)
}

type countingReader struct {
	io.Reader
	n int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.n += int64(n)
	return n, err
}
