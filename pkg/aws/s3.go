package aws

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"imagematch/pkg/config"

	"github.com/gofiber/storage/s3/v2"
)

const (
	TrainingPrefix = "training"
	FilterPrefix   = "filters"
)

type Uploader interface {
	Upload(key string, data []byte) error
}

type S3 struct {
	bucket *s3.Storage
}

func NewS3Bucket(appConfig *config.AppConfig) *S3 {
	s3 := s3.New(s3.Config{
		Endpoint: appConfig.AWSEndpoint,
		Bucket:   appConfig.AWSBucket,
		Region:   appConfig.AWSDefaultRegion,
		Credentials: s3.Credentials{
			AccessKey:       appConfig.AWSAccessKey,
			SecretAccessKey: appConfig.AWSSecretKey,
		},
		MaxAttempts:    3,
		RequestTimeout: time.Second * 10,
		Reset:          false,
	})

	return &S3{
		bucket: s3,
	}
}

// Upload stores data under key. Objects do not expire.
func (s *S3) Upload(key string, data []byte) error {
	return s.bucket.Set(key, data, 0)
}

func (s *S3) Close() error {
	return s.bucket.Close()
}

// ObjectKey is the bucket key for a local file published under prefix.
func ObjectKey(prefix, file string) string {
	return path.Join(prefix, filepath.Base(file))
}

// UploadFile reads file and uploads it under prefix. It returns the key used.
func UploadFile(u Uploader, prefix, file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}

	key := ObjectKey(prefix, file)
	if err := u.Upload(key, data); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}
