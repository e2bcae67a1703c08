package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrIncompleteS3Config is returned when required S3 settings are missing.
var ErrIncompleteS3Config = errors.New("incomplete S3 configuration")

const signedURLTTL = 5 * time.Minute

// S3Config carries the settings for an S3-compatible object store. Endpoint
// is required so MinIO-style deployments work without AWS-specific lookup.
type S3Config struct {
	Endpoint  string
	Region    string
	KeyID     string
	AccessKey string
	Bucket    string
	Timeout   time.Duration
}

// S3Storage stores preset files in an S3-compatible bucket.
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	timeout time.Duration
}

// NewS3 validates the configuration and builds an S3-backed ObjectStorage.
func NewS3(cfg S3Config) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" ||
		strings.TrimSpace(cfg.Region) == "" ||
		strings.TrimSpace(cfg.KeyID) == "" ||
		strings.TrimSpace(cfg.AccessKey) == "" ||
		strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrIncompleteS3Config
	}

	client := s3.New(s3.Options{
		UsePathStyle: true,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Region:       cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.AccessKey, ""),
		),
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		timeout: timeout,
	}, nil
}

// Upload stores the content under presets/<uuid>/<filename> and returns the key.
func (s *S3Storage) Upload(ctx context.Context, body io.Reader, filename, contentType string) (string, error) {
	key := path.Join("presets", uuid.New().String(), path.Base(filename))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put object: %w", ErrStorageFailure, err)
	}

	return key, nil
}

// Delete removes the object referenced by key.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: delete object: %w", ErrStorageFailure, err)
	}

	return nil
}

// SignedDownloadURL returns a presigned GET URL that serves the object as an
// attachment under the given filename.
func (s *S3Storage) SignedDownloadURL(ctx context.Context, key, downloadFilename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", downloadFilename)),
	}, s3.WithPresignExpires(signedURLTTL))
	if err != nil {
		return "", fmt.Errorf("%w: presign get object: %w", ErrStorageFailure, err)
	}

	return req.URL, nil
}
