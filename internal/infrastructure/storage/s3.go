// Package storage implements ports.ObjectStorage on S3-compatible stores and
// in memory.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/ports"
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Storage stores version files in one bucket.
type S3Storage struct {
	client *minio.Client
	bucket string
	log    zerolog.Logger
}

func NewS3Storage(ctx context.Context, cfg S3Config, log zerolog.Logger) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	s := &S3Storage{client: client, bucket: cfg.Bucket, log: log}
	if err := s.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *S3Storage) ensureBucket(ctx context.Context, region string) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.log.Info().Str("bucket", s.bucket).Msg("bucket created")
	return nil
}

// PutObject uploads body and returns the object's public location.
func (s *S3Storage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, body, size, opts); err != nil {
		return "", err
	}
	return s.location(key), nil
}

func (s *S3Storage) SignedURL(ctx context.Context, key string, mode ports.SignMode, ttl time.Duration) (string, error) {
	switch mode {
	case ports.SignPut:
		u, err := s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	default:
		u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	}
}

func (s *S3Storage) DeleteObject(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// Ping reports whether the bucket is reachable.
func (s *S3Storage) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

func (s *S3Storage) location(key string) string {
	base := strings.TrimSuffix(s.client.EndpointURL().String(), "/")
	return base + "/" + s.bucket + "/" + key
}

var _ ports.ObjectStorage = (*S3Storage)(nil)
