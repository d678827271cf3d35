package ports

import (
	"context"
	"io"
	"time"
)

// SignMode selects the operation a presigned URL authorizes.
type SignMode string

const (
	SignGet SignMode = "get"
	SignPut SignMode = "put"
)

// ObjectStorage holds version bytes. DeleteObject is idempotent: a missing
// key is not an error.
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) (location string, err error)
	SignedURL(ctx context.Context, key string, mode SignMode, ttl time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
}
