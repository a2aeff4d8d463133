// Package blobstore stores product images. S3Store talks to any
// S3-compatible service (AWS, MinIO); MemoryStore keeps blobs in process.
package blobstore

import (
	"context"
	"io"
)

// Store uploads a blob under key and returns the URL it is readable at.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}
