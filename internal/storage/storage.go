package storage

import (
	"context"
	"io"
)

// Storage defines the interface for attachment blob operations.
type Storage interface {
	// Upload stores a blob under input.Key, replacing any previous content.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// Open returns the blob stored under key. The caller closes Body.
	// A missing key yields a NotFound error.
	Open(ctx context.Context, key string) (*Object, error)

	// Delete removes the blob stored under key.
	Delete(ctx context.Context, key string) error
}

// UploadInput holds the parameters for uploading a blob.
type UploadInput struct {
	Key         string
	ContentType string
	Data        io.Reader
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	Key  string
	Size int64
}

// Object is a stored blob opened for reading.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}
