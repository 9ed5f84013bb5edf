package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kidsinhalf/mayocat-shop/internal/storage"
	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
)

type blob struct {
	contentType string
	data        []byte
}

// Storage implements storage.Storage using an in-memory map.
type Storage struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// New creates a new in-memory storage instance.
func New() *Storage {
	return &Storage{blobs: make(map[string]blob)}
}

// Upload reads input.Data fully and keeps it in memory.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[input.Key] = blob{contentType: input.ContentType, data: data}

	return &storage.UploadResult{Key: input.Key, Size: int64(len(data))}, nil
}

func (s *Storage) Open(_ context.Context, key string) (*storage.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[key]
	if !ok {
		return nil, apperrors.NotFound("file", key)
	}
	return &storage.Object{
		Body:        io.NopCloser(bytes.NewReader(b.data)),
		ContentType: b.contentType,
		Size:        int64(len(b.data)),
	}, nil
}

// Delete removes a blob from memory.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blobs[key]; !exists {
		return apperrors.NotFound("file", key)
	}
	delete(s.blobs, key)
	return nil
}

// Len returns the number of stored blobs.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
