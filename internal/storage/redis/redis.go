// Package redis stores attachment blobs in Redis hashes.
package redis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/kidsinhalf/mayocat-shop/internal/storage"
	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
)

const keyPrefix = "blob:"

const (
	fieldData        = "data"
	fieldContentType = "content_type"
	fieldSize        = "size"
)

// Storage implements storage.Storage using Redis.
type Storage struct {
	client redis.UniversalClient
}

// New creates a new Redis-backed blob storage.
func New(client redis.UniversalClient) *Storage {
	return &Storage{client: client}
}

// Upload stores the blob as a hash holding its bytes and content type.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	err = s.client.HSet(ctx, keyPrefix+input.Key,
		fieldData, data,
		fieldContentType, input.ContentType,
		fieldSize, len(data),
	).Err()
	if err != nil {
		return nil, fmt.Errorf("redis hset blob: %w", err)
	}

	return &storage.UploadResult{Key: input.Key, Size: int64(len(data))}, nil
}

// Open loads the blob stored under key.
func (s *Storage) Open(ctx context.Context, key string) (*storage.Object, error) {
	fields, err := s.client.HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall blob: %w", err)
	}
	data, ok := fields[fieldData]
	if !ok {
		return nil, apperrors.NotFound("file", key)
	}

	size, err := strconv.ParseInt(fields[fieldSize], 10, 64)
	if err != nil {
		size = int64(len(data))
	}

	return &storage.Object{
		Body:        io.NopCloser(bytes.NewReader([]byte(data))),
		ContentType: fields[fieldContentType],
		Size:        size,
	}, nil
}

// Delete removes the blob stored under key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, keyPrefix+key).Result()
	if err != nil {
		return fmt.Errorf("redis del blob: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("file", key)
	}
	return nil
}
