package redis

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidsinhalf/mayocat-shop/internal/storage"
	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
)

var _ storage.Storage = (*Storage)(nil)

func setupTestRedis(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client), mr
}

func TestStorage_Upload(t *testing.T) {
	s, mr := setupTestRedis(t)

	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	res, err := s.Upload(context.Background(), &storage.UploadInput{
		Key:         "acme/attachments/1",
		ContentType: "image/png",
		Data:        bytes.NewReader(payload),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), res.Size)

	assert.True(t, mr.Exists("blob:acme/attachments/1"))
	assert.Equal(t, "image/png", mr.HGet("blob:acme/attachments/1", "content_type"))
	assert.Equal(t, string(payload), mr.HGet("blob:acme/attachments/1", "data"))
}

func TestStorage_Open(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, &storage.UploadInput{
		Key:         "acme/attachments/2",
		ContentType: "application/pdf",
		Data:        bytes.NewReader([]byte("%PDF-1.4")),
	})
	require.NoError(t, err)

	obj, err := s.Open(ctx, "acme/attachments/2")
	require.NoError(t, err)
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, int64(8), obj.Size)
}

func TestStorage_Open_NotFound(t *testing.T) {
	s, _ := setupTestRedis(t)

	_, err := s.Open(context.Background(), "acme/attachments/missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestStorage_Delete(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, &storage.UploadInput{Key: "k", Data: bytes.NewReader([]byte("x"))})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "k"))
	assert.False(t, mr.Exists("blob:k"))
	assert.True(t, errors.Is(s.Delete(ctx, "k"), apperrors.ErrNotFound))
}

func TestStorage_RedisDown(t *testing.T) {
	s, mr := setupTestRedis(t)
	mr.Close()

	_, err := s.Upload(context.Background(), &storage.UploadInput{Key: "k", Data: bytes.NewReader([]byte("x"))})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis hset blob")
}
