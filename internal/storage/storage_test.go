package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"alcyxob/therapy-app/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	keys    []string
	expires time.Duration
	err     error
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, expires time.Duration) (string, error) {
	f.keys = append(f.keys, key)
	f.expires = expires
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + key + "?sig=1", nil
}

func TestMediaResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	fs := &fakeStorage{}
	r := NewMediaResolver(fs, 0)

	for _, direct := range []string{"", "/imagenes/balasana.jpg", "https://example.com/v.mp4", "http://x/y"} {
		got, err := r.Resolve(ctx, direct)
		require.NoError(t, err)
		assert.Equal(t, direct, got)
	}
	assert.Empty(t, fs.keys)

	got, err := r.Resolve(ctx, "postures/p1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/postures/p1.jpg?sig=1", got)
	assert.Equal(t, DefaultPresignedURLExpiry, fs.expires)
}

func TestMediaResolver_NoStorage(t *testing.T) {
	r := NewMediaResolver(nil, time.Minute)
	got, err := r.Resolve(context.Background(), "postures/p1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "postures/p1.jpg", got)
}

func TestMediaResolver_Error(t *testing.T) {
	r := NewMediaResolver(&fakeStorage{err: errors.New("boom")}, time.Minute)
	_, err := r.Resolve(context.Background(), "k")
	assert.Error(t, err)
}

func TestS3Storage_PresignIsOffline(t *testing.T) {
	fs, err := NewS3Storage(context.Background(), config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "media",
	})
	require.NoError(t, err)

	u, err := fs.GeneratePresignedDownloadURL(context.Background(), "postures/p1.jpg", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/media/postures/p1.jpg?"), u)
	assert.Contains(t, u, "X-Amz-Signature=")
}
