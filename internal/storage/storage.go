package storage

import (
	"context"
	"strings"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the object storage operations used for posture media.
type FileStorage interface {
	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)
}

// MediaResolver turns the media references stored on postures into URLs a
// client can fetch. Absolute URLs and site paths ("/imagenes/x.jpg") are
// returned unchanged; anything else is treated as an object key and presigned.
type MediaResolver struct {
	storage FileStorage
	expires time.Duration
}

// NewMediaResolver returns a resolver. A nil storage disables presigning.
func NewMediaResolver(storage FileStorage, expires time.Duration) *MediaResolver {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	return &MediaResolver{storage: storage, expires: expires}
}

func (m *MediaResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" || m == nil || m.storage == nil || isDirectURL(ref) {
		return ref, nil
	}
	return m.storage.GeneratePresignedDownloadURL(ctx, ref, m.expires)
}

func isDirectURL(ref string) bool {
	return strings.HasPrefix(ref, "/") ||
		strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://")
}
