package storage

import (
	"context"
	"io"
	"strings"
)

// BlobStore holds lesson media (audio clips, images, video). Lesson content
// refers to stored objects with "blob:<key>" URLs.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, key string) (string, error)
}

const BlobScheme = "blob:"

// BlobKey reports the object key of a blob: URL.
func BlobKey(url string) (string, bool) {
	if !strings.HasPrefix(url, BlobScheme) {
		return "", false
	}
	key := strings.TrimPrefix(url, BlobScheme)
	return key, key != ""
}
