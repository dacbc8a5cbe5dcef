package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service stores product images in remote object storage.
type Service interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	GetObjectURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// ImageKey builds the object key for a new image uploaded by owner.
func ImageKey(prefix, owner, ext string) string {
	name := uuid.NewString() + strings.ToLower(ext)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return path.Join(owner, name)
	}
	return path.Join(prefix, owner, name)
}

// OwnedBy reports whether key was issued by ImageKey for owner under prefix.
func OwnedBy(key, prefix, owner string) bool {
	want := strings.Trim(prefix, "/")
	if want != "" {
		want += "/"
	}
	want += owner + "/"
	return strings.HasPrefix(key, want) && !strings.Contains(key, "..")
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("object key is required")
	}
	return nil
}
