package repo

import (
	"context"
	"io"
)

// AvatarStore persists avatar images in object storage and returns a
// publicly reachable URL.
type AvatarStore interface {
	Upload(ctx context.Context, username string, r io.Reader, size int64, contentType string) (string, error)
}
