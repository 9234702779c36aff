package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/contactbook/backend/internal/infra/config"
)

type AvatarStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewAvatarStore(ctx context.Context, cfg *config.Config) (*AvatarStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket: %w", err)
		}
	}

	publicURL := cfg.MinioPublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.MinioEndpoint)
	}

	return &AvatarStore{
		client:    client,
		bucket:    cfg.MinioBucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload overwrites the user's avatar object and returns its public URL.
// The key is stable per user, so re-uploads replace the previous image.
func (s *AvatarStore) Upload(ctx context.Context, username string, r io.Reader, size int64, contentType string) (string, error) {
	key := "avatars/" + username
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put avatar: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key), nil
}
