// Package storage wraps the object store keeping receipt attachments
// and organization logos. Objects are addressed by generated keys; the
// rest of the service never sees bucket or endpoint details.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ledger-service/pkg/config"
)

// DefaultPresignExpiry is how long a download link stays valid.
const DefaultPresignExpiry = time.Hour

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// ObjectStore is a MinIO-backed blob store.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// New connects to the configured endpoint. The connection is lazy; a
// bad endpoint surfaces on first use.
func New(cfg *config.S3Config) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return &ObjectStore{client: client, bucket: cfg.Bucket}, nil
}

// GenerateKey builds an object key scoped by organization slug:
// artifacts/{slug}/{year}/{month}/{unixms}_{sanitized filename}
func GenerateKey(orgSlug, filename string) string {
	now := time.Now()
	sanitized := strings.ToLower(unsafeKeyChars.ReplaceAllString(filename, "_"))
	return fmt.Sprintf("artifacts/%s/%d/%02d/%d_%s",
		orgSlug, now.Year(), int(now.Month()), now.UnixMilli(), sanitized)
}

// Upload writes a blob under the given key.
func (s *ObjectStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// Delete removes a blob.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// PresignedURL returns a temporary download link for a blob.
func (s *ObjectStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}
	return u.String(), nil
}
