package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PhotoStore keeps issue photos in a MinIO bucket. Keys are opaque UUIDs;
// callers get them back and store them on the photo row.
type PhotoStore struct {
	client *minio.Client
	bucket string
}

// Options mirrors the MINIO_* environment configuration.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// NewPhotoStore connects to MinIO and creates the bucket if it does not
// exist yet.
func NewPhotoStore(ctx context.Context, opts Options) (*PhotoStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to minio: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", opts.Bucket, err)
		}
		log.Printf("Created bucket %s", opts.Bucket)
	}

	return &PhotoStore{client: client, bucket: opts.Bucket}, nil
}

// Upload stores one photo and returns its object key. The original
// filename only contributes its extension.
func (s *PhotoStore) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := fmt.Sprintf("issues/%s%s", uuid.NewString(), path.Ext(filename))

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	return key, nil
}

// PresignedURL returns a temporary download link for an object key.
func (s *PhotoStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presigning %s: %w", key, err)
	}
	return u.String(), nil
}

// Delete removes an object. Missing keys are not an error.
func (s *PhotoStore) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
