package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"documind/internal/config"
)

// minioStore implements FileStore on an S3-compatible backend (MinIO, AWS S3, etc.).
// It is safe for concurrent use by multiple goroutines.
type minioStore struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates a new S3-compatible file store backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (FileStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ms := &minioStore{client: cli, bucket: cfg.Bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return ms, nil
}

// Save streams the content to the owner's namespace under a generated unique key.
func (m *minioStore) Save(ctx context.Context, ownerID, originalName string, r io.Reader, size int64) (FileRef, error) {
	key := buildKey(ownerID, originalName)

	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		UserMetadata: map[string]string{"original-filename": originalName},
	})
	if err != nil {
		return FileRef{}, fmt.Errorf("put object: %w", err)
	}

	return FileRef{
		Key:  key,
		Size: info.Size,
		Ext:  fileExt(originalName),
	}, nil
}

// Open returns the stored content as a ReadCloser along with basic info.
func (m *minioStore) Open(ctx context.Context, key string) (io.ReadCloser, FileInfo, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, FileInfo{}, mapMinioError(err)
	}
	// GetObject is lazy; Stat surfaces a missing key without reading content.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, FileInfo{}, mapMinioError(err)
	}
	return obj, FileInfo{
		Key:         key,
		Size:        st.Size,
		ContentType: st.ContentType,
	}, nil
}

// Remove deletes an object by key. A missing object is treated as success.
func (m *minioStore) Remove(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && errors.Is(mapMinioError(err), ErrNotFound) {
		return nil
	}
	return err
}

// mapMinioError translates the backend's missing-key responses to ErrNotFound.
func mapMinioError(err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return fmt.Errorf("%w: %s", ErrNotFound, resp.Key)
		}
	}
	return err
}
