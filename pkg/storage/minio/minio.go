package minio

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/wdm0006/sparkify/pkg/logger"
	"github.com/wdm0006/sparkify/pkg/storage"
)

// Options points the client at an S3-compatible endpoint.
type Options struct {
	Endpoint        string
	UseSSL          bool
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type MinioStorage struct {
	client *minio.Client
	bucket string
	logger logger.Logger
}

func New(bucket string, opts Options, log logger.Logger) (*MinioStorage, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("minio: no endpoint configured")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	log.Debug("MinIO store ready",
		logger.String("endpoint", opts.Endpoint),
		logger.String("bucket", bucket),
	)
	return &MinioStorage{client: client, bucket: bucket, logger: log}, nil
}

func (m *MinioStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s/%s: %w", m.bucket, prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MinioStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	// GetObject is lazy; stat first so a missing key fails here.
	if ok, err := m.Exists(ctx, key); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: %s/%s", storage.ErrNotExist, m.bucket, key)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", m.bucket, key, err)
	}
	return obj, nil
}

func (m *MinioStorage) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", m.bucket, key, err)
	}
	return nil
}

func (m *MinioStorage) DeletePrefix(ctx context.Context, prefix string) error {
	objects := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	for rerr := range m.client.RemoveObjects(ctx, m.bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return fmt.Errorf("failed to delete %s/%s: %w", m.bucket, rerr.ObjectName, rerr.Err)
		}
	}
	return nil
}

func (m *MinioStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s/%s: %w", m.bucket, key, err)
}
