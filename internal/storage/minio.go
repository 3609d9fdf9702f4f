package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// ObjectStore хранит выгрузки счетов.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, name string, expiry time.Duration) (string, error)
}

type MinIOStore struct {
	client     *minio.Client
	bucketName string
}

// NewMinIOStore создаёт клиент и bucket, если его ещё нет.
func NewMinIOStore(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logrus.WithField("bucket", bucketName).Info("bucket created")
	}

	return &MinIOStore{client: client, bucketName: bucketName}, nil
}

func (m *MinIOStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucketName, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return nil
}

func (m *MinIOStore) PresignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = time.Hour
	}
	url, err := m.client.PresignedGetObject(ctx, m.bucketName, name, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}
