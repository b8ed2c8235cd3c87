package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"Shelfwave/config"
	"Shelfwave/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio connects the cover art object store and ensures the bucket
// exists.
func InitMinio() error {
	cfg := config.Load()

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("created cover art bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("minio client initialized", logger.String("endpoint", cfg.MinioEndpoint))
	return nil
}

// UploadCover stores a cover art image and returns its object name.
func UploadCover(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("minio client not initialized")
	}
	cfg := config.Load()

	_, err := minioClient.PutObject(ctx, cfg.MinioBucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cover: %w", err)
	}
	return objectName, nil
}

// CoverURL returns a presigned download URL for a stored cover.
func CoverURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("minio client not initialized")
	}
	cfg := config.Load()

	u, err := minioClient.PresignedGetObject(ctx, cfg.MinioBucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign cover url: %w", err)
	}
	return u.String(), nil
}
