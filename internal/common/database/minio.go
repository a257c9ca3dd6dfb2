package database

import (
	"context"
	"fmt"
	"strings"

	"loan-eligibility/internal/common/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient wraps the object storage client holding model artifacts.
type MinioClient struct {
	Client *minio.Client
	Bucket string
}

func NewMinio(cfg config.StorageConfig) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(cfg.Minio.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}
	return &MinioClient{Client: client, Bucket: cfg.Minio.Bucket}, nil
}

// Ping checks that the artifact bucket is reachable.
func (c *MinioClient) Ping(ctx context.Context) error {
	exists, err := c.Client.BucketExists(ctx, c.Bucket)
	if err != nil {
		return fmt.Errorf("minio ping failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio bucket %s does not exist", c.Bucket)
	}
	return nil
}
