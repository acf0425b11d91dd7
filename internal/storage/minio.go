package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/docvault/backend/internal/config"
	"github.com/docvault/backend/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps content in an S3-compatible bucket. Object keys are
// "<resolved path>/<file id>", mirroring the local driver's layout.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(cfg config.MinIOConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

// CreateNamespace is a no-op: object stores have no directories, the
// per-user prefix comes into existence with the first object under it.
func (s *MinioStore) CreateNamespace(ctx context.Context, rootFolderID string) error {
	return nil
}

func (s *MinioStore) WriteStream(ctx context.Context, resolvedPath, fileID string, r io.Reader) (int64, error) {
	objectName := resolvedPath + "/" + fileID

	info, err := s.client.PutObject(ctx, s.bucket, objectName, r, -1, minio.PutObjectOptions{})
	if err != nil {
		logger.Error("minio_store_write_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      s.bucket,
		})
		return 0, err
	}

	logger.Info("minio_store_write_success", map[string]interface{}{
		"object_name": objectName,
		"size":        info.Size,
		"bucket":      s.bucket,
	})
	return info.Size, nil
}

func (s *MinioStore) OpenRead(ctx context.Context, resolvedPath, fileID string) (io.ReadCloser, int64, error) {
	objectName := resolvedPath + "/" + fileID

	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, err
	}

	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, 0, ErrObjectNotFound
		}
		logger.Error("minio_store_stat_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      s.bucket,
		})
		return nil, 0, err
	}

	return obj, stat.Size, nil
}
