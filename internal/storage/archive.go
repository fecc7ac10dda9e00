package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"SalesReport/internal/config"
)

// Archiver 把本地保存的音频/文本副本归档到 MinIO 对象存储。
// 归档是规范化阶段的尽力而为副作用，失败不阻断抽取管道。
type Archiver struct {
	client *minio.Client
	bucket string
}

// NewArchiver 创建一个 Archiver 并执行一次简单的健康检查。
func NewArchiver(ctx context.Context, cfg config.MinIOConfig) (*Archiver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("无法创建 MinIO 客户端: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("MinIO 健康检查失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("归档存储桶创建失败: %w", err)
		}
	}
	return &Archiver{client: client, bucket: cfg.Bucket}, nil
}

// Archive 把本地文件按原文件名上传到归档桶。对象名即带时间戳的本地文件名，
// 天然避免冲突。
func (a *Archiver) Archive(ctx context.Context, localPath string) error {
	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(localPath); err == nil {
		contentType = mtype.String()
	}

	objectName := filepath.Base(localPath)
	_, err := a.client.FPutObject(ctx, a.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("归档上传失败: %w", err)
	}
	return nil
}
