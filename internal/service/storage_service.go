package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ib_quiz_backend/internal/config"
	"ib_quiz_backend/internal/model"
	"ib_quiz_backend/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 通用对象存储接口
type StorageProvider interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filename)
	dir := filepath.Dir(dst)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err = io.Copy(out, reader); err != nil {
		return "", err
	}
	return dst, nil
}

// MinioStorageProvider MinIO实现
type MinioStorageProvider struct {
	Client *minio.Client
	Bucket string
}

func (p *MinioStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Bucket, filename, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", p.Bucket, filename), nil
}

// StorageService OCR提交图片的归档存储，便于后续人工复核与数据集构建
type StorageService struct {
	provider StorageProvider
}

func NewStorageService(cfg *config.Config) *StorageService {
	if cfg.Storage.Type == "minio" && cfg.Storage.MinioEndpoint != "" {
		client, err := minio.New(cfg.Storage.MinioEndpoint, &minio.Options{
			Creds: credentials.NewStaticV4(cfg.Storage.MinioAccessID, cfg.Storage.MinioSecret, ""),
		})
		if err != nil {
			logger.Log.Error("failed to init minio client, falling back to local storage", zap.Error(err))
		} else {
			return &StorageService{provider: &MinioStorageProvider{Client: client, Bucket: cfg.Storage.MinioBucket}}
		}
	}

	local := cfg.Storage
	if local.LocalPath == "" {
		local.LocalPath = "uploads"
	}
	return &StorageService{provider: &LocalStorageProvider{Config: &local}}
}

// ArchiveOCRImage 归档一次OCR提交，失败只记日志不影响识别结果
func (s *StorageService) ArchiveOCRImage(ctx context.Context, data []byte, contentType string) {
	ext := ".png"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	}
	filename := "ocr/" + time.Now().Format("20060102") + "/" + model.GenerateUUID() + ext

	if _, err := s.provider.Upload(ctx, filename, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		logger.Log.Warn("failed to archive ocr image", zap.Error(err))
	}
}
