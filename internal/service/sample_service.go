package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// SampleService 学习者样本归档：口语音频与写作文本进对象存储，
// 口语样本另在库里留一条带音频元数据的记录。
// 未配置对象存储时服务可用但归档为空操作。
type SampleService struct {
	Repo   *repository.SampleRepository
	client *minio.Client
	bucket string
}

func NewSampleService(cfg config.StorageConfig, repo *repository.SampleRepository) *SampleService {
	s := &SampleService{Repo: repo, bucket: cfg.MinioBucket}
	if cfg.MinioEndpoint == "" {
		logger.Log.Warn("object storage not configured, sample archiving disabled")
		return s
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		logger.Log.Error("minio client init failed", zap.Error(err))
		return s
	}
	s.client = client
	s.ensureBucket()
	return s
}

func (s *SampleService) ensureBucket() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		logger.Log.Error("bucket check failed", zap.String("bucket", s.bucket), zap.Error(err))
		return
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			logger.Log.Error("bucket create failed", zap.String("bucket", s.bucket), zap.Error(err))
		}
	}
}

// UploadSpeaking 归档一段口语音频：先探测元数据，再上传对象存储并落库
func (s *SampleService) UploadSpeaking(learnerID uint, localPath, originalName string) (*model.SpeakingSample, error) {
	info, err := util.GetAudioInfo(localPath)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(originalName)
	objectKey := fmt.Sprintf("speaking/%d/%s%s", learnerID, uuid.New().String(), ext)

	if s.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err = s.client.FPutObject(ctx, s.bucket, objectKey, localPath, minio.PutObjectOptions{
			ContentType: "audio/" + strings.TrimPrefix(ext, "."),
		})
		if err != nil {
			return nil, err
		}
	}

	sample := &model.SpeakingSample{
		LearnerID:       learnerID,
		ObjectKey:       objectKey,
		DurationSeconds: info.Duration,
		Format:          info.Format,
		SizeBytes:       info.Size,
	}
	if err := s.Repo.Create(sample); err != nil {
		return nil, err
	}
	return sample, nil
}

// ArchiveText 写作文本归档，只进对象存储不落库
func (s *SampleService) ArchiveText(learnerID uint, text string) error {
	if s.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectKey := fmt.Sprintf("writing/%d/%s.txt", learnerID, uuid.New().String())
	reader := strings.NewReader(text)
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, int64(reader.Len()),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	return err
}

func (s *SampleService) ListSpeaking(learnerID uint) ([]model.SpeakingSample, error) {
	return s.Repo.ListByLearner(learnerID)
}
