package service

import (
	"context"
	"fmt"
	"io"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"mime/multipart"
	"path"
	"time"

	"github.com/google/uuid"
)

// MediaStore 课程媒体的删除与时长探测，步骤二只依赖这两个能力
type MediaStore interface {
	Remove(ctx context.Context, path string) error
	ProbeDuration(ctx context.Context, artifact *model.Artifact) (float64, error)
}

// UploadService 把表单文件写入存储并返回文件描述
type UploadService struct {
	Storage *StorageService
}

func NewUploadService(storage *StorageService) *UploadService {
	return &UploadService{Storage: storage}
}

// Save 以文件头识别 MIME 类型，不信任客户端声明的 Content-Type
func (s *UploadService) Save(ctx context.Context, folder string, file *multipart.FileHeader) (*model.Artifact, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mimeType, err := util.DetectMimeType(src)
	if err != nil {
		return nil, fmt.Errorf("detect mime type: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	key := path.Join(folder, time.Now().Format("200601"), uuid.NewString()+util.ExtensionFor(file.Filename, mimeType))
	url, err := s.Storage.Put(ctx, key, src, file.Size, mimeType)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", file.Filename, err)
	}

	return &model.Artifact{
		Path:     key,
		URL:      url,
		Filename: file.Filename,
		MimeType: mimeType,
		Size:     file.Size,
	}, nil
}

func (s *UploadService) Remove(ctx context.Context, key string) error {
	return s.Storage.Remove(ctx, key)
}

// ProbeDuration 仅本地存储可探测时长
func (s *UploadService) ProbeDuration(ctx context.Context, artifact *model.Artifact) (float64, error) {
	if !util.IsVideo(artifact.MimeType) {
		return 0, fmt.Errorf("%s is not a video", artifact.MimeType)
	}
	local := s.Storage.LocalPath(artifact.Path)
	if local == "" {
		return 0, fmt.Errorf("duration probe requires local storage")
	}
	info, err := util.GetVideoInfo(local)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}
