package storage

import (
	"context"
	"errors"
	"time"

	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/services/logging"
	"go.uber.org/zap"
)

// VideoContentType is the only upload type accepted.
const VideoContentType = "video/mp4"

var (
	ErrInvalidFileType = errors.New("invalid file format")
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrObjectNotFound  = errors.New("object not found")
)

type PresignedUpload struct {
	URL       string
	Key       string
	ExpiresAt time.Time
}

// ObjectStore abstracts the bucket operations the service needs.
// Implementations return ErrObjectNotFound for missing keys so callers
// can tell absence from failure.
type ObjectStore interface {
	PresignPut(ctx context.Context, key string, expires time.Duration) (string, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type Service struct {
	store  ObjectStore
	config *config.StorageConfig
	logger *logging.Service
}

func NewService(store ObjectStore, cfg *config.StorageConfig, logger *logging.Service) *Service {
	return &Service{
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// PresignUpload validates the declared file before minting an upload
// URL. The bucket itself never sees rejected requests.
func (s *Service) PresignUpload(ctx context.Context, fileName string, fileSize int64, fileType string) (*PresignedUpload, error) {
	if fileType != VideoContentType {
		return nil, ErrInvalidFileType
	}

	if fileSize > s.config.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	url, err := s.store.PresignPut(ctx, fileName, s.config.PresignExpiry)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to presign upload",
				zap.Error(err),
				zap.String("key", fileName))
		}
		return nil, err
	}

	return &PresignedUpload{
		URL:       url,
		Key:       fileName,
		ExpiresAt: time.Now().Add(s.config.PresignExpiry),
	}, nil
}

func (s *Service) FetchObject(ctx context.Context, key string) ([]byte, error) {
	return s.store.GetObject(ctx, key)
}
