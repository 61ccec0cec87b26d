package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/voxlane/voxlane/services/logging"
	"github.com/voxlane/voxlane/services/storage"
	"go.uber.org/zap"
)

// TranscriptionSuffix is appended to the media key to name the output
// object in the same bucket.
const TranscriptionSuffix = ".transcription"

const (
	StatusCompleted  = "COMPLETED"
	StatusInProgress = "IN_PROGRESS"
	StatusQueued     = "QUEUED"
	StatusFailed     = "FAILED"
)

var ErrJobNotFound = errors.New("transcription job not found")

// JobRunner abstracts the transcription backend.
type JobRunner interface {
	GetJob(ctx context.Context, name string) (string, error)
	StartJob(ctx context.Context, filename string) (string, error)
}

// ObjectFetcher is the slice of the storage service this package needs.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, key string) ([]byte, error)
}

type Result struct {
	Status        string          `json:"status"`
	Transcription json.RawMessage `json:"transcription,omitempty"`
}

type Service struct {
	runner  JobRunner
	objects ObjectFetcher
	logger  *logging.Service
}

func NewService(runner JobRunner, objects ObjectFetcher, logger *logging.Service) *Service {
	return &Service{
		runner:  runner,
		objects: objects,
		logger:  logger,
	}
}

// Status resolves the transcription state for an uploaded file. A
// finished output object wins over job state, so completed work is
// never re-submitted. Only when neither the output nor a job exists is
// a new job started.
func (s *Service) Status(ctx context.Context, filename string) (*Result, error) {
	data, err := s.objects.FetchObject(ctx, filename+TranscriptionSuffix)
	if err == nil {
		return &Result{Status: StatusCompleted, Transcription: data}, nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("fetch transcription output: %w", err)
	}

	status, err := s.runner.GetJob(ctx, filename)
	if err == nil {
		return &Result{Status: status}, nil
	}
	if !errors.Is(err, ErrJobNotFound) {
		return nil, fmt.Errorf("get transcription job: %w", err)
	}

	status, err = s.runner.StartJob(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("start transcription job: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("started transcription job",
			zap.String("filename", filename),
			zap.String("status", status))
	}

	return &Result{Status: status}, nil
}
