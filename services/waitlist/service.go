package waitlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/voxlane/voxlane/services/logging"
	"github.com/voxlane/voxlane/services/user"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrAlreadyOnWaitlist = errors.New("email is already on the waitlist")

type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

func (s *Service) Add(ctx context.Context, email string) (*Entry, error) {
	email = user.NormalizeEmail(email)

	// The unique index is the sole duplicate arbiter; a pre-check would
	// race concurrent signups for the same address.
	entry := &Entry{Email: email}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyOnWaitlist
		}
		return nil, fmt.Errorf("failed to add to waitlist: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("added email to waitlist", zap.Uint("entry_id", entry.ID))
	}

	return entry, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Entry{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count waitlist entries: %w", err)
	}
	return count, nil
}
