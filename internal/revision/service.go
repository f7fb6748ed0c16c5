package revision

import (
	"context"
	"errors"
	"fmt"

	"go_hostcfg/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service records and lists host configuration revisions
type Service struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewService creates a new revision service
func NewService(db *gorm.DB, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{db: db, logger: logger.WithField("component", "revision")}
}

// Record stores one committed set of flattened fields.
// Revision numbers come from the database auto-increment ID.
func (s *Service) Record(ctx context.Context, fields map[string]string, userCount int, actor string) error {
	data := make(datatypes.JSONMap, len(fields))
	for k, v := range fields {
		data[k] = v
	}

	rev := &model.ConfigRevision{
		Fields:    data,
		UserCount: userCount,
		Actor:     actor,
	}
	if err := s.db.WithContext(ctx).Create(rev).Error; err != nil {
		return fmt.Errorf("failed to create config revision: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"revision": rev.ID,
		"actor":    actor,
	}).Debug("Config revision recorded")
	return nil
}

// Latest returns the newest revision, or nil if none was recorded yet
func (s *Service) Latest(ctx context.Context) (*model.ConfigRevision, error) {
	var rev model.ConfigRevision
	if err := s.db.WithContext(ctx).Order("id DESC").First(&rev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest revision: %w", err)
	}
	return &rev, nil
}

// List returns revisions newest first with the total count
func (s *Service) List(ctx context.Context, page, pageSize int) ([]model.ConfigRevision, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	query := s.db.WithContext(ctx).Model(&model.ConfigRevision{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count revisions: %w", err)
	}

	var revs []model.ConfigRevision
	offset := (page - 1) * pageSize
	if err := query.Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&revs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list revisions: %w", err)
	}

	return revs, total, nil
}
