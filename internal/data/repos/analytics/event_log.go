package analytics

import (
	"context"

	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type EventLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.EventLog) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*types.EventLog, error)
	CountByName(ctx context.Context, tx *gorm.DB, userID, eventName string) (int64, error)
}

type eventLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventLogRepo(db *gorm.DB, baseLog *logger.Logger) EventLogRepo {
	repoLog := baseLog.With("repo", "EventLogRepo")
	return &eventLogRepo{db: db, log: repoLog}
}

func (r *eventLogRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.EventLog) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(events) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&events).Error
}

func (r *eventLogRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*types.EventLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.EventLog
	q := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *eventLogRepo) CountByName(ctx context.Context, tx *gorm.DB, userID, eventName string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.EventLog{}).
		Where("user_id = ? AND event_name = ?", userID, eventName).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
