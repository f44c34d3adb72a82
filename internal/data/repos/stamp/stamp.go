package stamp

import (
	"context"

	"github.com/google/uuid"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type StampHistoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, records []*types.StampHistoryRecord) ([]*types.StampHistoryRecord, error)
	ExistsQRForDay(ctx context.Context, tx *gorm.DB, userID, qrCodeID, visitDay string) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*types.StampHistoryRecord, error)
	ListByUserDayMethod(ctx context.Context, tx *gorm.DB, userID, visitDay string, method types.StampMethod) ([]*types.StampHistoryRecord, error)
	SumAmountByUser(ctx context.Context, tx *gorm.DB, userID string) (int, error)
	CountByUserMethod(ctx context.Context, tx *gorm.DB, userID string, method types.StampMethod) (int, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) error
}

type stampHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStampHistoryRepo(db *gorm.DB, baseLog *logger.Logger) StampHistoryRepo {
	repoLog := baseLog.With("repo", "StampHistoryRepo")
	return &stampHistoryRepo{db: db, log: repoLog}
}

func (r *stampHistoryRepo) Create(ctx context.Context, tx *gorm.DB, records []*types.StampHistoryRecord) ([]*types.StampHistoryRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(records) == 0 {
		return []*types.StampHistoryRecord{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ExistsQRForDay reports whether a qr_scan row already used the code that day,
// the same rows idx_stamp_history_qr_daily covers.
func (r *stampHistoryRepo) ExistsQRForDay(ctx context.Context, tx *gorm.DB, userID, qrCodeID, visitDay string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.StampHistoryRecord{}).
		Where("user_id = ? AND qr_code_id = ? AND visit_day = ? AND stamp_method = ?", userID, qrCodeID, visitDay, types.StampMethodQRScan).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *stampHistoryRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*types.StampHistoryRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.StampHistoryRecord
	q := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("visit_date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *stampHistoryRepo) ListByUserDayMethod(ctx context.Context, tx *gorm.DB, userID, visitDay string, method types.StampMethod) ([]*types.StampHistoryRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.StampHistoryRecord
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND visit_day = ? AND stamp_method = ?", userID, visitDay, method).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *stampHistoryRepo) SumAmountByUser(ctx context.Context, tx *gorm.DB, userID string) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sum struct{ Total int }
	if err := transaction.WithContext(ctx).
		Model(&types.StampHistoryRecord{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum.Total, nil
}

func (r *stampHistoryRepo) CountByUserMethod(ctx context.Context, tx *gorm.DB, userID string, method types.StampMethod) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.StampHistoryRecord{}).
		Where("user_id = ? AND stamp_method = ?", userID, method).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *stampHistoryRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.StampHistoryRecord{})
	return res.RowsAffected, res.Error
}

func (r *stampHistoryRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.StampHistoryRecord{}).Error
}
