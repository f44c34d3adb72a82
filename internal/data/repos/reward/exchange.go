package reward

import (
	"context"
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type RewardExchangeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, exchanges []*types.RewardExchange) ([]*types.RewardExchange, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RewardExchange, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.RewardExchange, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.ExchangeStatus) (bool, error)
	SumUsedByUser(ctx context.Context, tx *gorm.DB, userID string) (int, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) error
}

type rewardExchangeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRewardExchangeRepo(db *gorm.DB, baseLog *logger.Logger) RewardExchangeRepo {
	repoLog := baseLog.With("repo", "RewardExchangeRepo")
	return &rewardExchangeRepo{db: db, log: repoLog}
}

func (r *rewardExchangeRepo) Create(ctx context.Context, tx *gorm.DB, exchanges []*types.RewardExchange) ([]*types.RewardExchange, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(exchanges) == 0 {
		return []*types.RewardExchange{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&exchanges).Error; err != nil {
		return nil, err
	}
	return exchanges, nil
}

func (r *rewardExchangeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RewardExchange, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ex types.RewardExchange
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&ex).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

func (r *rewardExchangeRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.RewardExchange, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.RewardExchange
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("exchanged_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateStatus moves an exchange from one status to another. It returns false when the row was not in `from`.
func (r *rewardExchangeRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.ExchangeStatus) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.RewardExchange{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SumUsedByUser totals stamps spent on exchanges that were not cancelled.
func (r *rewardExchangeRepo) SumUsedByUser(ctx context.Context, tx *gorm.DB, userID string) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sum struct{ Total int }
	if err := transaction.WithContext(ctx).
		Model(&types.RewardExchange{}).
		Select("COALESCE(SUM(stamp_count_used), 0) AS total").
		Where("user_id = ? AND status <> ?", userID, types.ExchangeStatusCancelled).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum.Total, nil
}

func (r *rewardExchangeRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.RewardExchange{}).Error
}
