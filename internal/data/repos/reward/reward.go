package reward

import (
	"context"
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RewardRepo interface {
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Reward, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Reward, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Reward, error)
	UpsertByName(ctx context.Context, tx *gorm.DB, rewards []*types.Reward) error
}

type rewardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRewardRepo(db *gorm.DB, baseLog *logger.Logger) RewardRepo {
	repoLog := baseLog.With("repo", "RewardRepo")
	return &rewardRepo{db: db, log: repoLog}
}

func (r *rewardRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Reward, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Reward
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *rewardRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Reward, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rw types.Reward
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&rw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rw, nil
}

func (r *rewardRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Reward, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Reward
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpsertByName keeps catalog rows keyed by their unique name.
func (r *rewardRepo) UpsertByName(ctx context.Context, tx *gorm.DB, rewards []*types.Reward) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rewards) == 0 {
		return nil
	}
	// is_active has a column default, so gorm omits false on insert and then
	// writes the default back into the struct. Read the flags first.
	var inactive []string
	for _, rw := range rewards {
		if !rw.IsActive {
			inactive = append(inactive, rw.Name)
		}
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"description", "required_stamps", "image_url", "is_active", "display_order", "updated_at",
			}),
		}).
		Create(&rewards).Error; err != nil {
		return err
	}
	if len(inactive) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Reward{}).
		Where("name IN ?", inactive).
		Update("is_active", false).Error
}
