package family

import (
	"context"
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type FamilyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, families []*types.Family) ([]*types.Family, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Family, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Family, error)
	UpdateName(ctx context.Context, tx *gorm.DB, id uuid.UUID, name string) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type familyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFamilyRepo(db *gorm.DB, baseLog *logger.Logger) FamilyRepo {
	repoLog := baseLog.With("repo", "FamilyRepo")
	return &familyRepo{db: db, log: repoLog}
}

func (r *familyRepo) Create(ctx context.Context, tx *gorm.DB, families []*types.Family) ([]*types.Family, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(families) == 0 {
		return []*types.Family{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&families).Error; err != nil {
		return nil, err
	}
	return families, nil
}

func (r *familyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Family, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var f types.Family
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *familyRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Family, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Family
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

func (r *familyRepo) UpdateName(ctx context.Context, tx *gorm.DB, id uuid.UUID, name string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Family{}).
		Where("id = ?", id).
		Updates(map[string]any{"family_name": name}).Error
}

func (r *familyRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Family{}).Error
}
