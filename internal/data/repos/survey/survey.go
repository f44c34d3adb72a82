package survey

import (
	"context"
	"errors"

	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SurveyRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Survey, error)
	Upsert(ctx context.Context, tx *gorm.DB, surveys []*types.Survey) error
}

type surveyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSurveyRepo(db *gorm.DB, baseLog *logger.Logger) SurveyRepo {
	repoLog := baseLog.With("repo", "SurveyRepo")
	return &surveyRepo{db: db, log: repoLog}
}

func (r *surveyRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Survey, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var s types.Survey
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *surveyRepo) Upsert(ctx context.Context, tx *gorm.DB, surveys []*types.Survey) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(surveys) == 0 {
		return nil
	}
	// Collected before Create, which overwrites a false is_active with the column default.
	var inactive []string
	for _, s := range surveys {
		if !s.IsActive {
			inactive = append(inactive, s.ID)
		}
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "reward_stamps", "is_active", "updated_at"}),
		}).
		Create(&surveys).Error; err != nil {
		return err
	}
	if len(inactive) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Survey{}).
		Where("id IN ?", inactive).
		Update("is_active", false).Error
}
