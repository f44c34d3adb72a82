package survey

import (
	"context"

	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type SurveyAnswerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, answer *types.SurveyAnswer) error
	Exists(ctx context.Context, tx *gorm.DB, userID, surveyID string) (bool, error)
}

type surveyAnswerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSurveyAnswerRepo(db *gorm.DB, baseLog *logger.Logger) SurveyAnswerRepo {
	repoLog := baseLog.With("repo", "SurveyAnswerRepo")
	return &surveyAnswerRepo{db: db, log: repoLog}
}

func (r *surveyAnswerRepo) Create(ctx context.Context, tx *gorm.DB, answer *types.SurveyAnswer) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(answer).Error
}

func (r *surveyAnswerRepo) Exists(ctx context.Context, tx *gorm.DB, userID, surveyID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.SurveyAnswer{}).
		Where("user_id = ? AND survey_id = ?", userID, surveyID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
