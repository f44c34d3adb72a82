package survey

import (
	"context"
	"errors"
	"time"

	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SurveyTargetRepo interface {
	CreateIgnoreExisting(ctx context.Context, tx *gorm.DB, targets []*types.SurveyTarget) (int64, error)
	FirstPendingForUser(ctx context.Context, tx *gorm.DB, userID string) (*types.SurveyTarget, *types.Survey, error)
	GetByUserSurvey(ctx context.Context, tx *gorm.DB, userID, surveyID string) (*types.SurveyTarget, error)
	MarkPostponed(ctx context.Context, tx *gorm.DB, userID, surveyID string, at time.Time) (bool, error)
	MarkAnswered(ctx context.Context, tx *gorm.DB, userID, surveyID string, at time.Time) error
}

type surveyTargetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSurveyTargetRepo(db *gorm.DB, baseLog *logger.Logger) SurveyTargetRepo {
	repoLog := baseLog.With("repo", "SurveyTargetRepo")
	return &surveyTargetRepo{db: db, log: repoLog}
}

func (r *surveyTargetRepo) CreateIgnoreExisting(ctx context.Context, tx *gorm.DB, targets []*types.SurveyTarget) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(targets) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "survey_id"}},
			DoNothing: true,
		}).
		Create(&targets)
	return res.RowsAffected, res.Error
}

// FirstPendingForUser returns the oldest unanswered target whose survey is active.
func (r *surveyTargetRepo) FirstPendingForUser(ctx context.Context, tx *gorm.DB, userID string) (*types.SurveyTarget, *types.Survey, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var target types.SurveyTarget
	err := transaction.WithContext(ctx).
		Select("survey_targets.*").
		Joins("JOIN surveys ON surveys.id = survey_targets.survey_id").
		Where("survey_targets.user_id = ? AND survey_targets.answered_at IS NULL AND surveys.is_active = ?", userID, true).
		Order("survey_targets.created_at ASC").
		First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	var s types.Survey
	if err := transaction.WithContext(ctx).Where("id = ?", target.SurveyID).First(&s).Error; err != nil {
		return nil, nil, err
	}
	return &target, &s, nil
}

func (r *surveyTargetRepo) GetByUserSurvey(ctx context.Context, tx *gorm.DB, userID, surveyID string) (*types.SurveyTarget, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var t types.SurveyTarget
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND survey_id = ?", userID, surveyID).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkPostponed counts a postpone as a showing too, so the snooze window restarts.
func (r *surveyTargetRepo) MarkPostponed(ctx context.Context, tx *gorm.DB, userID, surveyID string, at time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.SurveyTarget{}).
		Where("user_id = ? AND survey_id = ?", userID, surveyID).
		Updates(map[string]any{
			"postponed_count":   gorm.Expr("postponed_count + 1"),
			"shown_count":       gorm.Expr("shown_count + 1"),
			"last_postponed_at": at,
			"last_shown_at":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *surveyTargetRepo) MarkAnswered(ctx context.Context, tx *gorm.DB, userID, surveyID string, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.SurveyTarget{}).
		Where("user_id = ? AND survey_id = ?", userID, surveyID).
		Updates(map[string]any{"answered_at": at}).Error
}
