package repos

import (
	"github.com/yungbote/stampcard-backend/internal/data/repos/analytics"
	"github.com/yungbote/stampcard-backend/internal/data/repos/family"
	"github.com/yungbote/stampcard-backend/internal/data/repos/profile"
	"github.com/yungbote/stampcard-backend/internal/data/repos/reward"
	"github.com/yungbote/stampcard-backend/internal/data/repos/stamp"
	"github.com/yungbote/stampcard-backend/internal/data/repos/survey"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ProfileRepo = profile.ProfileRepo
type FamilyRepo = family.FamilyRepo

type StampHistoryRepo = stamp.StampHistoryRepo

type RewardRepo = reward.RewardRepo
type RewardExchangeRepo = reward.RewardExchangeRepo

type SurveyRepo = survey.SurveyRepo
type SurveyTargetRepo = survey.SurveyTargetRepo
type SurveyAnswerRepo = survey.SurveyAnswerRepo

type EventLogRepo = analytics.EventLogRepo

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return profile.NewProfileRepo(db, baseLog)
}
func NewFamilyRepo(db *gorm.DB, baseLog *logger.Logger) FamilyRepo {
	return family.NewFamilyRepo(db, baseLog)
}

func NewStampHistoryRepo(db *gorm.DB, baseLog *logger.Logger) StampHistoryRepo {
	return stamp.NewStampHistoryRepo(db, baseLog)
}

func NewRewardRepo(db *gorm.DB, baseLog *logger.Logger) RewardRepo {
	return reward.NewRewardRepo(db, baseLog)
}
func NewRewardExchangeRepo(db *gorm.DB, baseLog *logger.Logger) RewardExchangeRepo {
	return reward.NewRewardExchangeRepo(db, baseLog)
}

func NewSurveyRepo(db *gorm.DB, baseLog *logger.Logger) SurveyRepo {
	return survey.NewSurveyRepo(db, baseLog)
}
func NewSurveyTargetRepo(db *gorm.DB, baseLog *logger.Logger) SurveyTargetRepo {
	return survey.NewSurveyTargetRepo(db, baseLog)
}
func NewSurveyAnswerRepo(db *gorm.DB, baseLog *logger.Logger) SurveyAnswerRepo {
	return survey.NewSurveyAnswerRepo(db, baseLog)
}

func NewEventLogRepo(db *gorm.DB, baseLog *logger.Logger) EventLogRepo {
	return analytics.NewEventLogRepo(db, baseLog)
}
