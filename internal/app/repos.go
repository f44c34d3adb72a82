package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/stampcard-backend/internal/data/repos"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

type Repos struct {
	Profile        repos.ProfileRepo
	Family         repos.FamilyRepo
	StampHistory   repos.StampHistoryRepo
	Reward         repos.RewardRepo
	RewardExchange repos.RewardExchangeRepo
	Survey         repos.SurveyRepo
	SurveyTarget   repos.SurveyTargetRepo
	SurveyAnswer   repos.SurveyAnswerRepo
	EventLog       repos.EventLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Profile:        repos.NewProfileRepo(db, log),
		Family:         repos.NewFamilyRepo(db, log),
		StampHistory:   repos.NewStampHistoryRepo(db, log),
		Reward:         repos.NewRewardRepo(db, log),
		RewardExchange: repos.NewRewardExchangeRepo(db, log),
		Survey:         repos.NewSurveyRepo(db, log),
		SurveyTarget:   repos.NewSurveyTargetRepo(db, log),
		SurveyAnswer:   repos.NewSurveyAnswerRepo(db, log),
		EventLog:       repos.NewEventLogRepo(db, log),
	}
}
