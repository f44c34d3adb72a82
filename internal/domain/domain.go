package domain

import (
	"github.com/yungbote/stampcard-backend/internal/domain/analytics"
	"github.com/yungbote/stampcard-backend/internal/domain/family"
	"github.com/yungbote/stampcard-backend/internal/domain/profile"
	"github.com/yungbote/stampcard-backend/internal/domain/reward"
	"github.com/yungbote/stampcard-backend/internal/domain/stamp"
	"github.com/yungbote/stampcard-backend/internal/domain/survey"
)

const (
	RoleParent    = profile.RoleParent
	RoleChild     = profile.RoleChild
	ViewModeAdult = profile.ViewModeAdult
	ViewModeKids  = profile.ViewModeKids
	ProxyIDPrefix = profile.ProxyIDPrefix

	StampMethodQRScan       = stamp.MethodQRScan
	StampMethodManualAdmin  = stamp.MethodManualAdmin
	StampMethodImport       = stamp.MethodImport
	StampMethodSurveyReward = stamp.MethodSurveyReward
	StampMethodSlotGame     = stamp.MethodSlotGame
	StampMethodRefund       = stamp.MethodRefund

	ExchangeStatusPending   = reward.StatusPending
	ExchangeStatusCompleted = reward.StatusCompleted
	ExchangeStatusCancelled = reward.StatusCancelled
)

type Profile = profile.Profile
type Memo = profile.Memo

type Family = family.Family
type FamilyTotals = family.Totals
type FamilyMember = family.Member

type StampMethod = stamp.Method
type StampHistoryRecord = stamp.HistoryRecord
type StampProgress = stamp.Progress

type Reward = reward.Reward
type RewardExchange = reward.Exchange
type RewardWithStatus = reward.WithStatus
type ExchangeStatus = reward.ExchangeStatus

type Survey = survey.Survey
type SurveyTarget = survey.Target
type SurveyAnswer = survey.Answer

type EventLog = analytics.EventLog

// AllModels lists every persisted type, in migration order.
func AllModels() []any {
	return []any{
		&Profile{},
		&Family{},
		&StampHistoryRecord{},
		&Reward{},
		&RewardExchange{},
		&Survey{},
		&SurveyTarget{},
		&SurveyAnswer{},
		&EventLog{},
	}
}
