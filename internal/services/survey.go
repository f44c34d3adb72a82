package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/yungbote/stampcard-backend/internal/data/db"
	"github.com/yungbote/stampcard-backend/internal/data/repos"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/observability"
	"github.com/yungbote/stampcard-backend/internal/platform/apierr"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

const DefaultSurveySnooze = 24 * time.Hour

type SurveyCheckResult struct {
	ShouldShow        bool    `json:"shouldShow"`
	SurveyID          string  `json:"surveyId,omitempty"`
	SurveyTitle       string  `json:"surveyTitle,omitempty"`
	SurveyDescription *string `json:"surveyDescription,omitempty"`
	ShownCount        int     `json:"shownCount"`
	PostponedCount    int     `json:"postponedCount"`
}

type SubmitSurveyInput struct {
	UserID      string  `json:"userId"`
	SurveyID    string  `json:"surveyId"`
	Q1Rating    *int    `json:"q1Rating"`
	Q2Comment   *string `json:"q2Comment"`
	Q3Recommend *int    `json:"q3Recommend"`
}

type SubmitSurveyResult struct {
	Message      string `json:"message"`
	RewardStamps int    `json:"rewardStamps"`
	StampCount   int    `json:"stampCount"`
}

type AssignTargetsInput struct {
	StaffPin string   `json:"staffPin"`
	SurveyID string   `json:"surveyId"`
	UserIDs  []string `json:"userIds"`
}

type SurveyService interface {
	Check(ctx context.Context, userID string) (*SurveyCheckResult, error)
	Postpone(ctx context.Context, userID, surveyID string) error
	Submit(ctx context.Context, in SubmitSurveyInput) (*SubmitSurveyResult, error)
	AssignTargets(ctx context.Context, in AssignTargetsInput) (int64, error)
}

type surveyService struct {
	db       *gorm.DB
	log      *logger.Logger
	profiles repos.ProfileRepo
	history  repos.StampHistoryRepo
	surveys  repos.SurveyRepo
	targets  repos.SurveyTargetRepo
	answers  repos.SurveyAnswerRepo
	staff    StaffGate
	notify   Notifier
	calendar *ClinicCalendar
	metrics  *observability.Metrics
	snooze   time.Duration
}

func NewSurveyService(
	db *gorm.DB,
	log *logger.Logger,
	profiles repos.ProfileRepo,
	history repos.StampHistoryRepo,
	surveys repos.SurveyRepo,
	targets repos.SurveyTargetRepo,
	answers repos.SurveyAnswerRepo,
	staff StaffGate,
	notify Notifier,
	calendar *ClinicCalendar,
	metrics *observability.Metrics,
	snooze time.Duration,
) SurveyService {
	if snooze <= 0 {
		snooze = DefaultSurveySnooze
	}
	return &surveyService{
		db:       db,
		log:      log.With("service", "SurveyService"),
		profiles: profiles,
		history:  history,
		surveys:  surveys,
		targets:  targets,
		answers:  answers,
		staff:    staff,
		notify:   notify,
		calendar: calendar,
		metrics:  metrics,
		snooze:   snooze,
	}
}

func (ss *surveyService) Check(ctx context.Context, userID string) (*SurveyCheckResult, error) {
	uid, err := actingUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	target, survey, err := ss.targets.FirstPendingForUser(ctx, ss.db, uid)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "survey_check_failed", err)
	}
	if target == nil || target.Snoozed(ss.calendar.Now(), ss.snooze) {
		return &SurveyCheckResult{ShouldShow: false}, nil
	}
	return &SurveyCheckResult{
		ShouldShow:        true,
		SurveyID:          target.SurveyID,
		SurveyTitle:       survey.Title,
		SurveyDescription: survey.Description,
		ShownCount:        target.ShownCount,
		PostponedCount:    target.PostponedCount,
	}, nil
}

func (ss *surveyService) Postpone(ctx context.Context, userID, surveyID string) error {
	uid, err := actingUser(ctx, userID)
	if err != nil {
		return err
	}
	surveyID = strings.TrimSpace(surveyID)
	if surveyID == "" {
		return badRequest("invalid_request", "surveyId is required")
	}
	ok, err := ss.targets.MarkPostponed(ctx, ss.db, uid, surveyID, ss.calendar.Now())
	if err != nil {
		return apierr.New(http.StatusInternalServerError, "survey_postpone_failed", err)
	}
	if !ok {
		return notFound("survey_target_not_found", "survey target")
	}
	return nil
}

func (ss *surveyService) Submit(ctx context.Context, in SubmitSurveyInput) (*SubmitSurveyResult, error) {
	uid, err := actingUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	surveyID := strings.TrimSpace(in.SurveyID)
	if surveyID == "" {
		return nil, badRequest("invalid_request", "surveyId is required")
	}
	if in.Q1Rating == nil || *in.Q1Rating < 1 || *in.Q1Rating > 5 ||
		in.Q3Recommend == nil || *in.Q3Recommend < 0 || *in.Q3Recommend > 10 {
		return nil, badRequest("invalid_answer", "回答内容が不正です")
	}

	alreadyAnswered := apierr.New(http.StatusConflict, "already_answered", errors.New("既に回答済みです"))
	var out SubmitSurveyResult
	var updated *types.Profile
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		survey, err := ss.surveys.GetByID(ctx, tx, surveyID)
		if err != nil {
			return err
		}
		if survey == nil {
			return notFound("survey_not_found", "survey")
		}
		if !survey.IsActive {
			return badRequest("survey_inactive", "このアンケートは現在受付していません")
		}
		p, err := ss.profiles.GetByIDForUpdate(ctx, tx, uid)
		if err != nil {
			return err
		}
		if p == nil {
			return notFound("user_not_found", "user")
		}
		answered, err := ss.answers.Exists(ctx, tx, uid, surveyID)
		if err != nil {
			return err
		}
		if answered {
			return alreadyAnswered
		}

		answer := &types.SurveyAnswer{
			UserID:      uid,
			SurveyID:    surveyID,
			Q1Rating:    *in.Q1Rating,
			Q2Comment:   in.Q2Comment,
			Q3Recommend: *in.Q3Recommend,
		}
		if err := ss.answers.Create(ctx, tx, answer); err != nil {
			if dbpkg.IsUniqueViolation(err) {
				return alreadyAnswered
			}
			return err
		}

		now := ss.calendar.Now()
		note := fmt.Sprintf("アンケート回答: %s", surveyID)
		rec := &types.StampHistoryRecord{
			UserID:      uid,
			VisitDate:   now,
			VisitDay:    ss.calendar.Day(now),
			StampNumber: p.StampCount + survey.RewardStamps,
			Method:      types.StampMethodSurveyReward,
			Amount:      survey.RewardStamps,
			Notes:       &note,
		}
		if _, err := ss.history.Create(ctx, tx, []*types.StampHistoryRecord{rec}); err != nil {
			return err
		}
		if err := ss.profiles.AddStamps(ctx, tx, uid, survey.RewardStamps, 0, nil); err != nil {
			return err
		}
		if err := ss.targets.MarkAnswered(ctx, tx, uid, surveyID, now); err != nil {
			return err
		}
		updated, err = ss.profiles.GetByID(ctx, tx, uid)
		if err != nil {
			return err
		}
		out = SubmitSurveyResult{
			Message:      "回答を受け付けました",
			RewardStamps: survey.RewardStamps,
			StampCount:   updated.StampCount,
		}
		return nil
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "survey_submit_failed")
	}
	ss.metrics.IncSurveyAnswer(surveyID)
	if out.RewardStamps != 0 {
		ss.metrics.AddStamps(string(types.StampMethodSurveyReward), out.RewardStamps)
		if ss.notify != nil {
			ss.notify.StampCountChanged(ctx, updated, out.RewardStamps, types.StampMethodSurveyReward)
		}
	}
	ss.log.Info("survey answered", "user_id", uid, "survey_id", surveyID, "reward_stamps", out.RewardStamps)
	return &out, nil
}

func (ss *surveyService) AssignTargets(ctx context.Context, in AssignTargetsInput) (int64, error) {
	if _, err := actingUser(ctx, ""); err != nil {
		return 0, err
	}
	if err := ss.staff.Verify(in.StaffPin); err != nil {
		return 0, err
	}
	surveyID := strings.TrimSpace(in.SurveyID)
	if surveyID == "" {
		return 0, badRequest("invalid_request", "surveyId is required")
	}
	seen := map[string]bool{}
	targets := make([]*types.SurveyTarget, 0, len(in.UserIDs))
	for _, id := range in.UserIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, &types.SurveyTarget{UserID: id, SurveyID: surveyID})
	}
	if len(targets) == 0 {
		return 0, badRequest("invalid_request", "userIds is required")
	}

	var created int64
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		survey, err := ss.surveys.GetByID(ctx, tx, surveyID)
		if err != nil {
			return err
		}
		if survey == nil {
			return notFound("survey_not_found", "survey")
		}
		created, err = ss.targets.CreateIgnoreExisting(ctx, tx, targets)
		return err
	})
	if err != nil {
		return 0, passAPIErr(err, http.StatusInternalServerError, "assign_targets_failed")
	}
	ss.log.Info("survey targets assigned", "survey_id", surveyID, "requested", len(targets), "created", created)
	return created, nil
}
