package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/stampcard-backend/internal/data/repos"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/domain/analytics"
	"github.com/yungbote/stampcard-backend/internal/domain/reward"
	"github.com/yungbote/stampcard-backend/internal/observability"
	"github.com/yungbote/stampcard-backend/internal/platform/apierr"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

type RewardStatusResult struct {
	StampCount int                      `json:"stampCount"`
	Rewards    []types.RewardWithStatus `json:"rewards"`
}

type ExchangeResult struct {
	Message       string                `json:"message"`
	Exchange      *types.RewardExchange `json:"exchange"`
	NewStampCount int                   `json:"newStampCount"`
}

// ExchangeHistoryItem is an exchange joined with the reward it redeemed. Reward is nil if it was removed.
type ExchangeHistoryItem struct {
	*types.RewardExchange
	Reward *types.Reward `json:"reward"`
}

type UpdateExchangeInput struct {
	StaffPin string               `json:"staffPin"`
	Status   types.ExchangeStatus `json:"status"`
}

type RewardService interface {
	ListActive(ctx context.Context) ([]*types.Reward, error)
	Status(ctx context.Context, userID string) (*RewardStatusResult, error)
	Exchange(ctx context.Context, userID, rewardID string) (*ExchangeResult, error)
	History(ctx context.Context, userID string) ([]ExchangeHistoryItem, error)
	UpdateExchangeStatus(ctx context.Context, exchangeID string, in UpdateExchangeInput) (*types.RewardExchange, error)
}

type rewardService struct {
	db        *gorm.DB
	log       *logger.Logger
	profiles  repos.ProfileRepo
	rewards   repos.RewardRepo
	exchanges repos.RewardExchangeRepo
	history   repos.StampHistoryRepo
	staff     StaffGate
	analytics AnalyticsService
	notify    Notifier
	calendar  *ClinicCalendar
	metrics   *observability.Metrics
}

func NewRewardService(
	db *gorm.DB,
	log *logger.Logger,
	profiles repos.ProfileRepo,
	rewards repos.RewardRepo,
	exchanges repos.RewardExchangeRepo,
	history repos.StampHistoryRepo,
	staff StaffGate,
	analytics AnalyticsService,
	notify Notifier,
	calendar *ClinicCalendar,
	metrics *observability.Metrics,
) RewardService {
	return &rewardService{
		db:        db,
		log:       log.With("service", "RewardService"),
		profiles:  profiles,
		rewards:   rewards,
		exchanges: exchanges,
		history:   history,
		staff:     staff,
		analytics: analytics,
		notify:    notify,
		calendar:  calendar,
		metrics:   metrics,
	}
}

func (rs *rewardService) ListActive(ctx context.Context) ([]*types.Reward, error) {
	list, err := rs.rewards.ListActive(ctx, rs.db)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "list_rewards_failed", err)
	}
	return list, nil
}

func (rs *rewardService) Status(ctx context.Context, userID string) (*RewardStatusResult, error) {
	uid, err := actingUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := rs.profiles.GetByID(ctx, rs.db, uid)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "reward_status_failed", err)
	}
	if p == nil {
		return nil, notFound("user_not_found", "user")
	}
	list, err := rs.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return &RewardStatusResult{
		StampCount: p.StampCount,
		Rewards:    reward.AddStatus(list, p.StampCount),
	}, nil
}

func (rs *rewardService) Exchange(ctx context.Context, userID, rewardID string) (*ExchangeResult, error) {
	uid, err := actingUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rid, err := uuid.Parse(strings.TrimSpace(rewardID))
	if err != nil {
		return nil, notFound("reward_not_found", "reward")
	}
	ctx, span := observability.StartSpan(ctx, "rewards.exchange", attribute.String("reward.id", rid.String()))
	defer span.End()

	var (
		out     ExchangeResult
		updated *types.Profile
	)
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rw, err := rs.rewards.GetByID(ctx, tx, rid)
		if err != nil {
			return err
		}
		if rw == nil || !rw.IsActive {
			return notFound("reward_not_found", "reward")
		}
		p, err := rs.profiles.GetByIDForUpdate(ctx, tx, uid)
		if err != nil {
			return err
		}
		if p == nil {
			return notFound("user_not_found", "user")
		}
		if p.StampCount < rw.RequiredStamps {
			return apierr.Newf(http.StatusBadRequest, "insufficient_stamps",
				"スタンプが不足しています（現在%d個、必要%d個）", p.StampCount, rw.RequiredStamps)
		}

		note := "特典交換: " + rw.Name
		ex := &types.RewardExchange{
			UserID:         uid,
			RewardID:       rw.ID,
			StampCountUsed: rw.RequiredStamps,
			ExchangedAt:    rs.calendar.Now(),
			Status:         types.ExchangeStatusPending,
			Notes:          &note,
		}
		if _, err := rs.exchanges.Create(ctx, tx, []*types.RewardExchange{ex}); err != nil {
			return err
		}
		if err := rs.profiles.AddStamps(ctx, tx, uid, -rw.RequiredStamps, 0, nil); err != nil {
			return err
		}
		updated, err = rs.profiles.GetByID(ctx, tx, uid)
		if err != nil {
			return err
		}
		out = ExchangeResult{
			Message:       rw.Name + "と交換しました！",
			Exchange:      ex,
			NewStampCount: updated.StampCount,
		}
		return nil
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "reward_exchange_failed")
	}

	rs.metrics.IncRewardExchange(string(types.ExchangeStatusPending))
	rs.analytics.Track(ctx, uid, analytics.EventRewardExchangeSuccess, "api", map[string]any{
		"rewardId":       rid.String(),
		"stampCountUsed": out.Exchange.StampCountUsed,
	})
	if rs.notify != nil {
		rs.notify.RewardExchanged(ctx, updated, out.Exchange)
	}
	rs.log.Info("reward exchanged", "user_id", uid, "reward_id", rid, "stamp_count", out.NewStampCount)
	return &out, nil
}

func (rs *rewardService) History(ctx context.Context, userID string) ([]ExchangeHistoryItem, error) {
	uid, err := actingUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, err := rs.exchanges.ListByUser(ctx, rs.db, uid)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "exchange_history_failed", err)
	}
	ids := make([]uuid.UUID, 0, len(list))
	seen := map[uuid.UUID]bool{}
	for _, ex := range list {
		if !seen[ex.RewardID] {
			seen[ex.RewardID] = true
			ids = append(ids, ex.RewardID)
		}
	}
	rewards, err := rs.rewards.GetByIDs(ctx, rs.db, ids)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "exchange_history_failed", err)
	}
	byID := make(map[uuid.UUID]*types.Reward, len(rewards))
	for _, rw := range rewards {
		byID[rw.ID] = rw
	}
	out := make([]ExchangeHistoryItem, 0, len(list))
	for _, ex := range list {
		out = append(out, ExchangeHistoryItem{RewardExchange: ex, Reward: byID[ex.RewardID]})
	}
	return out, nil
}

func (rs *rewardService) UpdateExchangeStatus(ctx context.Context, exchangeID string, in UpdateExchangeInput) (*types.RewardExchange, error) {
	if _, err := actingUser(ctx, ""); err != nil {
		return nil, err
	}
	if in.Status != types.ExchangeStatusCompleted && in.Status != types.ExchangeStatusCancelled {
		return nil, badRequest("invalid_status", "status must be completed or cancelled")
	}
	if err := rs.staff.Verify(in.StaffPin); err != nil {
		return nil, err
	}
	eid, err := uuid.Parse(strings.TrimSpace(exchangeID))
	if err != nil {
		return nil, notFound("exchange_not_found", "exchange")
	}

	var (
		out      *types.RewardExchange
		updated  *types.Profile
		refunded int
	)
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ex, err := rs.exchanges.GetByID(ctx, tx, eid)
		if err != nil {
			return err
		}
		if ex == nil {
			return notFound("exchange_not_found", "exchange")
		}
		if !ex.Status.CanTransition(in.Status) {
			return invalidTransition(ex.Status, in.Status)
		}
		ok, err := rs.exchanges.UpdateStatus(ctx, tx, eid, ex.Status, in.Status)
		if err != nil {
			return err
		}
		if !ok {
			return invalidTransition(ex.Status, in.Status)
		}
		if in.Status == types.ExchangeStatusCancelled {
			updated, refunded, err = rs.rebalance(ctx, tx, ex.UserID)
			if err != nil {
				return err
			}
		}
		out, err = rs.exchanges.GetByID(ctx, tx, eid)
		return err
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "exchange_update_failed")
	}
	rs.metrics.IncRewardExchange(string(in.Status))
	if updated != nil && refunded != 0 {
		rs.metrics.AddStamps(string(types.StampMethodRefund), refunded)
		if rs.notify != nil {
			rs.notify.StampCountChanged(ctx, updated, refunded, types.StampMethodRefund)
		}
	}
	rs.log.Info("exchange status updated", "exchange_id", eid, "status", in.Status)
	return out, nil
}

// rebalance sets stamp_count to the ledger total minus stamps held by
// non-cancelled exchanges. A cancelled exchange's stamps are returned only as
// far as the ledger still backs them: a delete-today that was floored at 0
// after the exchange has already absorbed part of the deduction.
func (rs *rewardService) rebalance(ctx context.Context, tx *gorm.DB, userID string) (*types.Profile, int, error) {
	p, err := rs.profiles.GetByIDForUpdate(ctx, tx, userID)
	if err != nil || p == nil {
		return nil, 0, err
	}
	earned, err := rs.history.SumAmountByUser(ctx, tx, userID)
	if err != nil {
		return nil, 0, err
	}
	used, err := rs.exchanges.SumUsedByUser(ctx, tx, userID)
	if err != nil {
		return nil, 0, err
	}
	balance := earned - used
	if balance < 0 {
		balance = 0
	}
	delta := balance - p.StampCount
	if delta == 0 {
		return p, 0, nil
	}
	if err := rs.profiles.SetCounts(ctx, tx, userID, balance, p.VisitCount); err != nil {
		return nil, 0, err
	}
	p.StampCount = balance
	return p, delta, nil
}

func invalidTransition(from, to types.ExchangeStatus) error {
	return apierr.New(http.StatusConflict, "invalid_transition", fmt.Errorf("cannot change exchange from %s to %s", from, to))
}
