package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	dbpkg "github.com/yungbote/stampcard-backend/internal/data/db"
	"github.com/yungbote/stampcard-backend/internal/data/repos"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/domain/analytics"
	"github.com/yungbote/stampcard-backend/internal/domain/stamp"
	"github.com/yungbote/stampcard-backend/internal/observability"
	"github.com/yungbote/stampcard-backend/internal/platform/apierr"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

const (
	maxManualStampCount = 999
	historyLimit        = 200

	ScanTypePremium = "premium"
	ScanTypeRegular = "regular"
)

type RegisterResult struct {
	StampCount  int `json:"stampCount"`
	StampNumber int `json:"stampNumber"`
}

type ScanInput struct {
	UserID   string `json:"userId"`
	Type     string `json:"type"`
	Stamps   int    `json:"stamps"`
	QRCodeID string `json:"qrCodeId"`
}

type StampGrantResult struct {
	Message     string `json:"message,omitempty"`
	StampCount  int    `json:"stampCount"`
	StampsAdded int    `json:"stampsAdded"`
}

type ManualAdjustInput struct {
	UserID        string `json:"userId"`
	StaffPin      string `json:"staffPin"`
	NewStampCount *int   `json:"newStampCount"`
}

type ManualAdjustResult struct {
	Message       string `json:"message"`
	Changed       bool   `json:"changed"`
	StampCount    int    `json:"stampCount"`
	PreviousCount int    `json:"previousCount"`
	Delta         int    `json:"delta"`
}

type DeleteTodayResult struct {
	DeletedCount int    `json:"deletedCount"`
	Removed      int    `json:"removedStamps"`
	StampCount   int    `json:"stampCount"`
	Message      string `json:"message"`
}

// CountDrift compares the cached profile counters with what the ledger implies.
type CountDrift struct {
	UserID        string `json:"userId"`
	StampCount    int    `json:"stampCount"`
	ExpectedStamp int    `json:"expectedStampCount"`
	VisitCount    int    `json:"visitCount"`
	ExpectedVisit int    `json:"expectedVisitCount"`
}

func (d CountDrift) Drifted() bool {
	return d.StampCount != d.ExpectedStamp || d.VisitCount != d.ExpectedVisit
}

type StampService interface {
	History(ctx context.Context, userID string) ([]*types.StampHistoryRecord, error)
	Register(ctx context.Context, userID, qrCodeID string) (*RegisterResult, error)
	Scan(ctx context.Context, in ScanInput) (*StampGrantResult, error)
	Slot(ctx context.Context, userID string, stamps int) (*StampGrantResult, error)
	ManualAdjust(ctx context.Context, in ManualAdjustInput) (*ManualAdjustResult, error)
	DeleteTodayScans(ctx context.Context, userID string) (*DeleteTodayResult, error)
	Progress(ctx context.Context, userID string, goal int) (*types.StampProgress, error)
	Recompute(ctx context.Context, userID string, apply bool) (*CountDrift, error)
	RecomputeAll(ctx context.Context, apply bool) ([]CountDrift, error)
}

type stampService struct {
	db        *gorm.DB
	log       *logger.Logger
	profiles  repos.ProfileRepo
	history   repos.StampHistoryRepo
	exchanges repos.RewardExchangeRepo
	staff     StaffGate
	analytics AnalyticsService
	notify    Notifier
	calendar  *ClinicCalendar
	metrics   *observability.Metrics
}

func NewStampService(
	db *gorm.DB,
	log *logger.Logger,
	profiles repos.ProfileRepo,
	history repos.StampHistoryRepo,
	exchanges repos.RewardExchangeRepo,
	staff StaffGate,
	analytics AnalyticsService,
	notify Notifier,
	calendar *ClinicCalendar,
	metrics *observability.Metrics,
) StampService {
	return &stampService{
		db:        db,
		log:       log.With("service", "StampService"),
		profiles:  profiles,
		history:   history,
		exchanges: exchanges,
		staff:     staff,
		analytics: analytics,
		notify:    notify,
		calendar:  calendar,
		metrics:   metrics,
	}
}

func (ss *stampService) History(ctx context.Context, userID string) ([]*types.StampHistoryRecord, error) {
	uid, err := actingUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := ss.history.ListByUser(ctx, ss.db, uid, historyLimit)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "stamp_history_failed", err)
	}
	return rows, nil
}

// credit appends rec to the ledger and applies its amount to the profile in the same transaction.
func (ss *stampService) credit(ctx context.Context, tx *gorm.DB, rec *types.StampHistoryRecord, visitDelta int) (*types.Profile, error) {
	if _, err := ss.history.Create(ctx, tx, []*types.StampHistoryRecord{rec}); err != nil {
		return nil, err
	}
	var visitAt *time.Time
	if visitDelta > 0 {
		visitAt = &rec.VisitDate
	}
	if err := ss.profiles.AddStamps(ctx, tx, rec.UserID, rec.Amount, visitDelta, visitAt); err != nil {
		return nil, err
	}
	return ss.profiles.GetByID(ctx, tx, rec.UserID)
}

func (ss *stampService) lockProfile(ctx context.Context, tx *gorm.DB, uid string) (*types.Profile, error) {
	p, err := ss.profiles.GetByIDForUpdate(ctx, tx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound("user_not_found", "user")
	}
	return p, nil
}

func (ss *stampService) newRecord(uid string, method types.StampMethod, amount, stampNumber int) *types.StampHistoryRecord {
	now := ss.calendar.Now()
	return &types.StampHistoryRecord{
		UserID:      uid,
		VisitDate:   now,
		VisitDay:    ss.calendar.Day(now),
		StampNumber: stampNumber,
		Method:      method,
		Amount:      amount,
	}
}

func (ss *stampService) changed(ctx context.Context, p *types.Profile, delta int, method types.StampMethod) {
	ss.metrics.AddStamps(string(method), delta)
	if ss.notify != nil {
		ss.notify.StampCountChanged(ctx, p, delta, method)
	}
}

func (ss *stampService) Register(ctx context.Context, userID, qrCodeID string) (*RegisterResult, error) {
	uid, err := actingUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	qrCodeID = strings.TrimSpace(qrCodeID)
	if qrCodeID == "" {
		return nil, badRequest("invalid_request", "qrCodeId is required")
	}
	ctx, span := observability.StartSpan(ctx, "stamps.register", attribute.String("stamp.method", string(types.StampMethodQRScan)))
	defer span.End()

	duplicate := badRequest("duplicate_stamp", "本日はすでにこのQRコードでスタンプを取得済みです")
	var out RegisterResult
	var updated *types.Profile
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := ss.lockProfile(ctx, tx, uid)
		if err != nil {
			return err
		}
		rec := ss.newRecord(uid, types.StampMethodQRScan, 1, p.StampCount+1)
		rec.QRCodeID = &qrCodeID
		exists, err := ss.history.ExistsQRForDay(ctx, tx, uid, qrCodeID, rec.VisitDay)
		if err != nil {
			return err
		}
		if exists {
			return duplicate
		}
		updated, err = ss.credit(ctx, tx, rec, 1)
		if err != nil {
			if dbpkg.IsUniqueViolation(err) {
				return duplicate
			}
			return err
		}
		out = RegisterResult{StampCount: updated.StampCount, StampNumber: rec.StampNumber}
		return nil
	})
	if err != nil {
		if ae, ok := apierr.From(err); ok && ae.Code == "duplicate_stamp" {
			ss.metrics.IncScanRejected("duplicate")
		}
		return nil, passAPIErr(err, http.StatusInternalServerError, "stamp_register_failed")
	}
	ss.changed(ctx, updated, 1, types.StampMethodQRScan)
	return &out, nil
}

func (ss *stampService) Scan(ctx context.Context, in ScanInput) (*StampGrantResult, error) {
	uid, err := actingUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if in.Type != ScanTypePremium && in.Type != ScanTypeRegular {
		ss.metrics.IncScanRejected("invalid_type")
		return nil, apierr.Newf(http.StatusBadRequest, "invalid_qr_type", "無効なQRコードタイプです: %q", in.Type)
	}
	if in.Stamps <= 0 {
		ss.metrics.IncScanRejected("invalid_amount")
		return nil, badRequest("invalid_stamps", "無効なスタンプ個数です")
	}
	ctx, span := observability.StartSpan(ctx, "stamps.scan",
		attribute.String("stamp.method", string(types.StampMethodQRScan)),
		attribute.String("scan.type", in.Type),
		attribute.Int("scan.stamps", in.Stamps),
	)
	defer span.End()

	qrCodeID := strings.TrimSpace(in.QRCodeID)
	duplicate := apierr.New(http.StatusConflict, "already_scanned_today", errors.New("本日すでにこのQRコードでスタンプを取得済みです"))

	var updated *types.Profile
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := ss.lockProfile(ctx, tx, uid)
		if err != nil {
			return err
		}
		rec := ss.newRecord(uid, types.StampMethodQRScan, in.Stamps, p.StampCount+in.Stamps)
		if qrCodeID != "" {
			exists, err := ss.history.ExistsQRForDay(ctx, tx, uid, qrCodeID, rec.VisitDay)
			if err != nil {
				return err
			}
			if exists {
				return duplicate
			}
			rec.QRCodeID = &qrCodeID
		} else {
			generated := fmt.Sprintf("%s_%d", in.Type, rec.VisitDate.UnixMilli())
			rec.QRCodeID = &generated
		}
		updated, err = ss.credit(ctx, tx, rec, 1)
		if err != nil && dbpkg.IsUniqueViolation(err) {
			return duplicate
		}
		return err
	})
	if err != nil {
		if ae, ok := apierr.From(err); ok && ae.Code == "already_scanned_today" {
			ss.metrics.IncScanRejected("duplicate")
			ss.analytics.Track(ctx, uid, analytics.EventStampScanFail, "api", map[string]any{
				"error":    "Duplicate QR code scan today",
				"qrCodeId": qrCodeID,
			})
		}
		return nil, passAPIErr(err, http.StatusInternalServerError, "stamp_scan_failed")
	}

	ss.changed(ctx, updated, in.Stamps, types.StampMethodQRScan)
	ss.analytics.Track(ctx, uid, analytics.EventStampScanSuccess, "api", map[string]any{
		"stampsAdded": in.Stamps,
		"type":        in.Type,
	})
	ss.log.Info("QR scan credited", "user_id", uid, "type", in.Type, "stamps", in.Stamps, "stamp_count", updated.StampCount)
	return &StampGrantResult{
		Message:     fmt.Sprintf("%d個のスタンプを獲得しました！", in.Stamps),
		StampCount:  updated.StampCount,
		StampsAdded: in.Stamps,
	}, nil
}

func (ss *stampService) Slot(ctx context.Context, userID string, stamps int) (*StampGrantResult, error) {
	uid, err := actingUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stamps < 1 {
		return nil, badRequest("invalid_stamps", "stamps must be at least 1")
	}
	ctx, span := observability.StartSpan(ctx, "stamps.slot", attribute.Int("slot.stamps", stamps))
	defer span.End()

	var updated *types.Profile
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := ss.lockProfile(ctx, tx, uid)
		if err != nil {
			return err
		}
		rec := ss.newRecord(uid, types.StampMethodSlotGame, stamps, p.StampCount+stamps)
		note := fmt.Sprintf("スロットゲーム: %d個付与", stamps)
		rec.Notes = &note
		updated, err = ss.credit(ctx, tx, rec, 0)
		return err
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "slot_stamp_failed")
	}
	ss.changed(ctx, updated, stamps, types.StampMethodSlotGame)
	ss.analytics.Track(ctx, uid, analytics.EventSlotGamePlay, "api", map[string]any{"stampsAdded": stamps})
	return &StampGrantResult{StampCount: updated.StampCount, StampsAdded: stamps}, nil
}

func (ss *stampService) ManualAdjust(ctx context.Context, in ManualAdjustInput) (*ManualAdjustResult, error) {
	uid, err := actingUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if in.NewStampCount == nil || *in.NewStampCount < 0 || *in.NewStampCount > maxManualStampCount {
		return nil, apierr.Newf(http.StatusBadRequest, "invalid_stamp_count", "スタンプ数は0から%dの範囲で指定してください", maxManualStampCount)
	}
	if err := ss.staff.Verify(in.StaffPin); err != nil {
		return nil, err
	}
	target := *in.NewStampCount
	ctx, span := observability.StartSpan(ctx, "stamps.manual_adjust", attribute.Int("stamp.target", target))
	defer span.End()

	out := &ManualAdjustResult{StampCount: target}
	var updated *types.Profile
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := ss.lockProfile(ctx, tx, uid)
		if err != nil {
			return err
		}
		out.PreviousCount = p.StampCount
		out.Delta = target - p.StampCount
		if out.Delta == 0 {
			out.Message = "スタンプ数は既に同じ値です"
			return nil
		}
		rec := ss.newRecord(uid, types.StampMethodManualAdmin, out.Delta, target)
		code := ss.calendar.ManualAdjustCode(rec.VisitDate)
		rec.QRCodeID = &code
		note := fmt.Sprintf("スタッフ操作: %s個 (%d → %d)", signed(out.Delta), p.StampCount, target)
		rec.Notes = &note
		if _, err := ss.history.Create(ctx, tx, []*types.StampHistoryRecord{rec}); err != nil {
			return err
		}
		if err := ss.profiles.SetCounts(ctx, tx, uid, target, p.VisitCount); err != nil {
			return err
		}
		updated, err = ss.profiles.GetByID(ctx, tx, uid)
		if err != nil {
			return err
		}
		out.Changed = true
		out.Message = fmt.Sprintf("スタンプ数を%d個に更新しました", target)
		return nil
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "manual_adjust_failed")
	}
	if out.Changed {
		ss.changed(ctx, updated, out.Delta, types.StampMethodManualAdmin)
		ss.log.Info("stamp count adjusted by staff", "user_id", uid, "from", out.PreviousCount, "to", target)
	}
	return out, nil
}

func (ss *stampService) DeleteTodayScans(ctx context.Context, userID string) (*DeleteTodayResult, error) {
	uid, err := actingUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(ctx, "stamps.delete_today")
	defer span.End()

	out := &DeleteTodayResult{}
	var updated *types.Profile
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.lockProfile(ctx, tx, uid); err != nil {
			return err
		}
		rows, err := ss.history.ListByUserDayMethod(ctx, tx, uid, ss.calendar.Today(), types.StampMethodQRScan)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return notFound("no_scans_today", "today's QR scan history")
		}
		ids := make([]uuid.UUID, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
			out.Removed += r.Amount
		}
		deleted, err := ss.history.DeleteByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		out.DeletedCount = int(deleted)
		if err := ss.profiles.AddStamps(ctx, tx, uid, -out.Removed, -out.DeletedCount, nil); err != nil {
			return err
		}
		updated, err = ss.profiles.GetByID(ctx, tx, uid)
		return err
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "delete_today_failed")
	}
	out.StampCount = updated.StampCount
	out.Message = fmt.Sprintf("本日のQRスキャン履歴を削除しました（-%d ポイント）", out.Removed)
	ss.changed(ctx, updated, -out.Removed, types.StampMethodQRScan)
	ss.log.Info("today's QR scans removed", "user_id", uid, "rows", out.DeletedCount, "stamps", out.Removed)
	return out, nil
}

func (ss *stampService) Progress(ctx context.Context, userID string, goal int) (*types.StampProgress, error) {
	if goal <= 0 {
		return nil, badRequest("invalid_goal", "goal must be greater than 0")
	}
	uid, err := actingUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := ss.profiles.GetByID(ctx, ss.db, uid)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "stamp_progress_failed", err)
	}
	if p == nil {
		return nil, notFound("user_not_found", "user")
	}
	progress := stamp.ComputeProgress(p.StampCount, goal)
	return &progress, nil
}

// Recompute derives the counters from the ledger and, when apply is set, writes them back.
func (ss *stampService) Recompute(ctx context.Context, userID string, apply bool) (*CountDrift, error) {
	var drift CountDrift
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := ss.profiles.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if p == nil {
			return notFound("user_not_found", "user")
		}
		earned, err := ss.history.SumAmountByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		used, err := ss.exchanges.SumUsedByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		visits, err := ss.history.CountByUserMethod(ctx, tx, userID, types.StampMethodQRScan)
		if err != nil {
			return err
		}
		expected := earned - used
		if expected < 0 {
			expected = 0
		}
		drift = CountDrift{
			UserID:        userID,
			StampCount:    p.StampCount,
			ExpectedStamp: expected,
			VisitCount:    p.VisitCount,
			ExpectedVisit: visits,
		}
		if apply && drift.Drifted() {
			return ss.profiles.SetCounts(ctx, tx, userID, expected, visits)
		}
		return nil
	})
	if err != nil {
		return nil, passAPIErr(err, http.StatusInternalServerError, "recompute_failed")
	}
	return &drift, nil
}

func (ss *stampService) RecomputeAll(ctx context.Context, apply bool) ([]CountDrift, error) {
	ids, err := ss.profiles.ListIDs(ctx, ss.db)
	if err != nil {
		return nil, err
	}
	var drifted []CountDrift
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return drifted, err
		}
		d, err := ss.Recompute(ctx, id, apply)
		if err != nil {
			return drifted, fmt.Errorf("recompute %s: %w", id, err)
		}
		if d.Drifted() {
			drifted = append(drifted, *d)
		}
	}
	return drifted, nil
}

func signed(n int) string {
	if n < 0 {
		return fmt.Sprintf("-%d", -n)
	}
	return fmt.Sprintf("+%d", n)
}
