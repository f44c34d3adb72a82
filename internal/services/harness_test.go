package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/stampcard-backend/internal/data/repos"
	"github.com/yungbote/stampcard-backend/internal/data/repos/testutil"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/apierr"
	"github.com/yungbote/stampcard-backend/internal/platform/ctxutil"
	"github.com/yungbote/stampcard-backend/internal/realtime"
)

const testStaffPin = "2468"

var (
	staffOnce sync.Once
	testGate  StaffGate
)

func testStaff(tb testing.TB) StaffGate {
	tb.Helper()
	staffOnce.Do(func() {
		g, err := NewStaffGate(testStaffPin)
		if err != nil {
			tb.Fatalf("NewStaffGate: %v", err)
		}
		testGate = g
	})
	return testGate
}

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *recordingEmitter) messages(event realtime.SSEEvent) []realtime.SSEMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []realtime.SSEMessage
	for _, m := range e.msgs {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

func (e *recordingEmitter) channels(event realtime.SSEEvent) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, m := range e.msgs {
		if m.Event == event {
			out = append(out, m.Channel)
		}
	}
	return out
}

// harness wires every service against one rolled-back transaction.
type harness struct {
	tx       *gorm.DB
	calendar *ClinicCalendar
	emitter  *recordingEmitter

	profiles  repos.ProfileRepo
	families  repos.FamilyRepo
	history   repos.StampHistoryRepo
	rewards   repos.RewardRepo
	exchanges repos.RewardExchangeRepo
	surveys   repos.SurveyRepo
	targets   repos.SurveyTargetRepo
	answers   repos.SurveyAnswerRepo
	events    repos.EventLogRepo

	analytics AnalyticsService
	users     UserService
	stamps    StampService
	rewardSvc RewardService
	familySvc FamilyService
	surveySvc SurveyService
	catalog   CatalogService
	auth      AuthService
}

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	cal, err := NewClinicCalendar("UTC")
	if err != nil {
		t.Fatalf("NewClinicCalendar: %v", err)
	}
	cal = cal.WithClock(func() time.Time { return testNow })

	h := &harness{
		tx:        tx,
		calendar:  cal,
		emitter:   &recordingEmitter{},
		profiles:  repos.NewProfileRepo(tx, log),
		families:  repos.NewFamilyRepo(tx, log),
		history:   repos.NewStampHistoryRepo(tx, log),
		rewards:   repos.NewRewardRepo(tx, log),
		exchanges: repos.NewRewardExchangeRepo(tx, log),
		surveys:   repos.NewSurveyRepo(tx, log),
		targets:   repos.NewSurveyTargetRepo(tx, log),
		answers:   repos.NewSurveyAnswerRepo(tx, log),
		events:    repos.NewEventLogRepo(tx, log),
	}
	staff := testStaff(t)
	notify := NewNotifier(h.emitter)

	h.analytics = NewAnalyticsService(log, h.events, nil)
	h.users = NewUserService(tx, log, h.profiles, h.families, staff, h.analytics, cal)
	h.stamps = NewStampService(tx, log, h.profiles, h.history, h.exchanges, staff, h.analytics, notify, cal, nil)
	h.rewardSvc = NewRewardService(tx, log, h.profiles, h.rewards, h.exchanges, h.history, staff, h.analytics, notify, cal, nil)
	h.familySvc = NewFamilyService(tx, log, h.profiles, h.families, h.history, h.exchanges, nil, h.analytics, notify, nil)
	h.surveySvc = NewSurveyService(tx, log, h.profiles, h.history, h.surveys, h.targets, h.answers, staff, notify, cal, nil, 0)
	h.catalog = NewCatalogService(tx, log, h.rewards, h.surveys, nil)
	h.auth = NewAuthService(tx, log, h.users, nil, "test-secret", time.Hour)
	return h
}

func asUser(id string) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: id})
}

func (h *harness) reload(t *testing.T, id string) *types.Profile {
	t.Helper()
	p, err := h.profiles.GetByID(context.Background(), h.tx, id)
	if err != nil {
		t.Fatalf("GetByID(%s): %v", id, err)
	}
	if p == nil {
		t.Fatalf("GetByID(%s): profile missing", id)
	}
	return p
}

func (h *harness) eventCount(t *testing.T, userID, name string) int64 {
	t.Helper()
	n, err := h.events.CountByName(context.Background(), h.tx, userID, name)
	if err != nil {
		t.Fatalf("CountByName: %v", err)
	}
	return n
}

// ledgerBalance applies the stamp_count consistency rule directly.
func (h *harness) ledgerBalance(t *testing.T, userID string) int {
	t.Helper()
	ctx := context.Background()
	earned, err := h.history.SumAmountByUser(ctx, h.tx, userID)
	if err != nil {
		t.Fatalf("SumAmountByUser: %v", err)
	}
	used, err := h.exchanges.SumUsedByUser(ctx, h.tx, userID)
	if err != nil {
		t.Fatalf("SumUsedByUser: %v", err)
	}
	return earned - used
}

func wantAPIErr(t *testing.T, op string, err error, status int, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected %d %s, got nil", op, status, code)
	}
	ae, ok := apierr.From(err)
	if !ok {
		t.Fatalf("%s: expected api error, got %v", op, err)
	}
	if ae.Status != status || (code != "" && ae.Code != code) {
		t.Fatalf("%s: want=%d/%s got=%d/%s (%v)", op, status, code, ae.Status, ae.Code, ae.Err)
	}
}
