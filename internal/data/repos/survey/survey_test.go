package survey

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/stampcard-backend/internal/data/repos/testutil"
	types "github.com/yungbote/stampcard-backend/internal/domain"
)

func TestSurveyTargetRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	log := testutil.Logger(t)
	targets := NewSurveyTargetRepo(db, log)
	answers := NewSurveyAnswerRepo(db, log)

	p := testutil.SeedProfile(t, ctx, tx, "Respondent", 0)
	inactive := testutil.SeedSurvey(t, ctx, tx, 1, false)
	active := testutil.SeedSurvey(t, ctx, tx, 1, true)

	n, err := targets.CreateIgnoreExisting(ctx, tx, []*types.SurveyTarget{
		{UserID: p.ID, SurveyID: inactive.ID},
		{UserID: p.ID, SurveyID: active.ID},
	})
	if err != nil || n != 2 {
		t.Fatalf("CreateIgnoreExisting: err=%v n=%d", err, n)
	}
	n, err = targets.CreateIgnoreExisting(ctx, tx, []*types.SurveyTarget{{UserID: p.ID, SurveyID: active.ID}})
	if err != nil || n != 0 {
		t.Fatalf("CreateIgnoreExisting again: err=%v n=%d", err, n)
	}

	target, s, err := targets.FirstPendingForUser(ctx, tx, p.ID)
	if err != nil || target == nil || s == nil {
		t.Fatalf("FirstPendingForUser: err=%v", err)
	}
	if s.ID != active.ID {
		t.Fatalf("FirstPendingForUser: want active survey, got %s", s.ID)
	}

	at := time.Now().UTC()
	ok, err := targets.MarkPostponed(ctx, tx, p.ID, active.ID, at)
	if err != nil || !ok {
		t.Fatalf("MarkPostponed: err=%v ok=%v", err, ok)
	}
	got, err := targets.GetByUserSurvey(ctx, tx, p.ID, active.ID)
	if err != nil || got.PostponedCount != 1 || got.LastShownAt == nil {
		t.Fatalf("GetByUserSurvey: err=%v row=%+v", err, got)
	}

	if err := answers.Create(ctx, tx, &types.SurveyAnswer{UserID: p.ID, SurveyID: active.ID, Q1Rating: 5, Q3Recommend: 9}); err != nil {
		t.Fatalf("answers.Create: %v", err)
	}
	if exists, err := answers.Exists(ctx, tx, p.ID, active.ID); err != nil || !exists {
		t.Fatalf("answers.Exists: err=%v exists=%v", err, exists)
	}
	if err := targets.MarkAnswered(ctx, tx, p.ID, active.ID, at); err != nil {
		t.Fatalf("MarkAnswered: %v", err)
	}
	target, _, err = targets.FirstPendingForUser(ctx, tx, p.ID)
	if err != nil || target != nil {
		t.Fatalf("FirstPendingForUser after answer: err=%v target=%v", err, target)
	}
}

func TestSurveyUpsertKeepsInactive(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewSurveyRepo(db, testutil.Logger(t))

	if err := repo.Upsert(ctx, tx, []*types.Survey{
		{ID: "upsert-old", Title: "2025年度満足度", RewardStamps: 1, IsActive: false},
		{ID: "upsert-new", Title: "2026年度満足度", RewardStamps: 3, IsActive: true},
	}); err != nil {
		t.Fatalf("Upsert(insert): %v", err)
	}
	old, err := repo.GetByID(ctx, tx, "upsert-old")
	if err != nil || old == nil || old.IsActive {
		t.Fatalf("inactive survey stored as %+v err=%v", old, err)
	}

	if err := repo.Upsert(ctx, tx, []*types.Survey{
		{ID: "upsert-new", Title: "2026年度満足度", RewardStamps: 3, IsActive: false},
	}); err != nil {
		t.Fatalf("Upsert(retire): %v", err)
	}
	cur, err := repo.GetByID(ctx, tx, "upsert-new")
	if err != nil || cur == nil || cur.IsActive {
		t.Fatalf("retired survey still active: %+v err=%v", cur, err)
	}
}
