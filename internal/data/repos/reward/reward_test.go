package reward

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/stampcard-backend/internal/data/repos/testutil"
	types "github.com/yungbote/stampcard-backend/internal/domain"
)

func TestRewardRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewRewardRepo(db, testutil.Logger(t))

	second := testutil.SeedReward(t, ctx, tx, "toothbrush", 10, 2, true)
	first := testutil.SeedReward(t, ctx, tx, "sticker", 5, 1, true)
	hidden := testutil.SeedReward(t, ctx, tx, "retired", 1, 0, false)

	rows, err := repo.ListActive(ctx, tx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	idx := map[string]int{}
	for i, r := range rows {
		idx[r.ID.String()] = i
	}
	if _, ok := idx[hidden.ID.String()]; ok {
		t.Fatalf("ListActive returned inactive reward")
	}
	if idx[first.ID.String()] > idx[second.ID.String()] {
		t.Fatalf("ListActive: want display_order ascending")
	}

	got, err := repo.GetByID(ctx, tx, first.ID)
	if err != nil || got == nil || got.RequiredStamps != 5 {
		t.Fatalf("GetByID: err=%v row=%+v", err, got)
	}

	// upsert by name replaces requirements
	if err := repo.UpsertByName(ctx, tx, []*types.Reward{{
		Name:           first.Name,
		RequiredStamps: 7,
		DisplayOrder:   1,
		IsActive:       true,
	}}); err != nil {
		t.Fatalf("UpsertByName: %v", err)
	}
	got, _ = repo.GetByID(ctx, tx, first.ID)
	if got.RequiredStamps != 7 {
		t.Fatalf("UpsertByName: want 7 got %d", got.RequiredStamps)
	}
}

func TestRewardExchangeRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewRewardExchangeRepo(db, testutil.Logger(t))

	p := testutil.SeedProfile(t, ctx, tx, "Exchanger", 20)
	r := testutil.SeedReward(t, ctx, tx, "gift", 5, 1, true)

	now := time.Now().UTC()
	a := &types.RewardExchange{UserID: p.ID, RewardID: r.ID, StampCountUsed: 5, ExchangedAt: now.Add(-time.Minute), Status: types.ExchangeStatusPending}
	b := &types.RewardExchange{UserID: p.ID, RewardID: r.ID, StampCountUsed: 5, ExchangedAt: now, Status: types.ExchangeStatusPending}
	if _, err := repo.Create(ctx, tx, []*types.RewardExchange{a, b}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := repo.ListByUser(ctx, tx, p.ID)
	if err != nil || len(list) != 2 || list[0].ID != b.ID {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(list))
	}

	ok, err := repo.UpdateStatus(ctx, tx, a.ID, types.ExchangeStatusPending, types.ExchangeStatusCancelled)
	if err != nil || !ok {
		t.Fatalf("UpdateStatus: err=%v ok=%v", err, ok)
	}
	// second transition from pending no longer matches
	ok, err = repo.UpdateStatus(ctx, tx, a.ID, types.ExchangeStatusPending, types.ExchangeStatusCompleted)
	if err != nil || ok {
		t.Fatalf("UpdateStatus stale: err=%v ok=%v", err, ok)
	}

	used, err := repo.SumUsedByUser(ctx, tx, p.ID)
	if err != nil || used != 5 {
		t.Fatalf("SumUsedByUser: err=%v used=%d", err, used)
	}
}

func TestRewardUpsertByNameKeepsInactive(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewRewardRepo(db, testutil.Logger(t))

	if err := repo.UpsertByName(ctx, tx, []*types.Reward{
		{Name: "upsert-retired", RequiredStamps: 10, IsActive: false},
		{Name: "upsert-floss", RequiredStamps: 20, IsActive: true},
	}); err != nil {
		t.Fatalf("UpsertByName(insert): %v", err)
	}
	active := activeNames(t, ctx, repo, tx)
	if active["upsert-retired"] || !active["upsert-floss"] {
		t.Fatalf("after insert: active=%v", active)
	}

	// a later catalog retires a reward that is currently active
	if err := repo.UpsertByName(ctx, tx, []*types.Reward{
		{Name: "upsert-floss", RequiredStamps: 20, IsActive: false},
	}); err != nil {
		t.Fatalf("UpsertByName(retire): %v", err)
	}
	if active := activeNames(t, ctx, repo, tx); active["upsert-floss"] {
		t.Fatalf("after retire: active=%v", active)
	}
}

func activeNames(t *testing.T, ctx context.Context, repo RewardRepo, tx *gorm.DB) map[string]bool {
	t.Helper()
	rows, err := repo.ListActive(ctx, tx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	out := map[string]bool{}
	for _, r := range rows {
		out[r.Name] = true
	}
	return out
}
