package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/stampcard-backend/internal/data/repos/testutil"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/pkg/pointers"
	"gorm.io/gorm"
)

func TestProfileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewProfileRepo(db, testutil.Logger(t))

	p := &types.Profile{
		ID:          "U-profile-repo-1",
		LineUserID:  pointers.String("U-profile-repo-1"),
		DisplayName: "Taro",
		ViewMode:    types.ViewModeAdult,
	}
	got, err := repo.Upsert(ctx, tx, p)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got == nil || got.DisplayName != "Taro" || got.StampCount != 0 {
		t.Fatalf("Upsert: unexpected row %+v", got)
	}

	if err := repo.AddStamps(ctx, tx, p.ID, 3, 0, nil); err != nil {
		t.Fatalf("AddStamps: %v", err)
	}

	// a second login refreshes LINE fields but keeps counters
	again, err := repo.Upsert(ctx, tx, &types.Profile{
		ID:          p.ID,
		LineUserID:  p.LineUserID,
		DisplayName: "Taro Y",
		PictureURL:  pointers.String("https://example.com/a.png"),
		ViewMode:    types.ViewModeAdult,
	})
	if err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if again.DisplayName != "Taro Y" || again.StampCount != 3 {
		t.Fatalf("Upsert again: got name=%q stamps=%d", again.DisplayName, again.StampCount)
	}

	byLine, err := repo.GetByLineUserID(ctx, tx, "U-profile-repo-1")
	if err != nil || byLine == nil {
		t.Fatalf("GetByLineUserID: err=%v row=%v", err, byLine)
	}

	missing, err := repo.GetByID(ctx, tx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetByID missing: err=%v row=%v", err, missing)
	}
}

func TestProfileRepo_AddStampsFloorsAtZero(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewProfileRepo(db, testutil.Logger(t))
	p := testutil.SeedProfile(t, ctx, tx, "Hanako", 2)

	visitAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.AddStamps(ctx, tx, p.ID, -5, 1, &visitAt); err != nil {
		t.Fatalf("AddStamps: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.StampCount != 0 {
		t.Fatalf("stamp_count: want 0 got %d", got.StampCount)
	}
	if got.VisitCount != 1 || got.LastVisitDate == nil {
		t.Fatalf("visit: count=%d last=%v", got.VisitCount, got.LastVisitDate)
	}

	if err := repo.AddStamps(ctx, tx, "missing-id", 1, 0, nil); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("AddStamps missing: want ErrRecordNotFound got %v", err)
	}
}

func TestProfileRepo_FamilyQueries(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewProfileRepo(db, testutil.Logger(t))

	parent := testutil.SeedProfile(t, ctx, tx, "Parent", 4)
	child := testutil.SeedProfile(t, ctx, tx, "Child", 6)
	fam := testutil.SeedFamily(t, ctx, tx, parent, "Yamada")

	fid := fam.ID.String()
	if err := repo.SetFamily(ctx, tx, child.ID, &fid, pointers.String(types.RoleChild)); err != nil {
		t.Fatalf("SetFamily: %v", err)
	}

	members, err := repo.ListByFamilyID(ctx, tx, fid)
	if err != nil || len(members) != 2 {
		t.Fatalf("ListByFamilyID: err=%v len=%d", err, len(members))
	}

	totals, err := repo.FamilyTotals(ctx, tx, fid)
	if err != nil {
		t.Fatalf("FamilyTotals: %v", err)
	}
	if totals.TotalStampCount != 10 || totals.MemberCount != 2 {
		t.Fatalf("FamilyTotals: %+v", totals)
	}

	if err := repo.SetFamily(ctx, tx, child.ID, nil, nil); err != nil {
		t.Fatalf("SetFamily clear: %v", err)
	}
	got, _ := repo.GetByID(ctx, tx, child.ID)
	if got.InFamily() {
		t.Fatalf("expected child to leave family, got %v", got.FamilyID)
	}
}

func TestProfileRepo_ReservationClicks(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewProfileRepo(db, testutil.Logger(t))
	p := testutil.SeedProfile(t, ctx, tx, "Clicker", 0)

	for i := 1; i <= 2; i++ {
		n, err := repo.IncrementReservationClicks(ctx, tx, p.ID)
		if err != nil {
			t.Fatalf("IncrementReservationClicks: %v", err)
		}
		if n != i {
			t.Fatalf("clicks: want %d got %d", i, n)
		}
	}
	if _, err := repo.IncrementReservationClicks(ctx, tx, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("missing: want ErrRecordNotFound got %v", err)
	}
}
