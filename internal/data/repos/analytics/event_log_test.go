package analytics

import (
	"context"
	"testing"

	"github.com/yungbote/stampcard-backend/internal/data/repos/testutil"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/pkg/pointers"
	"gorm.io/datatypes"
)

func TestEventLogRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewEventLogRepo(db, testutil.Logger(t))
	p := testutil.SeedProfile(t, ctx, tx, "Tracker", 0)

	err := repo.Create(ctx, tx, []*types.EventLog{
		{UserID: pointers.String(p.ID), EventName: "app_open", Metadata: datatypes.JSON(`{"v":"1"}`)},
		{UserID: pointers.String(p.ID), EventName: "page_view", Source: pointers.String("home")},
		{UserID: pointers.String(p.ID), EventName: "page_view"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := repo.CountByName(ctx, tx, p.ID, "page_view")
	if err != nil || n != 2 {
		t.Fatalf("CountByName: err=%v n=%d", err, n)
	}
	rows, err := repo.ListByUser(ctx, tx, p.ID, 2)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(rows))
	}
}
