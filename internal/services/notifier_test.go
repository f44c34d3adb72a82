package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/realtime"
)

func TestNotifierRoutesByMembership(t *testing.T) {
	em := &recordingEmitter{}
	n := NewNotifier(em)
	ctx := context.Background()

	solo := &types.Profile{ID: "Usolo", StampCount: 3}
	n.StampCountChanged(ctx, solo, 3, types.StampMethodSlotGame)
	if chs := em.channels(realtime.SSEEventStampCountChanged); len(chs) != 1 || chs[0] != realtime.UserChannel("Usolo") {
		t.Fatalf("solo channels: %v", chs)
	}

	fid := uuid.NewString()
	member := &types.Profile{ID: "Umember", FamilyID: &fid}
	n.RewardExchanged(ctx, member, &types.RewardExchange{ID: uuid.New()})
	chs := em.channels(realtime.SSEEventRewardExchanged)
	if len(chs) != 2 || chs[1] != realtime.FamilyChannel(fid) {
		t.Fatalf("member channels: %v", chs)
	}

	n.RewardExchanged(ctx, member, nil)
	n.StampCountChanged(ctx, nil, 1, types.StampMethodQRScan)
	if got := len(em.channels(realtime.SSEEventRewardExchanged)); got != 2 {
		t.Fatalf("nil payloads should not emit, got=%d", got)
	}
}
