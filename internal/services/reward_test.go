package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/stampcard-backend/internal/data/repos/testutil"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/domain/analytics"
	"github.com/yungbote/stampcard-backend/internal/realtime"
)

func TestRewardStatusUsesOwnStampCount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := testutil.SeedProfile(t, ctx, h.tx, "status", 50)
	cheap := testutil.SeedReward(t, ctx, h.tx, "歯ブラシ", 30, 1, true)
	pricey := testutil.SeedReward(t, ctx, h.tx, "電動歯ブラシ", 100, 2, true)
	testutil.SeedReward(t, ctx, h.tx, "終了した特典", 10, 0, false)

	res, err := h.rewardSvc.Status(asUser(p.ID), "")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if res.StampCount != 50 || len(res.Rewards) != 2 {
		t.Fatalf("Status: count=%d rewards=%d", res.StampCount, len(res.Rewards))
	}
	if res.Rewards[0].ID != cheap.ID || !res.Rewards[0].CanExchange || res.Rewards[0].RemainingStamps != -20 {
		t.Fatalf("cheap reward status: %+v", res.Rewards[0])
	}
	if res.Rewards[1].ID != pricey.ID || res.Rewards[1].CanExchange || res.Rewards[1].RemainingStamps != 50 {
		t.Fatalf("pricey reward status: %+v", res.Rewards[1])
	}
}

func TestRewardExchangeDeductsAndRecords(t *testing.T) {
	h := newHarness(t)
	bg := context.Background()
	p := testutil.SeedProfile(t, bg, h.tx, "exchanger", 0)
	ctx := asUser(p.ID)
	if _, err := h.stamps.Scan(ctx, ScanInput{Type: ScanTypePremium, Stamps: 40, QRCodeID: "x"}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	rw := testutil.SeedReward(t, bg, h.tx, "フッ素", 30, 1, true)

	res, err := h.rewardSvc.Exchange(ctx, "", rw.ID.String())
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if res.NewStampCount != 10 || res.Exchange.Status != types.ExchangeStatusPending || res.Exchange.StampCountUsed != 30 {
		t.Fatalf("Exchange: %+v", res)
	}
	if res.Exchange.Notes == nil || *res.Exchange.Notes != "特典交換: "+rw.Name {
		t.Fatalf("exchange note: %v", res.Exchange.Notes)
	}
	if bal := h.ledgerBalance(t, p.ID); bal != 10 {
		t.Fatalf("ledger balance: %d", bal)
	}
	if n := h.eventCount(t, p.ID, analytics.EventRewardExchangeSuccess); n != 1 {
		t.Fatalf("exchange events: %d", n)
	}
	if chs := h.emitter.channels(realtime.SSEEventRewardExchanged); len(chs) != 1 {
		t.Fatalf("reward exchanged events: %v", chs)
	}

	_, err = h.rewardSvc.Exchange(ctx, "", rw.ID.String())
	wantAPIErr(t, "Exchange(insufficient)", err, http.StatusBadRequest, "insufficient_stamps")
	if err.Error() != "スタンプが不足しています（現在10個、必要30個）" {
		t.Fatalf("insufficient message: %q", err.Error())
	}

	hist, err := h.rewardSvc.History(ctx, "")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 1 || hist[0].Reward == nil || hist[0].Reward.ID != rw.ID {
		t.Fatalf("History: %+v", hist)
	}
}

func TestRewardExchangeNotFound(t *testing.T) {
	h := newHarness(t)
	bg := context.Background()
	p := testutil.SeedProfile(t, bg, h.tx, "nf", 100)
	inactive := testutil.SeedReward(t, bg, h.tx, "old", 1, 1, false)
	ctx := asUser(p.ID)

	_, err := h.rewardSvc.Exchange(ctx, "", inactive.ID.String())
	wantAPIErr(t, "Exchange(inactive)", err, http.StatusNotFound, "reward_not_found")
	_, err = h.rewardSvc.Exchange(ctx, "", uuid.NewString())
	wantAPIErr(t, "Exchange(missing)", err, http.StatusNotFound, "reward_not_found")
	_, err = h.rewardSvc.Exchange(ctx, "", "not-a-uuid")
	wantAPIErr(t, "Exchange(bad id)", err, http.StatusNotFound, "reward_not_found")

	active := testutil.SeedReward(t, bg, h.tx, "new", 1, 1, true)
	_, err = h.rewardSvc.Exchange(asUser("Ughost"), "", active.ID.String())
	wantAPIErr(t, "Exchange(no profile)", err, http.StatusNotFound, "user_not_found")
}

func TestRewardExchangeStatusTransitions(t *testing.T) {
	h := newHarness(t)
	bg := context.Background()
	p := testutil.SeedProfile(t, bg, h.tx, "transitions", 0)
	ctx := asUser(p.ID)
	if _, err := h.stamps.Slot(ctx, "", 60); err != nil {
		t.Fatalf("Slot: %v", err)
	}
	rw := testutil.SeedReward(t, bg, h.tx, "transition reward", 20, 1, true)

	first, err := h.rewardSvc.Exchange(ctx, "", rw.ID.String())
	if err != nil {
		t.Fatalf("Exchange #1: %v", err)
	}
	second, err := h.rewardSvc.Exchange(ctx, "", rw.ID.String())
	if err != nil {
		t.Fatalf("Exchange #2: %v", err)
	}

	_, err = h.rewardSvc.UpdateExchangeStatus(ctx, first.Exchange.ID.String(), UpdateExchangeInput{StaffPin: "nope", Status: types.ExchangeStatusCompleted})
	wantAPIErr(t, "UpdateExchangeStatus(pin)", err, http.StatusUnauthorized, "invalid_staff_pin")

	done, err := h.rewardSvc.UpdateExchangeStatus(ctx, first.Exchange.ID.String(), UpdateExchangeInput{StaffPin: testStaffPin, Status: types.ExchangeStatusCompleted})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != types.ExchangeStatusCompleted {
		t.Fatalf("status: %s", done.Status)
	}
	_, err = h.rewardSvc.UpdateExchangeStatus(ctx, first.Exchange.ID.String(), UpdateExchangeInput{StaffPin: testStaffPin, Status: types.ExchangeStatusCancelled})
	wantAPIErr(t, "cancel completed", err, http.StatusConflict, "invalid_transition")

	if _, err := h.rewardSvc.UpdateExchangeStatus(ctx, second.Exchange.ID.String(), UpdateExchangeInput{StaffPin: testStaffPin, Status: types.ExchangeStatusCancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got := h.reload(t, p.ID)
	if got.StampCount != 40 {
		t.Fatalf("refund: stamp_count=%d", got.StampCount)
	}
	if bal := h.ledgerBalance(t, p.ID); bal != got.StampCount {
		t.Fatalf("ledger balance=%d stamp_count=%d", bal, got.StampCount)
	}

	_, err = h.rewardSvc.UpdateExchangeStatus(ctx, second.Exchange.ID.String(), UpdateExchangeInput{StaffPin: testStaffPin, Status: types.ExchangeStatusPending})
	wantAPIErr(t, "to pending", err, http.StatusBadRequest, "invalid_status")
	_, err = h.rewardSvc.UpdateExchangeStatus(ctx, uuid.NewString(), UpdateExchangeInput{StaffPin: testStaffPin, Status: types.ExchangeStatusCompleted})
	wantAPIErr(t, "missing exchange", err, http.StatusNotFound, "exchange_not_found")
}

func TestRewardCancelAfterDeleteTodayFollowsLedger(t *testing.T) {
	h := newHarness(t)
	bg := context.Background()
	rw := testutil.SeedReward(t, bg, h.tx, "cancel after reset", 10, 1, true)

	cases := []struct {
		name       string
		slotStamps int
		wantCount  int
		wantRefund bool
	}{
		// the reset already absorbed the whole deduction
		{"nothing left to refund", 0, 0, false},
		// only the slot stamps still back the exchange
		{"partial refund", 5, 5, true},
	}
	for _, tc := range cases {
		p := testutil.SeedProfile(t, bg, h.tx, tc.name, 0)
		ctx := asUser(p.ID)
		if tc.slotStamps > 0 {
			if _, err := h.stamps.Slot(ctx, "", tc.slotStamps); err != nil {
				t.Fatalf("%s: Slot: %v", tc.name, err)
			}
		}
		if _, err := h.stamps.Scan(ctx, ScanInput{Type: ScanTypePremium, Stamps: 10, QRCodeID: "reset-" + p.ID}); err != nil {
			t.Fatalf("%s: Scan: %v", tc.name, err)
		}
		ex, err := h.rewardSvc.Exchange(ctx, "", rw.ID.String())
		if err != nil {
			t.Fatalf("%s: Exchange: %v", tc.name, err)
		}
		if _, err := h.stamps.DeleteTodayScans(ctx, ""); err != nil {
			t.Fatalf("%s: DeleteTodayScans: %v", tc.name, err)
		}
		if got := h.reload(t, p.ID).StampCount; got != 0 {
			t.Fatalf("%s: after reset stamp_count=%d", tc.name, got)
		}

		before := len(h.emitter.channels(realtime.SSEEventStampCountChanged))
		if _, err := h.rewardSvc.UpdateExchangeStatus(ctx, ex.Exchange.ID.String(), UpdateExchangeInput{StaffPin: testStaffPin, Status: types.ExchangeStatusCancelled}); err != nil {
			t.Fatalf("%s: cancel: %v", tc.name, err)
		}
		got := h.reload(t, p.ID)
		if got.StampCount != tc.wantCount {
			t.Fatalf("%s: stamp_count=%d want %d", tc.name, got.StampCount, tc.wantCount)
		}
		drift, err := h.stamps.Recompute(bg, p.ID, false)
		if err != nil {
			t.Fatalf("%s: Recompute: %v", tc.name, err)
		}
		if drift.Drifted() {
			t.Fatalf("%s: counters drifted from ledger: %+v", tc.name, drift)
		}

		sent := h.emitter.messages(realtime.SSEEventStampCountChanged)[before:]
		if !tc.wantRefund {
			if len(sent) != 0 {
				t.Fatalf("%s: unexpected stamp events %+v", tc.name, sent)
			}
			continue
		}
		if len(sent) == 0 {
			t.Fatalf("%s: no stamp event for refund", tc.name)
		}
		data, _ := sent[0].Data.(map[string]any)
		if data["method"] != types.StampMethodRefund || data["delta"] != tc.wantCount {
			t.Fatalf("%s: refund event %+v", tc.name, data)
		}
	}
}
