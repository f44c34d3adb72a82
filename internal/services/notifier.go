package services

import (
	"context"

	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/observability"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
	"github.com/yungbote/stampcard-backend/internal/realtime"
	"github.com/yungbote/stampcard-backend/internal/realtime/bus"
)

type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.Hub.Broadcast(msg)
}

// BusEmitter publishes through the shared bus; each instance's forwarder delivers locally.
type BusEmitter struct {
	Bus     bus.Bus
	Log     *logger.Logger
	Metrics *observability.Metrics
}

func (e *BusEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if err := e.Bus.Publish(ctx, msg); err != nil {
		e.Metrics.IncRealtimePublishFailed(string(msg.Event))
		if e.Log != nil {
			e.Log.Warn("realtime publish failed", "event", msg.Event, "error", err)
		}
	}
}

// Notifier turns domain changes into realtime messages. A nil Notifier is a no-op.
type Notifier interface {
	StampCountChanged(ctx context.Context, p *types.Profile, delta int, method types.StampMethod)
	FamilyUpdated(ctx context.Context, familyID string, reason string)
	RewardExchanged(ctx context.Context, p *types.Profile, ex *types.RewardExchange)
}

type notifier struct {
	emit SSEEmitter
}

func NewNotifier(emit SSEEmitter) Notifier {
	return &notifier{emit: emit}
}

func (n *notifier) send(ctx context.Context, channels []string, event realtime.SSEEvent, data any) {
	if n == nil || n.emit == nil {
		return
	}
	for _, ch := range channels {
		if ch == "" {
			continue
		}
		n.emit.Emit(ctx, realtime.SSEMessage{Channel: ch, Event: event, Data: data})
	}
}

func profileChannels(p *types.Profile) []string {
	chs := []string{realtime.UserChannel(p.ID)}
	if p.InFamily() {
		chs = append(chs, realtime.FamilyChannel(*p.FamilyID))
	}
	return chs
}

func (n *notifier) StampCountChanged(ctx context.Context, p *types.Profile, delta int, method types.StampMethod) {
	if p == nil {
		return
	}
	n.send(ctx, profileChannels(p), realtime.SSEEventStampCountChanged, map[string]any{
		"userId":     p.ID,
		"stampCount": p.StampCount,
		"visitCount": p.VisitCount,
		"delta":      delta,
		"method":     method,
	})
}

func (n *notifier) FamilyUpdated(ctx context.Context, familyID string, reason string) {
	n.send(ctx, []string{realtime.FamilyChannel(familyID)}, realtime.SSEEventFamilyUpdated, map[string]any{
		"familyId": familyID,
		"reason":   reason,
	})
}

func (n *notifier) RewardExchanged(ctx context.Context, p *types.Profile, ex *types.RewardExchange) {
	if p == nil || ex == nil {
		return
	}
	n.send(ctx, profileChannels(p), realtime.SSEEventRewardExchanged, map[string]any{
		"userId":     p.ID,
		"exchange":   ex,
		"stampCount": p.StampCount,
	})
}
