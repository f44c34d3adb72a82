package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubRoutesByChannel(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))

	parent := hub.NewSSEClient("U-parent")
	child := hub.NewSSEClient("U-child")
	hub.AddChannel(parent, UserChannel(parent.UserID))
	hub.AddChannel(parent, FamilyChannel("fam-1"))
	hub.AddChannel(child, UserChannel(child.UserID))
	hub.AddChannel(child, FamilyChannel("fam-1"))

	hub.Broadcast(SSEMessage{Channel: UserChannel("U-child"), Event: SSEEventStampCountChanged, Data: map[string]any{"stampCount": 3}})
	hub.Broadcast(SSEMessage{Channel: FamilyChannel("fam-1"), Event: SSEEventFamilyUpdated})

	got := recvMessage(t, child.Outbound, time.Second)
	if got.Event != SSEEventStampCountChanged {
		t.Fatalf("child first event: want=%s got=%s", SSEEventStampCountChanged, got.Event)
	}
	if got := recvMessage(t, child.Outbound, time.Second); got.Event != SSEEventFamilyUpdated {
		t.Fatalf("child second event: want=%s got=%s", SSEEventFamilyUpdated, got.Event)
	}
	if got := recvMessage(t, parent.Outbound, time.Second); got.Event != SSEEventFamilyUpdated {
		t.Fatalf("parent event: want=%s got=%s", SSEEventFamilyUpdated, got.Event)
	}
	select {
	case msg := <-parent.Outbound:
		t.Fatalf("parent received unexpected message %+v", msg)
	default:
	}
}

func TestSSEHubCloseClientUnsubscribes(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	ch := UserChannel("U-1")

	a := hub.NewSSEClient("U-1")
	hub.AddChannel(a, ch)
	if n := hub.Subscribers(ch); n != 1 {
		t.Fatalf("subscribers: want 1 got %d", n)
	}

	hub.CloseClient(a)
	hub.CloseClient(a)
	if n := hub.Subscribers(ch); n != 0 {
		t.Fatalf("subscribers after close: want 0 got %d", n)
	}
	if _, ok := <-a.Outbound; ok {
		t.Fatalf("outbound should be closed")
	}

	// reconnect gets new messages
	b := hub.NewSSEClient("U-1")
	hub.AddChannel(b, ch)
	hub.Broadcast(SSEMessage{Channel: ch, Event: SSEEventRewardExchanged})
	if got := recvMessage(t, b.Outbound, time.Second); got.Event != SSEEventRewardExchanged {
		t.Fatalf("reconnect event: got=%s", got.Event)
	}
}

func TestSSEHubBroadcastDropsWhenFull(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	c := hub.NewSSEClient("U-slow")
	hub.AddChannel(c, "user:U-slow")

	for i := 0; i < outboundBuffer+5; i++ {
		hub.Broadcast(SSEMessage{Channel: "user:U-slow", Event: SSEEventStampCountChanged})
	}
	if len(c.Outbound) != outboundBuffer {
		t.Fatalf("buffer: want %d got %d", outboundBuffer, len(c.Outbound))
	}
}

func TestSSEHubServeHTTPWritesEvents(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	c := hub.NewSSEClient("U-http")
	hub.AddChannel(c, UserChannel("U-http"))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req, c)
		close(done)
	}()

	hub.Broadcast(SSEMessage{Channel: UserChannel("U-http"), Event: SSEEventStampCountChanged, Data: map[string]any{"stampCount": 7}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("content-type: %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(body, "event: StampCountChanged") || !strings.Contains(body, `"stampCount":7`) {
		t.Fatalf("body missing event: %q", body)
	}
}

func TestChannelNames(t *testing.T) {
	if UserChannel(" ") != "" || FamilyChannel("") != "" {
		t.Fatalf("blank ids should produce blank channels")
	}
	if UserChannel("U1") != "user:U1" || FamilyChannel("f") != "family:f" {
		t.Fatalf("unexpected channel names")
	}
}
