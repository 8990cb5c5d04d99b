package escalation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/rs/zerolog"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *fakeNotifier) NotifyEmergency(ctx context.Context, call types.EmergencyCall) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, call.ID)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type fakeNavigator struct {
	mu      sync.Mutex
	targets []string
}

func (n *fakeNavigator) NavigateToCall(conversationID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, conversationID)
}

func emergency(id string) types.EmergencyCall {
	return types.EmergencyCall{
		ID:             id,
		CustomerID:     "cust-" + id,
		ConversationID: "conv-" + id,
		Priority:       "high",
		Timestamp:      time.Now(),
	}
}

func fastDelays() Delays {
	return Delays{AcceptSettle: 20 * time.Millisecond, RejectDelay: 20 * time.Millisecond}
}

// waitFor polls until the condition holds or the deadline passes
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestTriggerPreservesFIFOOrder(t *testing.T) {
	notifier := &fakeNotifier{}
	q := NewQueue(fastDelays(), notifier, nil, zerolog.Nop())

	q.Trigger(emergency("e1"))
	q.Trigger(emergency("e2"))
	q.Trigger(emergency("e3"))

	state := q.State()
	if state.Active == nil || state.Active.ID != "e1" {
		t.Fatalf("expected e1 active, got %+v", state.Active)
	}
	if !state.IsRinging {
		t.Error("expected active call ringing")
	}
	if len(state.Queue) != 2 || state.Queue[0].ID != "e2" || state.Queue[1].ID != "e3" {
		t.Errorf("expected FIFO backlog [e2 e3], got %+v", state.Queue)
	}
	// Only the ringing call alerts, not the backlog.
	if notifier.count() != 1 {
		t.Errorf("expected 1 notification, got %d", notifier.count())
	}
}

func TestAcceptWithNoActiveCallIsNoop(t *testing.T) {
	q := NewQueue(fastDelays(), nil, nil, zerolog.Nop())

	q.Accept("alice")

	state := q.State()
	if state.CurrentAgentName != "" {
		t.Errorf("expected no current agent, got %q", state.CurrentAgentName)
	}
	if state.Active != nil || state.IsRinging {
		t.Error("expected state unchanged")
	}
}

func TestAcceptStampsAndNavigates(t *testing.T) {
	navigator := &fakeNavigator{}
	q := NewQueue(fastDelays(), nil, navigator, zerolog.Nop())

	q.Trigger(emergency("e1"))
	q.Accept("alice")

	state := q.State()
	if state.Active == nil || state.Active.TakenBy == nil {
		t.Fatal("expected active call stamped")
	}
	if state.Active.TakenBy.AgentName != "alice" {
		t.Errorf("unexpected taker %q", state.Active.TakenBy.AgentName)
	}
	if state.IsRinging {
		t.Error("expected ringing cleared")
	}
	if state.CurrentAgentName != "alice" {
		t.Errorf("unexpected current agent %q", state.CurrentAgentName)
	}

	navigator.mu.Lock()
	defer navigator.mu.Unlock()
	if len(navigator.targets) != 1 || navigator.targets[0] != "conv-e1" {
		t.Errorf("expected navigation to conv-e1, got %v", navigator.targets)
	}
}

func TestAcceptPromotesBacklogAfterSettle(t *testing.T) {
	q := NewQueue(fastDelays(), nil, nil, zerolog.Nop())

	q.Trigger(emergency("e1"))
	q.Trigger(emergency("e2"))
	q.Accept("alice")

	waitFor(t, func() bool {
		state := q.State()
		return state.Active != nil && state.Active.ID == "e2" && state.IsRinging
	}, "expected e2 promoted and ringing after settle delay")

	if len(q.State().Queue) != 0 {
		t.Error("expected backlog drained")
	}
}

func TestRejectPromotesBacklogAfterDelay(t *testing.T) {
	q := NewQueue(fastDelays(), nil, nil, zerolog.Nop())

	q.Trigger(emergency("e1"))
	q.Trigger(emergency("e2"))
	q.Reject("busy")

	state := q.State()
	if state.Active != nil {
		t.Error("expected active slot cleared immediately")
	}

	waitFor(t, func() bool {
		state := q.State()
		return state.Active != nil && state.Active.ID == "e2"
	}, "expected e2 promoted after reject delay")
}

func TestDismissDoesNotPromote(t *testing.T) {
	q := NewQueue(fastDelays(), nil, nil, zerolog.Nop())

	q.Trigger(emergency("e1"))
	q.Trigger(emergency("e2"))
	q.Dismiss()

	time.Sleep(100 * time.Millisecond)

	state := q.State()
	if state.Active != nil {
		t.Errorf("expected no promotion after dismiss, got %+v", state.Active)
	}
	if len(state.Queue) != 1 || state.Queue[0].ID != "e2" {
		t.Errorf("expected backlog untouched, got %+v", state.Queue)
	}
}

func TestDismissCancelsPendingPromotion(t *testing.T) {
	q := NewQueue(Delays{AcceptSettle: 50 * time.Millisecond, RejectDelay: 50 * time.Millisecond}, nil, nil, zerolog.Nop())

	q.Trigger(emergency("e1"))
	q.Trigger(emergency("e2"))
	q.Accept("alice")
	q.Dismiss()

	time.Sleep(150 * time.Millisecond)

	state := q.State()
	if state.Active != nil {
		t.Errorf("expected promotion cancelled by dismiss, got %+v", state.Active)
	}
	if len(state.Queue) != 1 {
		t.Errorf("expected e2 still queued, got %+v", state.Queue)
	}
}

func TestRingTimeoutAutoRejects(t *testing.T) {
	delays := Delays{
		AcceptSettle: 10 * time.Millisecond,
		RejectDelay:  10 * time.Millisecond,
		RingTimeout:  30 * time.Millisecond,
	}
	q := NewQueue(delays, nil, nil, zerolog.Nop())

	q.Trigger(emergency("e1"))
	q.Trigger(emergency("e2"))

	waitFor(t, func() bool {
		state := q.State()
		return state.Active != nil && state.Active.ID == "e2"
	}, "expected unanswered e1 timed out and e2 promoted")
}

func TestAcceptStopsRingTimeout(t *testing.T) {
	delays := Delays{
		AcceptSettle: 500 * time.Millisecond,
		RejectDelay:  10 * time.Millisecond,
		RingTimeout:  30 * time.Millisecond,
	}
	q := NewQueue(delays, nil, nil, zerolog.Nop())

	q.Trigger(emergency("e1"))
	q.Accept("alice")

	time.Sleep(80 * time.Millisecond)

	state := q.State()
	if state.Active == nil || state.Active.ID != "e1" {
		t.Error("expected accepted call to survive the ring timeout")
	}
}

func TestToggleMuteIndependentOfCalls(t *testing.T) {
	q := NewQueue(fastDelays(), nil, nil, zerolog.Nop())

	if !q.ToggleMute() {
		t.Error("expected muted after first toggle")
	}
	if q.ToggleMute() {
		t.Error("expected unmuted after second toggle")
	}
}

func TestClearQueueKeepsActive(t *testing.T) {
	q := NewQueue(fastDelays(), nil, nil, zerolog.Nop())

	q.Trigger(emergency("e1"))
	q.Trigger(emergency("e2"))
	q.Trigger(emergency("e3"))

	if cleared := q.ClearQueue(); cleared != 2 {
		t.Errorf("expected 2 cleared, got %d", cleared)
	}

	state := q.State()
	if state.Active == nil || state.Active.ID != "e1" {
		t.Error("expected active call untouched")
	}
	if len(state.Queue) != 0 {
		t.Error("expected empty backlog")
	}
}
