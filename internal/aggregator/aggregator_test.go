package aggregator

import (
	"context"
	"testing"

	"github.com/emiryucelweb/asistanapp-sub008/internal/directory"
	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/emiryucelweb/asistanapp-sub008/internal/websocket"
	"github.com/rs/zerolog"
)

type fakeSessions struct {
	sessions []types.CallSession
}

func (f *fakeSessions) Sessions() []types.CallSession { return f.sessions }

type fakeEscalation struct {
	state types.EscalationState
}

func (f *fakeEscalation) State() types.EscalationState { return f.state }

type fakeRoster struct {
	agents []types.Agent
}

func (f *fakeRoster) AvailableAgents(ctx context.Context) ([]types.Agent, error) {
	return f.agents, nil
}

type fakeNotifier struct {
	degraded []string
}

func (f *fakeNotifier) NotifyQualityDegraded(ctx context.Context, session types.CallSession) error {
	f.degraded = append(f.degraded, session.ID)
	return nil
}

func newTestAggregator(sessions []types.CallSession, state types.EscalationState, agents []types.Agent) (*Aggregator, *fakeNotifier) {
	roster := directory.NewTracker(&fakeRoster{agents: agents}, zerolog.Nop())
	roster.Refresh(context.Background())

	notifier := &fakeNotifier{}
	agg := NewAggregator(
		&fakeSessions{sessions: sessions},
		&fakeEscalation{state: state},
		roster,
		websocket.NewHub(zerolog.Nop()),
		notifier,
		zerolog.Nop(),
	)
	return agg, notifier
}

func TestBuildSnapshot(t *testing.T) {
	sessions := []types.CallSession{
		{ID: "c1", Status: types.CallActive, Quality: types.ConnectionQuality{Tier: types.QualityPoor}},
	}
	state := types.EscalationState{Queue: []types.EmergencyCall{{ID: "e1"}}}
	agents := []types.Agent{
		{ID: "a1", Status: types.AgentOnline, ActiveConversations: 1, MaxConversations: 3},
		{ID: "a2", Status: types.AgentOffline},
	}

	agg, _ := newTestAggregator(sessions, state, agents)
	snapshot := agg.buildSnapshot()

	if snapshot.Type != "operator_snapshot" {
		t.Errorf("unexpected snapshot type %q", snapshot.Type)
	}
	if snapshot.Summary.LiveSessions != 1 {
		t.Errorf("expected 1 live session, got %d", snapshot.Summary.LiveSessions)
	}
	if snapshot.Summary.EligibleAgents != 1 {
		t.Errorf("expected 1 eligible agent, got %d", snapshot.Summary.EligibleAgents)
	}
	if snapshot.Summary.QueuedEmergencies != 1 {
		t.Errorf("expected 1 queued emergency, got %d", snapshot.Summary.QueuedEmergencies)
	}
	if len(snapshot.Alerts) == 0 {
		t.Error("expected poor-quality alert in snapshot")
	}
}

func TestReportDegradedAlertsOncePerCall(t *testing.T) {
	sessions := []types.CallSession{
		{ID: "c1", Quality: types.ConnectionQuality{Tier: types.QualityPoor}},
		{ID: "c2", Quality: types.ConnectionQuality{Tier: types.QualityGood}},
	}

	agg, notifier := newTestAggregator(sessions, types.EscalationState{}, nil)

	agg.reportDegraded(context.Background(), sessions)
	agg.reportDegraded(context.Background(), sessions)

	if len(notifier.degraded) != 1 || notifier.degraded[0] != "c1" {
		t.Errorf("expected single alert for c1, got %v", notifier.degraded)
	}
}

func TestReportDegradedForgetsEndedCalls(t *testing.T) {
	poor := []types.CallSession{{ID: "c1", Quality: types.ConnectionQuality{Tier: types.QualityPoor}}}

	agg, notifier := newTestAggregator(poor, types.EscalationState{}, nil)

	agg.reportDegraded(context.Background(), poor)
	agg.reportDegraded(context.Background(), nil) // call ended
	agg.reportDegraded(context.Background(), poor)

	if len(notifier.degraded) != 2 {
		t.Errorf("expected re-alert after call ended, got %v", notifier.degraded)
	}
}
