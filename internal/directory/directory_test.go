package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/rs/zerolog"
)

type fakeSource struct {
	agents []types.Agent
	err    error
}

func (f *fakeSource) AvailableAgents(ctx context.Context) ([]types.Agent, error) {
	return f.agents, f.err
}

func TestRefreshReplacesRoster(t *testing.T) {
	source := &fakeSource{agents: []types.Agent{
		{ID: "a1", Status: types.AgentOnline, ActiveConversations: 2, MaxConversations: 5},
		{ID: "a2", Status: types.AgentBusy, ActiveConversations: 5, MaxConversations: 5},
	}}
	tracker := NewTracker(source, zerolog.Nop())

	if err := tracker.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tracker.Count() != 2 {
		t.Fatalf("expected 2 agents, got %d", tracker.Count())
	}

	source.agents = source.agents[:1]
	if err := tracker.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tracker.Count() != 1 {
		t.Errorf("expected roster replaced, got %d agents", tracker.Count())
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	source := &fakeSource{agents: []types.Agent{{ID: "a1", Status: types.AgentOnline, MaxConversations: 3}}}
	tracker := NewTracker(source, zerolog.Nop())
	tracker.Refresh(context.Background())

	source.err = errors.New("relay down")
	if err := tracker.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if tracker.Count() != 1 {
		t.Errorf("expected cached snapshot kept, got %d agents", tracker.Count())
	}
}

func TestGetEligible(t *testing.T) {
	source := &fakeSource{agents: []types.Agent{
		{ID: "a1", Status: types.AgentOnline, ActiveConversations: 1, MaxConversations: 3},
		{ID: "a2", Status: types.AgentOnline, ActiveConversations: 3, MaxConversations: 3},
		{ID: "a3", Status: types.AgentOffline, ActiveConversations: 0, MaxConversations: 3},
	}}
	tracker := NewTracker(source, zerolog.Nop())
	tracker.Refresh(context.Background())

	eligible := tracker.GetEligible()
	if len(eligible) != 1 || eligible[0].ID != "a1" {
		t.Errorf("expected only a1 eligible, got %+v", eligible)
	}
}

func TestStaleBeforeFirstRefresh(t *testing.T) {
	tracker := NewTracker(&fakeSource{}, zerolog.Nop())
	if !tracker.Stale() {
		t.Error("expected tracker stale before first refresh")
	}
	tracker.Refresh(context.Background())
	if tracker.Stale() {
		t.Error("expected tracker fresh after refresh")
	}
}
