package directory

import (
	"context"
	"sync"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/rs/zerolog"
)

const (
	// StaleThreshold is the age after which a cached roster is considered stale
	StaleThreshold = 15 * time.Second
)

// Source fetches the current agent roster from the relay
type Source interface {
	AvailableAgents(ctx context.Context) ([]types.Agent, error)
}

// Tracker maintains a cached snapshot of the agent roster. Consumers
// that need a roster every second (the aggregator, the alert checker)
// read the cache instead of hammering the relay.
type Tracker struct {
	source Source
	logger zerolog.Logger

	mu          sync.RWMutex
	agents      map[string]types.Agent
	lastRefresh time.Time
}

// NewTracker creates an empty roster tracker
func NewTracker(source Source, logger zerolog.Logger) *Tracker {
	return &Tracker{
		source: source,
		logger: logger.With().Str("component", "directory").Logger(),
		agents: make(map[string]types.Agent),
	}
}

// Refresh replaces the cached roster with the relay's current one. On
// relay failure the previous snapshot is kept.
func (t *Tracker) Refresh(ctx context.Context) error {
	agents, err := t.source.AvailableAgents(ctx)
	if err != nil {
		t.logger.Warn().Err(err).Msg("roster refresh failed, keeping cached snapshot")
		return err
	}

	next := make(map[string]types.Agent, len(agents))
	for _, agent := range agents {
		next[agent.ID] = agent
	}

	t.mu.Lock()
	t.agents = next
	t.lastRefresh = time.Now()
	t.mu.Unlock()
	return nil
}

// Run refreshes the roster on the given interval until ctx is cancelled
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Refresh(ctx)
		}
	}
}

// Get returns the cached snapshot of one agent
func (t *Tracker) Get(agentID string) (types.Agent, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	agent, ok := t.agents[agentID]
	return agent, ok
}

// GetAll returns the cached roster
func (t *Tracker) GetAll() []types.Agent {
	t.mu.RLock()
	defer t.mu.RUnlock()

	agents := make([]types.Agent, 0, len(t.agents))
	for _, agent := range t.agents {
		agents = append(agents, agent)
	}
	return agents
}

// GetEligible returns cached agents that can take another conversation
func (t *Tracker) GetEligible() []types.Agent {
	t.mu.RLock()
	defer t.mu.RUnlock()

	agents := make([]types.Agent, 0, len(t.agents))
	for _, agent := range t.agents {
		if agent.Eligible() {
			agents = append(agents, agent)
		}
	}
	return agents
}

// Count returns the number of cached agents
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.agents)
}

// Stale reports whether the cache has not been refreshed within the
// stale threshold
func (t *Tracker) Stale() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return time.Since(t.lastRefresh) > StaleThreshold
}
