package aggregator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/alerts"
	"github.com/emiryucelweb/asistanapp-sub008/internal/directory"
	"github.com/emiryucelweb/asistanapp-sub008/internal/metrics"
	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/emiryucelweb/asistanapp-sub008/internal/websocket"
	"github.com/rs/zerolog"
)

// SessionSource provides live call session snapshots
type SessionSource interface {
	Sessions() []types.CallSession
}

// EscalationSource provides the escalation queue state
type EscalationSource interface {
	State() types.EscalationState
}

// QualityNotifier receives degraded-call alerts
type QualityNotifier interface {
	NotifyQualityDegraded(ctx context.Context, session types.CallSession) error
}

// Snapshot is the per-second operator dashboard payload
type Snapshot struct {
	Type       string                `json:"type"`
	Timestamp  time.Time             `json:"timestamp"`
	Sessions   []types.CallSession   `json:"sessions"`
	Escalation types.EscalationState `json:"escalation"`
	Agents     []types.Agent         `json:"agents"`
	Alerts     []alerts.Alert        `json:"alerts"`
	Summary    Summary               `json:"summary"`
}

// Summary holds the snapshot's headline numbers
type Summary struct {
	LiveSessions      int `json:"liveSessions"`
	EligibleAgents    int `json:"eligibleAgents"`
	QueuedEmergencies int `json:"queuedEmergencies"`
}

// Aggregator assembles session, escalation, and roster state into one
// snapshot per second and broadcasts it to connected operator clients
type Aggregator struct {
	sessions   SessionSource
	escalation EscalationSource
	roster     *directory.Tracker
	hub        *websocket.Hub
	notifier   QualityNotifier
	logger     zerolog.Logger

	// calls already reported as degraded, to alert once per call
	reported map[string]bool
}

// NewAggregator creates a new aggregator
func NewAggregator(sessions SessionSource, escalation EscalationSource, roster *directory.Tracker, hub *websocket.Hub, notifier QualityNotifier, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		sessions:   sessions,
		escalation: escalation,
		roster:     roster,
		hub:        hub,
		notifier:   notifier,
		logger:     logger,
		reported:   make(map[string]bool),
	}
}

// Start begins broadcasting snapshots until ctx is cancelled
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	m := metrics.Get()
	a.logger.Info().Msg("aggregator started")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("aggregator stopped")
			return

		case <-ticker.C:
			cycleStart := time.Now()

			snapshot := a.buildSnapshot()
			m.UpdateSessionStats(snapshot.Sessions)

			data, err := json.Marshal(snapshot)
			if err != nil {
				a.logger.Error().Err(err).Msg("failed to marshal snapshot")
				m.RecordBroadcastError()
				continue
			}

			a.hub.Broadcast(data)
			a.reportDegraded(ctx, snapshot.Sessions)
			m.RecordBroadcastCycle(time.Since(cycleStart))

			a.logger.Debug().
				Int("sessions", len(snapshot.Sessions)).
				Int("agents", len(snapshot.Agents)).
				Int("alerts", len(snapshot.Alerts)).
				Int("clients", a.hub.ClientCount()).
				Msg("snapshot broadcasted")
		}
	}
}

// buildSnapshot assembles the current state into one payload
func (a *Aggregator) buildSnapshot() Snapshot {
	sessions := a.sessions.Sessions()
	escalation := a.escalation.State()
	agents := a.roster.GetAll()

	triggered := alerts.CheckSessionAlerts(sessions)
	triggered = append(triggered, alerts.CheckEscalationAlerts(escalation)...)

	return Snapshot{
		Type:       "operator_snapshot",
		Timestamp:  time.Now(),
		Sessions:   sessions,
		Escalation: escalation,
		Agents:     agents,
		Alerts:     triggered,
		Summary: Summary{
			LiveSessions:      len(sessions),
			EligibleAgents:    len(a.roster.GetEligible()),
			QueuedEmergencies: len(escalation.Queue),
		},
	}
}

// reportDegraded pushes a one-shot broker alert for each call that
// drops to the poor tier
func (a *Aggregator) reportDegraded(ctx context.Context, sessions []types.CallSession) {
	if a.notifier == nil {
		return
	}

	live := make(map[string]bool, len(sessions))
	for _, session := range sessions {
		live[session.ID] = true
		if session.Quality.Tier != types.QualityPoor || a.reported[session.ID] {
			continue
		}
		a.reported[session.ID] = true
		if err := a.notifier.NotifyQualityDegraded(ctx, session); err != nil {
			a.logger.Warn().Err(err).Str("call_id", session.ID).Msg("degraded-call alert failed")
		}
	}

	// Forget ended calls so a future call reusing state starts clean.
	for id := range a.reported {
		if !live[id] {
			delete(a.reported, id)
		}
	}
}
