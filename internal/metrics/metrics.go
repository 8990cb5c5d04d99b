package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Session metrics
	SessionsStartedTotal int64
	SessionsEndedTotal   int64
	TransfersTotal       int64

	// Assignment metrics
	AssignmentsAutoTotal   int64
	AssignmentsManualTotal int64
	AssignmentsQueuedTotal int64
	AssignmentsFailedTotal int64

	// Escalation metrics
	EscalationsTriggeredTotal int64
	EscalationsAcceptedTotal  int64
	EscalationsRejectedTotal  int64

	// Relay metrics
	RelayErrorsTotal int64

	// Broadcast metrics
	BroadcastCyclesTotal  int64
	BroadcastErrorsTotal  int64
	lastBroadcastDuration time.Duration

	// Live session quality distribution
	sessionsByTier map[types.QualityTier]int
	liveSessions   int

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			sessionsByTier: make(map[types.QualityTier]int),
			startTime:      time.Now(),
		}
	})
	return instance
}

// RecordSessionStarted increments the session start counter
func (m *Metrics) RecordSessionStarted() {
	m.mu.Lock()
	m.SessionsStartedTotal++
	m.mu.Unlock()
}

// RecordSessionEnded increments the session end counter
func (m *Metrics) RecordSessionEnded() {
	m.mu.Lock()
	m.SessionsEndedTotal++
	m.mu.Unlock()
}

// RecordTransfer increments the transfer counter
func (m *Metrics) RecordTransfer() {
	m.mu.Lock()
	m.TransfersTotal++
	m.mu.Unlock()
}

// RecordAssignment records one assignment outcome
func (m *Metrics) RecordAssignment(result types.AssignmentResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case !result.Success:
		m.AssignmentsFailedTotal++
	case result.QueuePosition != nil:
		m.AssignmentsQueuedTotal++
	case result.Type == types.AssignmentAuto:
		m.AssignmentsAutoTotal++
	default:
		m.AssignmentsManualTotal++
	}
}

// RecordEscalationTriggered increments the escalation trigger counter
func (m *Metrics) RecordEscalationTriggered() {
	m.mu.Lock()
	m.EscalationsTriggeredTotal++
	m.mu.Unlock()
}

// RecordEscalationAccepted increments the escalation accept counter
func (m *Metrics) RecordEscalationAccepted() {
	m.mu.Lock()
	m.EscalationsAcceptedTotal++
	m.mu.Unlock()
}

// RecordEscalationRejected increments the escalation reject counter
func (m *Metrics) RecordEscalationRejected() {
	m.mu.Lock()
	m.EscalationsRejectedTotal++
	m.mu.Unlock()
}

// RecordRelayError increments the relay error counter
func (m *Metrics) RecordRelayError() {
	m.mu.Lock()
	m.RelayErrorsTotal++
	m.mu.Unlock()
}

// RecordBroadcastCycle records one snapshot broadcast cycle
func (m *Metrics) RecordBroadcastCycle(duration time.Duration) {
	m.mu.Lock()
	m.BroadcastCyclesTotal++
	m.lastBroadcastDuration = duration
	m.mu.Unlock()
}

// RecordBroadcastError increments the broadcast error counter
func (m *Metrics) RecordBroadcastError() {
	m.mu.Lock()
	m.BroadcastErrorsTotal++
	m.mu.Unlock()
}

// UpdateSessionStats updates the live session quality distribution
func (m *Metrics) UpdateSessionStats(sessions []types.CallSession) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionsByTier = make(map[types.QualityTier]int)
	m.liveSessions = len(sessions)
	for _, session := range sessions {
		m.sessionsByTier[session.Quality.Tier]++
	}
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("asistanapp_uptime_seconds", time.Since(m.startTime).Seconds())

		// Session metrics
		write("asistanapp_sessions_started_total", m.SessionsStartedTotal)
		write("asistanapp_sessions_ended_total", m.SessionsEndedTotal)
		write("asistanapp_transfers_total", m.TransfersTotal)
		write("asistanapp_sessions_live", m.liveSessions)

		for tier, count := range m.sessionsByTier {
			write("asistanapp_sessions_by_quality", count, "tier", string(tier))
		}

		// Assignment metrics
		write("asistanapp_assignments_auto_total", m.AssignmentsAutoTotal)
		write("asistanapp_assignments_manual_total", m.AssignmentsManualTotal)
		write("asistanapp_assignments_queued_total", m.AssignmentsQueuedTotal)
		write("asistanapp_assignments_failed_total", m.AssignmentsFailedTotal)

		// Escalation metrics
		write("asistanapp_escalations_triggered_total", m.EscalationsTriggeredTotal)
		write("asistanapp_escalations_accepted_total", m.EscalationsAcceptedTotal)
		write("asistanapp_escalations_rejected_total", m.EscalationsRejectedTotal)

		// Relay metrics
		write("asistanapp_relay_errors_total", m.RelayErrorsTotal)

		// Broadcast metrics
		write("asistanapp_broadcast_cycles_total", m.BroadcastCyclesTotal)
		write("asistanapp_broadcast_errors_total", m.BroadcastErrorsTotal)
		write("asistanapp_broadcast_duration_seconds", m.lastBroadcastDuration.Seconds())
	}
}
