package alerts

import (
	"fmt"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
)

// Severity ranks an alert
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one triggered alert rule
type Alert struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	CallID   string   `json:"callId,omitempty"`
}

const (
	// backlogWarnDepth is the queued-emergency count that trips the
	// backlog alert.
	backlogWarnDepth = 3
	// ringWarnAfter is how long an unanswered emergency may ring.
	ringWarnAfter = 15 * time.Second
)

// CheckSessionAlerts evaluates alert rules against live call sessions
func CheckSessionAlerts(sessions []types.CallSession) []Alert {
	var alerts []Alert
	for _, session := range sessions {
		switch session.Quality.Tier {
		case types.QualityPoor:
			alerts = append(alerts, Alert{
				Rule:     "quality_poor",
				Severity: SeverityCritical,
				Message: fmt.Sprintf("call quality poor (rtt %.0fms, loss %.1f%%)",
					session.Quality.LatencyMs, session.Quality.PacketLossPct),
				CallID: session.ID,
			})
		case types.QualityFair:
			alerts = append(alerts, Alert{
				Rule:     "quality_fair",
				Severity: SeverityWarning,
				Message: fmt.Sprintf("call quality degraded (rtt %.0fms, loss %.1f%%)",
					session.Quality.LatencyMs, session.Quality.PacketLossPct),
				CallID: session.ID,
			})
		}
	}
	return alerts
}

// CheckEscalationAlerts evaluates alert rules against the escalation
// queue state
func CheckEscalationAlerts(state types.EscalationState) []Alert {
	var alerts []Alert

	if len(state.Queue) >= backlogWarnDepth {
		alerts = append(alerts, Alert{
			Rule:     "escalation_backlog",
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("%d emergency calls waiting", len(state.Queue)),
		})
	}

	if state.IsRinging && state.Active != nil {
		if time.Since(state.Active.Timestamp) > ringWarnAfter {
			alerts = append(alerts, Alert{
				Rule:     "escalation_unanswered",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("emergency call from %s unanswered", state.Active.CustomerID),
				CallID:   state.Active.ID,
			})
		}
	}

	return alerts
}
