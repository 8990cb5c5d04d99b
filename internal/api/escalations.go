package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/escalation"
	"github.com/emiryucelweb/asistanapp-sub008/internal/metrics"
	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EscalationsHandler provides REST endpoints for the urgent-call queue
type EscalationsHandler struct {
	queue  *escalation.Queue
	logger zerolog.Logger
}

// NewEscalationsHandler creates a new EscalationsHandler
func NewEscalationsHandler(queue *escalation.Queue, logger zerolog.Logger) *EscalationsHandler {
	return &EscalationsHandler{
		queue:  queue,
		logger: logger.With().Str("component", "escalations_api").Logger(),
	}
}

// State handles GET /api/escalations
func (h *EscalationsHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.queue.State())
}

// Trigger handles POST /api/escalations {customerId, conversationId, priority, messages?}
func (h *EscalationsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID     string                   `json:"customerId"`
		ConversationID string                   `json:"conversationId"`
		Priority       string                   `json:"priority"`
		Messages       []types.EmergencyMessage `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerID == "" {
		http.Error(w, "customerId is required", http.StatusBadRequest)
		return
	}
	if req.Priority == "" {
		req.Priority = "high"
	}

	call := types.EmergencyCall{
		ID:             uuid.New().String(),
		CustomerID:     req.CustomerID,
		ConversationID: req.ConversationID,
		Priority:       req.Priority,
		Timestamp:      time.Now(),
		Messages:       req.Messages,
	}

	h.queue.Trigger(call)
	metrics.Get().RecordEscalationTriggered()
	writeJSON(w, call)
}

// Accept handles POST /api/escalations/accept {agentName}
func (h *EscalationsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentName string `json:"agentName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentName == "" {
		http.Error(w, "agentName is required", http.StatusBadRequest)
		return
	}

	h.queue.Accept(req.AgentName)
	metrics.Get().RecordEscalationAccepted()
	writeJSON(w, h.queue.State())
}

// Reject handles POST /api/escalations/reject {reason?}
func (h *EscalationsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	h.queue.Reject(req.Reason)
	metrics.Get().RecordEscalationRejected()
	writeJSON(w, h.queue.State())
}

// Dismiss handles POST /api/escalations/dismiss
func (h *EscalationsHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.queue.Dismiss()
	writeJSON(w, h.queue.State())
}

// ToggleMute handles POST /api/escalations/mute
func (h *EscalationsHandler) ToggleMute(w http.ResponseWriter, r *http.Request) {
	muted := h.queue.ToggleMute()
	writeJSON(w, map[string]bool{"muted": muted})
}

// ClearQueue handles POST /api/escalations/clear
func (h *EscalationsHandler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	cleared := h.queue.ClearQueue()
	h.logger.Info().Int("cleared", cleared).Msg("escalation backlog cleared via API")
	writeJSON(w, map[string]int{"cleared": cleared})
}
