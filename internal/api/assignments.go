package api

import (
	"encoding/json"
	"net/http"

	"github.com/emiryucelweb/asistanapp-sub008/internal/assignment"
	"github.com/emiryucelweb/asistanapp-sub008/internal/auth"
	"github.com/emiryucelweb/asistanapp-sub008/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AssignmentsHandler provides REST endpoints for conversation routing
type AssignmentsHandler struct {
	engine *assignment.Engine
	logger zerolog.Logger
}

// NewAssignmentsHandler creates a new AssignmentsHandler
func NewAssignmentsHandler(engine *assignment.Engine, logger zerolog.Logger) *AssignmentsHandler {
	return &AssignmentsHandler{
		engine: engine,
		logger: logger.With().Str("component", "assignments_api").Logger(),
	}
}

// AutoAssign handles POST /api/conversations/{conversationId}/auto-assign
func (h *AssignmentsHandler) AutoAssign(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")
	if conversationID == "" {
		http.Error(w, "conversationId is required", http.StatusBadRequest)
		return
	}

	result := h.engine.AutoAssign(r.Context(), conversationID)
	metrics.Get().RecordAssignment(result)
	writeJSON(w, result)
}

// ManualAssign handles POST /api/conversations/{conversationId}/assign {agentId}
func (h *AssignmentsHandler) ManualAssign(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	var req struct {
		AgentID string `json:"agentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" {
		http.Error(w, "agentId is required", http.StatusBadRequest)
		return
	}

	result := h.engine.ManualAssign(r.Context(), conversationID, req.AgentID, requester(r))
	metrics.Get().RecordAssignment(result)
	writeJSON(w, result)
}

// TakeAsOwner handles POST /api/conversations/{conversationId}/take
func (h *AssignmentsHandler) TakeAsOwner(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	ownerID := requester(r)
	if ownerID == "" {
		http.Error(w, "authenticated user required", http.StatusUnauthorized)
		return
	}

	result := h.engine.TakeAsOwner(r.Context(), conversationID, ownerID)
	metrics.Get().RecordAssignment(result)
	writeJSON(w, result)
}

// Reassign handles POST /api/conversations/{conversationId}/reassign {agentId, reason?}
func (h *AssignmentsHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	var req struct {
		AgentID string `json:"agentId"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" {
		http.Error(w, "agentId is required", http.StatusBadRequest)
		return
	}

	result := h.engine.Reassign(r.Context(), conversationID, req.AgentID, requester(r), req.Reason)
	metrics.Get().RecordAssignment(result)
	writeJSON(w, result)
}

// Unassign handles POST /api/conversations/{conversationId}/unassign
func (h *AssignmentsHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")
	result := h.engine.Unassign(r.Context(), conversationID)
	writeJSON(w, result)
}

// BulkAssign handles POST /api/conversations/bulk-assign {conversationIds, agentId}
func (h *AssignmentsHandler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationIDs []string `json:"conversationIds"`
		AgentID         string   `json:"agentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" || len(req.ConversationIDs) == 0 {
		http.Error(w, "conversationIds and agentId are required", http.StatusBadRequest)
		return
	}

	result := h.engine.BulkAssign(r.Context(), req.ConversationIDs, req.AgentID, requester(r))
	m := metrics.Get()
	for _, item := range result.Results {
		m.RecordAssignment(item)
	}
	writeJSON(w, result)
}

// AvailableAgents handles GET /api/agents/available
func (h *AssignmentsHandler) AvailableAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetAvailableAgents(r.Context()))
}

// QueuedConversations handles GET /api/conversations/queued
func (h *AssignmentsHandler) QueuedConversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetQueuedConversations(r.Context()))
}

// AgentStats handles GET /api/agents/{agentId}/stats
func (h *AssignmentsHandler) AgentStats(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")
	if agentID == "" {
		http.Error(w, "agentId is required", http.StatusBadRequest)
		return
	}

	stats := h.engine.GetAgentStats(r.Context(), agentID)
	if stats == nil {
		http.Error(w, "agent stats unavailable", http.StatusNotFound)
		return
	}
	writeJSON(w, stats)
}

// requester returns the acting user's identity from the auth context
func requester(r *http.Request) string {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		return ""
	}
	if claims.Email != "" {
		return claims.Email
	}
	return claims.Name
}
