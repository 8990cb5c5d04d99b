package api

import (
	"encoding/json"
	"net/http"

	"github.com/emiryucelweb/asistanapp-sub008/internal/metrics"
	"github.com/emiryucelweb/asistanapp-sub008/internal/relay"
	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// RulesHandler proxies assignment-rule CRUD to the relay. Rules are a
// data contract only; evaluation happens on the relay side.
type RulesHandler struct {
	relay  *relay.Client
	logger zerolog.Logger
}

// NewRulesHandler creates a new RulesHandler
func NewRulesHandler(relayClient *relay.Client, logger zerolog.Logger) *RulesHandler {
	return &RulesHandler{
		relay:  relayClient,
		logger: logger.With().Str("component", "rules_api").Logger(),
	}
}

// List handles GET /api/assignments/rules
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.relay.ListRules(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("rule list failed")
		metrics.Get().RecordRelayError()
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, rules)
}

// Create handles POST /api/assignments/rules
func (h *RulesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var rule types.AssignmentRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "invalid rule body", http.StatusBadRequest)
		return
	}

	created, err := h.relay.CreateRule(r.Context(), rule)
	if err != nil {
		h.logger.Error().Err(err).Msg("rule create failed")
		metrics.Get().RecordRelayError()
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, created)
}

// Update handles PATCH /api/assignments/rules/{ruleId}
func (h *RulesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")
	if ruleID == "" {
		http.Error(w, "ruleId is required", http.StatusBadRequest)
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid patch body", http.StatusBadRequest)
		return
	}

	updated, err := h.relay.UpdateRule(r.Context(), ruleID, patch)
	if err != nil {
		h.logger.Error().Err(err).Str("rule_id", ruleID).Msg("rule update failed")
		metrics.Get().RecordRelayError()
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, updated)
}

// Delete handles DELETE /api/assignments/rules/{ruleId}
func (h *RulesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")
	if ruleID == "" {
		http.Error(w, "ruleId is required", http.StatusBadRequest)
		return
	}

	if err := h.relay.DeleteRule(r.Context(), ruleID); err != nil {
		h.logger.Error().Err(err).Str("rule_id", ruleID).Msg("rule delete failed")
		metrics.Get().RecordRelayError()
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{"message": "rule deleted", "ruleId": ruleID})
}
