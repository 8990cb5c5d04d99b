package api

import (
	"encoding/json"
	"net/http"

	"github.com/emiryucelweb/asistanapp-sub008/internal/metrics"
	"github.com/emiryucelweb/asistanapp-sub008/internal/relay"
	"github.com/emiryucelweb/asistanapp-sub008/internal/signaling"
	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CallsHandler provides REST endpoints for the operator's call sessions
type CallsHandler struct {
	manager *signaling.Manager
	relay   *relay.Client
	logger  zerolog.Logger
}

// NewCallsHandler creates a new CallsHandler
func NewCallsHandler(manager *signaling.Manager, relayClient *relay.Client, logger zerolog.Logger) *CallsHandler {
	return &CallsHandler{
		manager: manager,
		relay:   relayClient,
		logger:  logger.With().Str("component", "calls_api").Logger(),
	}
}

// List handles GET /api/calls
func (h *CallsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.manager.Sessions())
}

// Answer handles POST /api/calls/{callId}/answer
func (h *CallsHandler) Answer(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callId")
	if callID == "" {
		http.Error(w, "callId is required", http.StatusBadRequest)
		return
	}

	session, err := h.manager.Answer(r.Context(), callID)
	if err != nil {
		h.logger.Error().Err(err).Str("call_id", callID).Msg("answer failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	metrics.Get().RecordSessionStarted()
	writeJSON(w, session.Snapshot())
}

// Dial handles POST /api/calls {destination, metadata?}
func (h *CallsHandler) Dial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Destination string            `json:"destination"`
		Metadata    map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Destination == "" {
		http.Error(w, "destination is required", http.StatusBadRequest)
		return
	}

	callID, err := h.manager.Dial(r.Context(), req.Destination, req.Metadata)
	if err != nil {
		h.logger.Error().Err(err).Str("destination", req.Destination).Msg("dial failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	metrics.Get().RecordSessionStarted()
	writeJSON(w, map[string]string{"callId": callID})
}

// End handles POST /api/calls/{callId}/end
func (h *CallsHandler) End(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callId")
	if callID == "" {
		http.Error(w, "callId is required", http.StatusBadRequest)
		return
	}

	if err := h.manager.End(r.Context(), callID); err != nil {
		h.logger.Error().Err(err).Str("call_id", callID).Msg("end failed")
		metrics.Get().RecordRelayError()
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	metrics.Get().RecordSessionEnded()
	writeJSON(w, map[string]string{"message": "call ended", "callId": callID})
}

// Hold handles POST /api/calls/{callId}/hold
func (h *CallsHandler) Hold(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "hold", func(s *signaling.Session) error {
		return s.Hold(r.Context())
	})
}

// Resume handles POST /api/calls/{callId}/resume
func (h *CallsHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "resume", func(s *signaling.Session) error {
		return s.Resume(r.Context())
	})
}

// StartRecording handles POST /api/calls/{callId}/recording/start
func (h *CallsHandler) StartRecording(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "recording start", func(s *signaling.Session) error {
		return s.StartRecording(r.Context())
	})
}

// StopRecording handles POST /api/calls/{callId}/recording/stop
func (h *CallsHandler) StopRecording(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "recording stop", func(s *signaling.Session) error {
		return s.StopRecording(r.Context())
	})
}

// lifecycle runs one session operation and writes the updated snapshot
func (h *CallsHandler) lifecycle(w http.ResponseWriter, r *http.Request, op string, fn func(*signaling.Session) error) {
	callID := chi.URLParam(r, "callId")
	session := h.manager.Get(callID)
	if session == nil {
		http.Error(w, "no session for call", http.StatusNotFound)
		return
	}

	if err := fn(session); err != nil {
		h.logger.Error().Err(err).Str("call_id", callID).Msg(op + " failed")
		metrics.Get().RecordRelayError()
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, session.Snapshot())
}

// ToggleMute handles POST /api/calls/{callId}/mute
func (h *CallsHandler) ToggleMute(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callId")
	session := h.manager.Get(callID)
	if session == nil {
		http.Error(w, "no session for call", http.StatusNotFound)
		return
	}

	muted := session.ToggleMute()
	writeJSON(w, map[string]bool{"muted": muted})
}

// SetVolume handles POST /api/calls/{callId}/volume {volume}
func (h *CallsHandler) SetVolume(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callId")
	session := h.manager.Get(callID)
	if session == nil {
		http.Error(w, "no session for call", http.StatusNotFound)
		return
	}

	var req struct {
		Volume float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	applied := session.SetVolume(req.Volume)
	writeJSON(w, map[string]float64{"volume": applied})
}

// Transfer handles POST /api/calls/{callId}/transfer {targetAgentId, transferType, notes?}
func (h *CallsHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callId")

	var req struct {
		TargetAgentID string `json:"targetAgentId"`
		TransferType  string `json:"transferType"`
		Notes         string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetAgentID == "" {
		http.Error(w, "targetAgentId is required", http.StatusBadRequest)
		return
	}

	transferType := types.TransferType(req.TransferType)
	if transferType != types.TransferBlind && transferType != types.TransferAttended {
		http.Error(w, "transferType must be blind or attended", http.StatusBadRequest)
		return
	}

	if err := h.manager.Transfer(r.Context(), callID, req.TargetAgentID, transferType, req.Notes); err != nil {
		h.logger.Error().Err(err).Str("call_id", callID).Msg("transfer failed")
		metrics.Get().RecordRelayError()
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	metrics.Get().RecordTransfer()
	writeJSON(w, map[string]string{"message": "call transferred", "callId": callID})
}

// AcceptAnswer handles POST /api/calls/{callId}/answer-sdp {answer}
// for outbound calls whose answer comes back through the relay's push
// channel
func (h *CallsHandler) AcceptAnswer(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callId")
	session := h.manager.Get(callID)
	if session == nil {
		http.Error(w, "no session for call", http.StatusNotFound)
		return
	}

	var req struct {
		Answer types.SessionDescription `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := session.AcceptAnswer(req.Answer); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]string{"message": "answer applied"})
}

// AddICECandidate handles POST /api/calls/{callId}/ice {candidate}
func (h *CallsHandler) AddICECandidate(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callId")
	session := h.manager.Get(callID)
	if session == nil {
		http.Error(w, "no session for call", http.StatusNotFound)
		return
	}

	var req struct {
		Candidate types.ICECandidate `json:"candidate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := session.AddICECandidate(req.Candidate); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]string{"message": "candidate applied"})
}

// History handles GET /api/calls/history?type&status&startDate&endDate
func (h *CallsHandler) History(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := relay.HistoryFilter{
		Type:      query.Get("type"),
		Status:    query.Get("status"),
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
	}

	calls, err := h.relay.CallHistory(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("history fetch failed")
		metrics.Get().RecordRelayError()
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, calls)
}

// Active handles GET /api/calls/active, the relay's view of live calls
func (h *CallsHandler) Active(w http.ResponseWriter, r *http.Request) {
	calls, err := h.relay.ActiveCalls(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("active calls fetch failed")
		metrics.Get().RecordRelayError()
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, calls)
}

// writeJSON writes a JSON response with status 200
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
