package api

import (
	"net/http"

	"github.com/emiryucelweb/asistanapp-sub008/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// RecordsHandler serves persisted call records and admin maintenance
type RecordsHandler struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewRecordsHandler creates a new RecordsHandler
func NewRecordsHandler(store storage.Store, logger zerolog.Logger) *RecordsHandler {
	return &RecordsHandler{
		store:  store,
		logger: logger.With().Str("component", "records_api").Logger(),
	}
}

// ByDate handles GET /api/records/{date}?direction=
func (h *RecordsHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if date == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}

	direction := r.URL.Query().Get("direction")

	var err error
	var records any
	if direction != "" {
		records, err = h.store.GetCallRecordsByDirection(date, direction)
	} else {
		records, err = h.store.GetCallRecords(date)
	}
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("record query failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

// Truncate handles POST /api/admin/records/truncate. Admin only,
// destroys all persisted records.
func (h *RecordsHandler) Truncate(w http.ResponseWriter, r *http.Request) {
	if err := h.store.TruncateAll(); err != nil {
		h.logger.Error().Err(err).Msg("truncate failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.logger.Warn().Msg("all call records truncated via API")
	writeJSON(w, map[string]string{"message": "records truncated"})
}
