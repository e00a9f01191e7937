package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/singleflight"

	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/history"
	"git.home.luguber.info/inful/csmon/internal/report"
)

// History is the read side of the report history. *history.Store implements it.
type History interface {
	Recent(ctx context.Context, q history.Query) ([]history.Entry, error)
	AnomalySummary(ctx context.Context) ([]history.RegionAnomalies, error)
}

// HistoryHandlers serves stored reports.
type HistoryHandlers struct {
	store        History
	group        singleflight.Group
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewHistoryHandlers creates history handlers.
func NewHistoryHandlers(store History, logger *slog.Logger) *HistoryHandlers {
	return &HistoryHandlers{store: store, errorAdapter: ferrors.NewHTTPErrorAdapter(logger)}
}

// Register adds the history routes to mux.
func (h *HistoryHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/history", h.HandleRecent)
	mux.HandleFunc("GET /api/v1/history/anomalies", h.HandleAnomalySummary)
}

// HandleRecent lists recent reports filtered by ?kind=, ?resource_type= and ?limit=.
func (h *HistoryHandlers) HandleRecent(w http.ResponseWriter, r *http.Request) {
	q := history.Query{
		Kind:         report.Kind(r.URL.Query().Get("kind")),
		ResourceType: r.URL.Query().Get("resource_type"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			h.errorAdapter.WriteErrorResponse(w, r, ferrors.ValidationError("limit must be between 1 and 1000").
				WithContext("limit", raw).Build())
			return
		}
		q.Limit = n
	}
	entries, err := h.store.Recent(r.Context(), q)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	_ = writeJSONPretty(w, r, http.StatusOK, entries)
}

// HandleAnomalySummary returns per-region anomaly counts. Concurrent requests share
// one query.
func (h *HistoryHandlers) HandleAnomalySummary(w http.ResponseWriter, r *http.Request) {
	v, err, _ := h.group.Do("anomalies", func() (any, error) {
		return h.store.AnomalySummary(context.WithoutCancel(r.Context()))
	})
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	summary, _ := v.([]history.RegionAnomalies)
	if summary == nil {
		summary = []history.RegionAnomalies{}
	}
	_ = writeJSONPretty(w, r, http.StatusOK, summary)
}
