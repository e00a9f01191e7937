package handlers

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/csmon/internal/events"
	"git.home.luguber.info/inful/csmon/internal/logfields"
	"git.home.luguber.info/inful/csmon/internal/report"
)

// StreamHandlers serves reports as server-sent events.
type StreamHandlers struct {
	bus       *events.Bus
	buffer    int
	keepalive time.Duration
	logger    *slog.Logger
}

// NewStreamHandlers creates stream handlers on bus.
func NewStreamHandlers(bus *events.Bus, logger *slog.Logger) *StreamHandlers {
	return &StreamHandlers{bus: bus, buffer: 32, keepalive: 15 * time.Second, logger: logger}
}

// Register adds the stream route to mux.
func (h *StreamHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/events", h.HandleEvents)
}

// HandleEvents streams every report until the client disconnects. ?kind= filters by
// report kind. A slow client misses events rather than slowing the scanner.
func (h *StreamHandlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsubscribe := events.Subscribe[report.Event](h.bus, h.buffer)
	defer unsubscribe()

	kind := report.Kind(r.URL.Query().Get("kind"))
	bw := bufio.NewWriter(w)
	flush := func() bool {
		if err := bw.Flush(); err != nil {
			return false
		}
		return rc.Flush() == nil
	}
	if _, err := bw.WriteString(": connected\n\n"); err != nil || !flush() {
		return
	}

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			if _, err := bw.WriteString(": keepalive\n\n"); err != nil || !flush() {
				return
			}
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if kind != "" && ev.Kind() != kind {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("Failed to encode streamed report", logfields.ReportID(ev.Header().ID), logfields.Error(err))
				continue
			}
			if _, err := bw.WriteString("event: " + string(ev.Kind()) + "\nid: " + ev.Header().ID + "\ndata: "); err != nil {
				return
			}
			_, _ = bw.Write(data)
			if _, err := bw.WriteString("\n\n"); err != nil || !flush() {
				return
			}
		}
	}
}
