package handlers

import (
	"net/http"
	"time"

	"git.home.luguber.info/inful/csmon/internal/events"
	"git.home.luguber.info/inful/csmon/internal/report"
	"git.home.luguber.info/inful/csmon/internal/server/responses"
	"git.home.luguber.info/inful/csmon/internal/version"
)

// HealthSource reports scheduler liveness.
type HealthSource interface {
	StartTime() time.Time
	SchedulerState() string
	PersistenceHealth() string
}

// MonitoringHandlers serves health endpoints.
type MonitoringHandlers struct {
	source HealthSource
	bus    *events.Bus
}

// NewMonitoringHandlers creates monitoring handlers. bus may be nil when the event
// stream is not served.
func NewMonitoringHandlers(source HealthSource, bus *events.Bus) *MonitoringHandlers {
	return &MonitoringHandlers{source: source, bus: bus}
}

// Register adds the monitoring routes to mux.
func (h *MonitoringHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.HandleHealth)
}

// HandleHealth always answers 200 while the process serves requests; a disabled
// persistence backend is reported as degraded, not unhealthy.
func (h *MonitoringHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	persistence := h.source.PersistenceHealth()
	if persistence == "disabled" {
		status = "degraded"
	}
	resp := responses.HealthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC(),
		Version:     version.Version,
		Uptime:      time.Since(h.source.StartTime()).Seconds(),
		State:       h.source.SchedulerState(),
		Persistence: persistence,
	}
	if h.bus != nil {
		resp.StreamClients = events.SubscriberCount[report.Event](h.bus)
		resp.StreamDropped = h.bus.Dropped()
	}
	_ = writeJSONPretty(w, r, http.StatusOK, resp)
}
