// Package responses defines the JSON bodies returned by the csmon admin API.
package responses

import (
	"time"

	"git.home.luguber.info/inful/csmon/internal/scheduler"
)

// AckResponse acknowledges an accepted command.
type AckResponse struct {
	Status  string `json:"status"`
	Command string `json:"command"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Uptime      float64   `json:"uptime"`
	State       string    `json:"state"`
	Persistence string    `json:"persistence"`
	// Live /api/v1/events clients and the reports they missed.
	StreamClients int    `json:"stream_clients"`
	StreamDropped uint64 `json:"stream_dropped"`
}

// RegionsResponse lists region baselines.
type RegionsResponse struct {
	ResourceType string                     `json:"resource_type"`
	Regions      []scheduler.RegionBaseline `json:"regions"`
}

// OneShotRequest starts a one-shot checksum.
type OneShotRequest struct {
	Start      uint64 `json:"start"`
	Length     uint64 `json:"length"`
	MaxPerTick uint64 `json:"max_per_tick,omitempty"`
}

// ByteBudgetRequest changes the per-tick byte budget.
type ByteBudgetRequest struct {
	ByteBudget uint64 `json:"byte_budget"`
}
