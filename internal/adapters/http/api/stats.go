package api

import (
	"net/http"

	"github.com/jaykayes/lottery-script/internal/domain/dedupe"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	Stats() map[string]any
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
	deduper       dedupe.Deduper
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider, deduper dedupe.Deduper) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, deduper: deduper}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := map[string]any{}
	if h.statsProvider != nil {
		for k, v := range h.statsProvider.Stats() {
			stats[k] = v
		}
	}
	if h.deduper != nil {
		stats["idempotency_keys"] = h.deduper.Size()
	}
	writeJSON(w, http.StatusOK, stats)
}
