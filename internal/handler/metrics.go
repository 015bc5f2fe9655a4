package handler

import (
	"fmt"
	"net/http"

	"github.com/meetingsapi/meetings/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "meetings_created_total %d\n", snap.MeetingsCreated)
	writeMetric(w, "meetings_updated_total %d\n", snap.MeetingsUpdated)
	writeMetric(w, "meetings_responded_total{response=\"accepted\"} %d\n", snap.MeetingsAccepted)
	writeMetric(w, "meetings_responded_total{response=\"rejected\"} %d\n", snap.MeetingsRejected)
	writeMetric(w, "meetings_deleted_total %d\n", snap.MeetingsDeleted)

	writeMetric(w, "meetings_hours_cache_hits_total %d\n", snap.HoursCacheHits)
	writeMetric(w, "meetings_hours_cache_misses_total %d\n", snap.HoursCacheMisses)
	writeMetric(w, "meetings_hours_duration_seconds_count %d\n", snap.HoursDurationCount)
	writeMetric(w, "meetings_hours_duration_seconds_sum %.6f\n", float64(snap.HoursDurationTotalNs)/1e9)

	writeMetric(w, "meetings_events_published_total{status=\"success\"} %d\n", snap.EventsPublished)
	writeMetric(w, "meetings_events_published_total{status=\"dropped\"} %d\n", snap.EventsDropped)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
