package observability

import (
	"fmt"
	"net/http"
	"slices"
	"time"
)

var exported = []struct {
	key, name, kind, help string
}{
	{"frames_in", "nxctl_frames_received_total", "counter", "NXCP frames received."},
	{"frames_out", "nxctl_frames_sent_total", "counter", "NXCP frames sent."},
	{"bytes_in", "nxctl_bytes_received_total", "counter", "Bytes read from the server channel."},
	{"bytes_out", "nxctl_bytes_sent_total", "counter", "Bytes written to the server channel."},
	{"decode_errors", "nxctl_decode_errors_total", "counter", "Frames dropped with a framing error."},
	{"connects", "nxctl_connects_total", "counter", "Successful channel opens."},
	{"connect_failures", "nxctl_connect_failures_total", "counter", "Failed channel opens."},
	{"send_failures", "nxctl_send_failures_total", "counter", "Failed sends."},
	{"consistency_warnings", "nxctl_consistency_warnings_total", "counter", "Edges naming objects not resident in the store."},
	{"request_errors", "nxctl_request_errors_total", "counter", "Requests answered with a non-zero result code."},
	{"objects", "nxctl_objects", "gauge", "Objects resident in the store."},
	{"connected", "nxctl_connected", "gauge", "1 while the server channel is open."},
}

// PrometheusHandler returns an http.HandlerFunc that exports metrics in
// Prometheus text exposition format.
func (m *Metrics) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		snap := m.GetMetrics()
		for _, e := range exported {
			fmt.Fprintf(w, "# HELP %s %s\n", e.name, e.help)
			fmt.Fprintf(w, "# TYPE %s %s\n", e.name, e.kind)
			fmt.Fprintf(w, "%s %d\n\n", e.name, snap[e.key])
		}

		latencies := m.LatencySnapshot()
		if len(latencies) > 0 {
			slices.Sort(latencies)
			fmt.Fprintf(w, "# HELP nxctl_request_duration_seconds Request round-trip percentiles.\n")
			fmt.Fprintf(w, "# TYPE nxctl_request_duration_seconds summary\n")
			fmt.Fprintf(w, "nxctl_request_duration_seconds{quantile=\"0.5\"} %f\n", percentile(latencies, 0.5))
			fmt.Fprintf(w, "nxctl_request_duration_seconds{quantile=\"0.95\"} %f\n", percentile(latencies, 0.95))
			fmt.Fprintf(w, "nxctl_request_duration_seconds{quantile=\"0.99\"} %f\n", percentile(latencies, 0.99))
			fmt.Fprintf(w, "nxctl_request_duration_seconds_count %d\n\n", len(latencies))
		}
	}
}

// percentile returns the p-th percentile value from sorted durations.
func percentile(sorted []time.Duration, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx].Seconds()
}
