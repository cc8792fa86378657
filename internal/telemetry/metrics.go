package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// ProcessMetrics are the per-Process Prometheus series: writeCounter (the
// numerical deviation), write-log depth, forwarded/failed writes, dirty
// reads, and reconciliations.
type ProcessMetrics struct {
	WriteCounter    prometheus.Gauge
	WriteLogDepth   prometheus.Gauge
	WritesForwarded prometheus.Counter
	WritesFailed    prometheus.Counter
	DirtyReads      prometheus.Counter
	Reconciliations prometheus.Counter
}

// NewProcessMetrics registers a ProcessMetrics set for processName under reg.
func NewProcessMetrics(reg prometheus.Registerer, processName string) *ProcessMetrics {
	labels := prometheus.Labels{"process": processName}
	m := &ProcessMetrics{
		WriteCounter: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chainkv_write_counter", Help: "Numerical deviation: writes forwarded/committed by this process.", ConstLabels: labels,
		}),
		WriteLogDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chainkv_write_log_depth", Help: "Entries currently held in this process's bounded write log.", ConstLabels: labels,
		}),
		WritesForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chainkv_writes_forwarded_total", Help: "Writes this process forwarded or committed successfully.", ConstLabels: labels,
		}),
		WritesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chainkv_writes_failed_total", Help: "Writes this process failed to forward or commit.", ConstLabels: labels,
		}),
		DirtyReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chainkv_dirty_reads_total", Help: "Reads this process forwarded to the tail because the key was dirty.", ConstLabels: labels,
		}),
		Reconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chainkv_reconciliations_total", Help: "RawWrite entries this process replayed to a target via Reconcile.", ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.WriteCounter, m.WriteLogDepth, m.WritesForwarded, m.WritesFailed, m.DirtyReads, m.Reconciliations)
	return m
}

// DebugServer serves /metrics (Prometheus) behind permissive local CORS, for
// an operator's dashboard to scrape without a reverse proxy.
func DebugServer(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return cors.AllowAll().Handler(mux)
}
