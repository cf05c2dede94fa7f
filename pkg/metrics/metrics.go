// Package metrics holds the optional Prometheus counters exposed when
// [General] metrics_listen is set, grounded on zoomoid-go-ipfix's
// metrics.go (decoder counters) and the teacher main.go's
// promhttp.Handler()/ListenAndServe wiring.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	// DatagramsTotal counts received datagrams per probe.
	DatagramsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nf9sond",
		Name:      "datagrams_total",
		Help:      "Total number of datagrams received, per probe.",
	}, []string{"probe"})

	// RecordsDecodedTotal counts flow records successfully materialized.
	RecordsDecodedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nf9sond",
		Name:      "records_decoded_total",
		Help:      "Total number of flow records decoded, per probe.",
	}, []string{"probe"})

	// DiagnosticsTotal counts non-fatal decode diagnostics emitted.
	DiagnosticsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nf9sond",
		Name:      "decode_diagnostics_total",
		Help:      "Total number of non-fatal decode diagnostics, per probe.",
	}, []string{"probe"})

	// SinkWriteErrorsTotal counts dropped records due to sink write failures.
	SinkWriteErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nf9sond",
		Name:      "sink_write_errors_total",
		Help:      "Total number of records dropped due to sink write failures, per probe.",
	}, []string{"probe"})

	// RejectedByFilterTotal counts datagrams rejected by the source-IP filter.
	RejectedByFilterTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nf9sond",
		Name:      "rejected_by_filter_total",
		Help:      "Total number of datagrams rejected by the source-IP filter, per probe.",
	}, []string{"probe"})
)

func init() {
	prometheus.MustRegister(
		DatagramsTotal,
		RecordsDecodedTotal,
		DiagnosticsTotal,
		SinkWriteErrorsTotal,
		RejectedByFilterTotal,
	)
}

// Serve starts the /metrics HTTP endpoint on listenAddr in its own
// goroutine. An empty listenAddr disables the server entirely — the
// caller should simply not invoke Serve in that case.
func Serve(listenAddr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(listenAddr, mux); err != nil {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
}
