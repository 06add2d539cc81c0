package obs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"
)

const namespace = "algopulse"

type counterSpec struct {
	name string
	help string
	read func(Snapshot) uint64
}

var counterSpecs = []counterSpec{
	{"messages_received_total", "Raw messages taken off the transport.", func(s Snapshot) uint64 { return s.Received }},
	{"quotes_decoded_total", "Messages decoded into quotes.", func(s Snapshot) uint64 { return s.Decoded }},
	{"decode_missing_field_total", "Messages rejected for missing fields.", func(s Snapshot) uint64 { return s.DecodeMissing }},
	{"decode_malformed_field_total", "Messages rejected for malformed fields.", func(s Snapshot) uint64 { return s.DecodeMalformed }},
	{"transport_errors_total", "Transport receive failures.", func(s Snapshot) uint64 { return s.TransportErrors }},
	{"transport_reconnects_total", "Transport redials after a failure.", func(s Snapshot) uint64 { return s.Reconnects }},
	{"quotes_enqueued_total", "Quotes pushed to the hand-off queue.", func(s Snapshot) uint64 { return s.Enqueued }},
	{"quotes_rejected_total", "Quotes the hand-off queue refused.", func(s Snapshot) uint64 { return s.Rejected }},
	{"quotes_processed_total", "Quotes evaluated by the detector.", func(s Snapshot) uint64 { return s.Processed }},
	{"alerts_total", "Alerts produced by the detector.", func(s Snapshot) uint64 { return s.Alerts }},
	{"sink_errors_total", "Alert sink publish failures.", func(s Snapshot) uint64 { return s.SinkErrors }},
}

// Register exposes m on reg. queueDepth may be nil.
func Register(reg prometheus.Registerer, m *Metrics, queueDepth func() int) error {
	collectors := make([]prometheus.Collector, 0, len(counterSpecs)+3)
	for _, spec := range counterSpecs {
		read := spec.read
		collectors = append(collectors, prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      spec.name,
			Help:      spec.help,
		}, func() float64 {
			return float64(read(m.Snapshot()))
		}))
	}
	collectors = append(collectors,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluate_latency_avg_seconds",
			Help:      "Average detector latency.",
		}, func() float64 {
			return m.Snapshot().EvaluateLatency.Avg.Seconds()
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_latency_avg_seconds",
			Help:      "Average time a quote waits in the hand-off queue.",
		}, func() float64 {
			return m.Snapshot().QueueLatency.Avg.Seconds()
		}),
	)
	if queueDepth != nil {
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Quotes waiting in the hand-off queue.",
		}, func() float64 {
			return float64(queueDepth())
		}))
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Serve exposes /metrics for gatherer on addr in the background.
func Serve(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Errorf("metrics server %s, err: %+v", addr, err)
		}
	}()
	return srv
}

// Shutdown stops a server returned by Serve.
func Shutdown(srv *http.Server, timeout time.Duration) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
