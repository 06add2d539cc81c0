package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"github.com/blacknand/AlgoPulse/internal/detect"
	"github.com/blacknand/AlgoPulse/internal/obs"
	"github.com/blacknand/AlgoPulse/internal/ops"
	"github.com/blacknand/AlgoPulse/internal/pipeline"
	"github.com/blacknand/AlgoPulse/internal/sink"
	"github.com/blacknand/AlgoPulse/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (json, yaml or toml)")
	endpoint := flag.String("endpoint", "", "Feed endpoint, overrides config")
	topic := flag.String("topic", "", "Topic prefix filter, overrides config")
	threshold := flag.Float64("spread-threshold", -1, "Spread alert threshold, overrides config")
	mode := flag.String("detector", "", "Detector: spread|crossed|rolling|composite")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address, overrides config")
	duration := flag.Duration("duration", 0, "Stop after this long; 0 runs until signalled")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if *topic != "" {
		cfg.Topic = *topic
	}
	if *threshold >= 0 {
		cfg.SpreadThreshold = *threshold
	}
	if *mode != "" {
		cfg.Detector.Mode = *mode
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	stopProfiler, err := obs.StartProfiler(cfg.Profile())
	if err != nil {
		log.Fatalf("pyroscope start failed: %v", err)
	}
	defer func() { _ = stopProfiler() }()

	detector, err := detect.Build(cfg.Detector.Mode, cfg.DetectorParams())
	if err != nil {
		log.Fatalf("detector init failed: %v", err)
	}

	ctx := context.Background()
	sinks := sink.Multi{sink.Log{}}
	if cfg.Alerts.RedisURL != "" {
		redisSink, err := sink.DialRedis(ctx, cfg.Alerts.RedisURL, cfg.Alerts.Channel)
		if err != nil {
			log.Fatalf("alert redis init failed: %v", err)
		}
		defer redisSink.Close()
		sinks = append(sinks, redisSink)
	}

	metrics := obs.NewMetrics()
	controller, err := pipeline.New(cfg.Pipeline(), pipeline.Deps{
		Dialer:   transport.Dial,
		Detector: detector,
		Sink:     sinks,
		Metrics:  metrics,
	})
	if err != nil {
		log.Fatalf("pipeline init failed: %v", err)
	}

	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		if err := obs.Register(reg, metrics, controller.QueueLen); err != nil {
			log.Fatalf("metrics register failed: %v", err)
		}
		srv := obs.Serve(cfg.Metrics.Addr, reg)
		defer obs.Shutdown(srv, 2*time.Second)
		logs.Infof("metrics on %s/metrics", cfg.Metrics.Addr)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = controller.Start(dialCtx)
	cancel()
	if err != nil {
		log.Fatalf("pipeline start failed: %v", err)
	}

	var deadline <-chan time.Time
	if *duration > 0 {
		timer := time.NewTimer(*duration)
		defer timer.Stop()
		deadline = timer.C
	}
	select {
	case <-sys.Shutdown():
		logs.Info("shutdown signal received")
	case <-deadline:
		logs.Infof("ran for %s, stopping", *duration)
	}

	controller.Stop()
	s := controller.Stats()
	logs.Infof("metrics: received=%d decoded=%d decode_errors=%d transport_errors=%d processed=%d alerts=%d evaluate_latency=%+v queue_latency=%+v",
		s.Received, s.Decoded, s.DecodeErrors(), s.TransportErrors, s.Processed, s.Alerts, s.EvaluateLatency, s.QueueLatency)
}
