package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight pipeline counters and latency stats.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	received        uint64
	decoded         uint64
	decodeMissing   uint64
	decodeMalformed uint64
	transportErrors uint64
	reconnects      uint64
	enqueued        uint64
	rejected        uint64
	processed       uint64
	alerts          uint64
	sinkErrors      uint64

	evaluateLatency LatencyStats
	queueLatency    LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Received        uint64
	Decoded         uint64
	DecodeMissing   uint64
	DecodeMalformed uint64
	TransportErrors uint64
	Reconnects      uint64
	Enqueued        uint64
	Rejected        uint64
	Processed       uint64
	Alerts          uint64
	SinkErrors      uint64
	EvaluateLatency LatencySnapshot
	QueueLatency    LatencySnapshot
}

// DecodeErrors sums both decode error kinds.
func (s Snapshot) DecodeErrors() uint64 {
	return s.DecodeMissing + s.DecodeMalformed
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncReceived counts a raw message taken off the transport.
func (m *Metrics) IncReceived() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.received, 1)
}

func (m *Metrics) IncDecoded() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.decoded, 1)
}

func (m *Metrics) IncDecodeMissing() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.decodeMissing, 1)
}

func (m *Metrics) IncDecodeMalformed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.decodeMalformed, 1)
}

func (m *Metrics) IncTransportError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.transportErrors, 1)
}

func (m *Metrics) IncReconnect() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.reconnects, 1)
}

func (m *Metrics) IncEnqueued() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.enqueued, 1)
}

// IncRejected records a quote the hand-off queue refused.
func (m *Metrics) IncRejected() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.rejected, 1)
}

func (m *Metrics) IncProcessed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.processed, 1)
}

func (m *Metrics) IncAlert() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.alerts, 1)
}

func (m *Metrics) IncSinkError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sinkErrors, 1)
}

// ObserveEvaluate measures detector latency.
func (m *Metrics) ObserveEvaluate(d time.Duration) {
	if m == nil {
		return
	}
	m.evaluateLatency.Observe(d)
}

// ObserveQueue measures how long a quote waited between push and pop.
func (m *Metrics) ObserveQueue(d time.Duration) {
	if m == nil {
		return
	}
	m.queueLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Received:        atomic.LoadUint64(&m.received),
		Decoded:         atomic.LoadUint64(&m.decoded),
		DecodeMissing:   atomic.LoadUint64(&m.decodeMissing),
		DecodeMalformed: atomic.LoadUint64(&m.decodeMalformed),
		TransportErrors: atomic.LoadUint64(&m.transportErrors),
		Reconnects:      atomic.LoadUint64(&m.reconnects),
		Enqueued:        atomic.LoadUint64(&m.enqueued),
		Rejected:        atomic.LoadUint64(&m.rejected),
		Processed:       atomic.LoadUint64(&m.processed),
		Alerts:          atomic.LoadUint64(&m.alerts),
		SinkErrors:      atomic.LoadUint64(&m.sinkErrors),
		EvaluateLatency: m.evaluateLatency.Snapshot(),
		QueueLatency:    m.queueLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
