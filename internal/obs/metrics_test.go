package obs

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.IncReceived()
	m.ObserveEvaluate(time.Millisecond)
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.IncReceived()
				m.IncDecoded()
			}
		}()
	}
	wg.Wait()
	m.IncDecodeMissing()
	m.IncDecodeMalformed()
	m.IncDecodeMalformed()
	m.IncAlert()

	s := m.Snapshot()
	assert.Equal(t, uint64(800), s.Received)
	assert.Equal(t, uint64(800), s.Decoded)
	assert.Equal(t, uint64(3), s.DecodeErrors())
	assert.Equal(t, uint64(1), s.Alerts)
}

func TestLatencyStats(t *testing.T) {
	var l LatencyStats
	assert.Equal(t, LatencySnapshot{}, l.Snapshot())

	l.Observe(3 * time.Millisecond)
	l.Observe(time.Millisecond)
	l.Observe(2 * time.Millisecond)
	l.Observe(-time.Millisecond)

	s := l.Snapshot()
	assert.Equal(t, uint64(3), s.Count)
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 3*time.Millisecond, s.Max)
	assert.Equal(t, 2*time.Millisecond, s.Avg)
}

func TestRegister(t *testing.T) {
	m := NewMetrics()
	m.IncProcessed()
	m.IncProcessed()

	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg, m, func() int { return 5 }))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, values["algopulse_quotes_processed_total"])
	assert.Equal(t, 5.0, values["algopulse_queue_depth"])
	assert.Contains(t, values, "algopulse_alerts_total")

	assert.Error(t, Register(reg, m, nil), "duplicate registration must fail")
}

func TestStartProfilerDisabled(t *testing.T) {
	stop, err := StartProfiler(ProfileConfig{})
	require.NoError(t, err)
	assert.NoError(t, stop())
}
