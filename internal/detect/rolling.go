package detect

import (
	"math"
	"sync"

	"github.com/blacknand/AlgoPulse/internal/model"
)

const (
	DefaultRollingWindow     = 100
	DefaultRollingZScore     = 4.0
	DefaultRollingMinSamples = 20
)

// Rolling keeps a per-symbol window of spreads and alerts when a spread lies
// ZScore standard deviations or more from the window mean. A quote is scored
// against the window before it is added.
type Rolling struct {
	window     int
	zScore     float64
	minSamples int

	mu     sync.Mutex
	series map[string]*spreadWindow
}

func NewRolling(window int, zScore float64, minSamples int) *Rolling {
	if window <= 1 {
		window = DefaultRollingWindow
	}
	if zScore <= 0 {
		zScore = DefaultRollingZScore
	}
	if minSamples <= 1 {
		minSamples = DefaultRollingMinSamples
	}
	if minSamples > window {
		minSamples = window
	}
	return &Rolling{
		window:     window,
		zScore:     zScore,
		minSamples: minSamples,
		series:     make(map[string]*spreadWindow),
	}
}

func (d *Rolling) Evaluate(q model.Quote) (model.Alert, bool) {
	spread := q.Spread()

	d.mu.Lock()
	defer d.mu.Unlock()

	w := d.series[q.Symbol]
	if w == nil {
		w = &spreadWindow{values: make([]float64, d.window)}
		d.series[q.Symbol] = w
	}

	var (
		alert model.Alert
		hit   bool
	)
	if w.count >= d.minSamples {
		mean, std := w.stats()
		if std > 0 && math.Abs(spread-mean)/std >= d.zScore {
			alert, hit = newAlert(q, spread, model.ReasonSpreadZScore), true
		}
	}
	w.add(spread)
	return alert, hit
}

// Symbols returns how many symbols have state.
func (d *Rolling) Symbols() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.series)
}

// spreadWindow is a fixed ring of the most recent spreads for one symbol.
type spreadWindow struct {
	values []float64
	next   int
	count  int
}

func (w *spreadWindow) add(v float64) {
	w.values[w.next] = v
	w.next = (w.next + 1) % len(w.values)
	if w.count < len(w.values) {
		w.count++
	}
}

// stats recomputes mean and population standard deviation from the ring on
// every call so the result never depends on earlier, evicted values.
func (w *spreadWindow) stats() (mean, std float64) {
	held := w.values[:w.count]
	for _, v := range held {
		mean += v
	}
	mean /= float64(len(held))

	var variance float64
	for _, v := range held {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(held))
	if variance < 1e-18 {
		return mean, 0
	}
	return mean, math.Sqrt(variance)
}
