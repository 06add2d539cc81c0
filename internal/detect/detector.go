// Package detect holds the anomaly policies run on the processing goroutine.
// A policy must return quickly: a slow Evaluate throttles the whole pipeline.
package detect

import "github.com/blacknand/AlgoPulse/internal/model"

// Detector flags a quote as anomalous.
type Detector interface {
	Evaluate(q model.Quote) (model.Alert, bool)
}

// Func adapts a plain function to Detector.
type Func func(q model.Quote) (model.Alert, bool)

func (f Func) Evaluate(q model.Quote) (model.Alert, bool) {
	return f(q)
}

// Chain evaluates detectors in order and returns the first alert.
func Chain(detectors ...Detector) Detector {
	list := make([]Detector, 0, len(detectors))
	for _, d := range detectors {
		if d != nil {
			list = append(list, d)
		}
	}
	return chain(list)
}

type chain []Detector

func (c chain) Evaluate(q model.Quote) (model.Alert, bool) {
	for _, d := range c {
		if alert, ok := d.Evaluate(q); ok {
			return alert, true
		}
	}
	return model.Alert{}, false
}

func newAlert(q model.Quote, spread float64, reason model.Reason) model.Alert {
	return model.Alert{
		Symbol:         q.Symbol,
		Spread:         spread,
		TimestampMicro: q.TimestampMicro,
		Reason:         reason,
	}
}
