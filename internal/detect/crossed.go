package detect

import "github.com/blacknand/AlgoPulse/internal/model"

// Crossed alerts when the bid is above the ask.
type Crossed struct{}

func (Crossed) Evaluate(q model.Quote) (model.Alert, bool) {
	if !q.Crossed() {
		return model.Alert{}, false
	}
	return newAlert(q, q.Spread(), model.ReasonCrossedBook), true
}
