package detect

import (
	"github.com/shopspring/decimal"

	"github.com/blacknand/AlgoPulse/internal/model"
)

const DefaultSpreadThreshold = 1.0

// Spread alerts when ask - bid is strictly greater than the threshold.
// Prices are compared as decimals so 151.1 - 150.1 equals a 1.0 threshold.
type Spread struct {
	threshold decimal.Decimal
}

func NewSpread(threshold float64) *Spread {
	return &Spread{threshold: decimal.NewFromFloat(threshold)}
}

// Threshold returns the spread a quote must exceed to alert.
func (d *Spread) Threshold() float64 {
	return d.threshold.InexactFloat64()
}

func (d *Spread) Evaluate(q model.Quote) (model.Alert, bool) {
	spread := decimal.NewFromFloat(q.AskPrice).Sub(decimal.NewFromFloat(q.BidPrice))
	if !spread.GreaterThan(d.threshold) {
		return model.Alert{}, false
	}
	return newAlert(q, spread.InexactFloat64(), model.ReasonWideSpread), true
}
