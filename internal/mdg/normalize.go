package mdg

import "github.com/shopspring/decimal"

// RoundToTick snaps price to the nearest multiple of tick, so the wire text
// stays short ("150.3", not "150.29999999999998").
func RoundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	t := decimal.NewFromFloat(tick)
	return decimal.NewFromFloat(price).Div(t).Round(0).Mul(t).InexactFloat64()
}
