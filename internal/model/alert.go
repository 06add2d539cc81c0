package model

import "time"

type Reason string

const (
	ReasonWideSpread   Reason = "wide-spread"
	ReasonCrossedBook  Reason = "crossed-book"
	ReasonSpreadZScore Reason = "spread-zscore"
)

func (r Reason) String() string {
	return string(r)
}

// Alert is an anomaly finding for a single quote.
type Alert struct {
	Symbol         string  `json:"symbol"`
	Spread         float64 `json:"spread"`
	TimestampMicro int64   `json:"timestampMicro"`
	Reason         Reason  `json:"reason"`
}

func (a Alert) Time() time.Time {
	return time.UnixMicro(a.TimestampMicro).UTC()
}
