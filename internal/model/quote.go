package model

import "time"

// Quote is one top-of-book snapshot decoded from the wire.
type Quote struct {
	Symbol         string
	BidPrice       float64
	AskPrice       float64
	BidVolume      int64
	AskVolume      int64
	TimestampMicro int64
}

// Spread returns ask minus bid; negative when the book is crossed.
func (q Quote) Spread() float64 {
	return q.AskPrice - q.BidPrice
}

// Crossed reports whether the bid is above the ask.
func (q Quote) Crossed() bool {
	return q.BidPrice > q.AskPrice
}

func (q Quote) Time() time.Time {
	return time.UnixMicro(q.TimestampMicro).UTC()
}
