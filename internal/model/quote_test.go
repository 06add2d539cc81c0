package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuoteSpread(t *testing.T) {
	q := Quote{Symbol: "AAPL", BidPrice: 150, AskPrice: 151.5}
	assert.InDelta(t, 1.5, q.Spread(), 1e-9)
	assert.False(t, q.Crossed())

	q.BidPrice = 152
	assert.True(t, q.Crossed())
	assert.Less(t, q.Spread(), 0.0)
}

func TestQuoteTime(t *testing.T) {
	q := Quote{TimestampMicro: 1717000000000000}
	assert.Equal(t, time.Date(2024, time.May, 29, 16, 26, 40, 0, time.UTC), q.Time())
}
