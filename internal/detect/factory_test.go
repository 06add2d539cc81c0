package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacknand/AlgoPulse/internal/model"
)

func TestBuild(t *testing.T) {
	params := Params{SpreadThreshold: 1.0, Window: 10, ZScore: 3, MinSamples: 5}

	d, err := Build("", params)
	require.NoError(t, err)
	assert.IsType(t, &Spread{}, d)

	d, err = Build(" Crossed ", params)
	require.NoError(t, err)
	assert.IsType(t, Crossed{}, d)

	d, err = Build(ModeRolling, params)
	require.NoError(t, err)
	assert.IsType(t, &Rolling{}, d)

	_, err = Build("ml", params)
	require.Error(t, err)
	assert.False(t, KnownMode("ml"))
	assert.True(t, KnownMode(ModeComposite))
}

func TestCompositePrefersCrossedBook(t *testing.T) {
	d, err := Build(ModeComposite, Params{SpreadThreshold: 1.0})
	require.NoError(t, err)

	alert, ok := d.Evaluate(quote("AAPL", 152, 150))
	require.True(t, ok)
	assert.Equal(t, model.ReasonCrossedBook, alert.Reason)

	alert, ok = d.Evaluate(quote("AAPL", 150, 152))
	require.True(t, ok)
	assert.Equal(t, model.ReasonWideSpread, alert.Reason)

	_, ok = d.Evaluate(quote("AAPL", 150, 150.5))
	assert.False(t, ok)
}

func TestChainSkipsNil(t *testing.T) {
	calls := 0
	d := Chain(nil, Func(func(q model.Quote) (model.Alert, bool) {
		calls++
		return model.Alert{Symbol: q.Symbol}, true
	}))
	alert, ok := d.Evaluate(quote("X", 1, 2))
	require.True(t, ok)
	assert.Equal(t, "X", alert.Symbol)
	assert.Equal(t, 1, calls)
}
