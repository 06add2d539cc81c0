package chaos

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacknand/AlgoPulse/internal/codec"
)

func payloads(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("AAPL,150.0,151.0,100,100,%d", i))
	}
	return out
}

func TestPassThrough(t *testing.T) {
	e, err := NewEngine(Config{Seed: 1})
	require.NoError(t, err)
	assert.False(t, Config{}.Enabled())

	for _, p := range payloads(100) {
		out := e.Process(p)
		require.Len(t, out, 1)
		assert.Equal(t, p, out[0])
	}
	assert.Empty(t, e.Flush())

	var nilEngine *Engine
	assert.Len(t, nilEngine.Process([]byte("x")), 1)
}

func TestDropAll(t *testing.T) {
	e, err := NewEngine(Config{Seed: 1, DropRate: 1})
	require.NoError(t, err)
	for _, p := range payloads(50) {
		assert.Empty(t, e.Process(p))
	}
}

func TestDuplicateAll(t *testing.T) {
	e, err := NewEngine(Config{Seed: 1, DuplicateRate: 1})
	require.NoError(t, err)
	out := e.Process([]byte("AAPL,1,2,3,4,5"))
	require.Len(t, out, 2)
	assert.Equal(t, out[0], out[1])
}

func TestReorderKeepsEveryPayload(t *testing.T) {
	e, err := NewEngine(Config{Seed: 3, ReorderWindow: 8})
	require.NoError(t, err)

	in := payloads(200)
	var out [][]byte
	for _, p := range in {
		out = append(out, e.Process(p)...)
	}
	out = append(out, e.Flush()...)
	require.Len(t, out, len(in))

	seen := make(map[string]int, len(in))
	for _, p := range out {
		seen[string(p)]++
	}
	for _, p := range in {
		assert.Equal(t, 1, seen[string(p)])
	}
}

func TestCorruptBreaksDecode(t *testing.T) {
	e, err := NewEngine(Config{Seed: 9, CorruptRate: 1})
	require.NoError(t, err)

	for _, p := range payloads(200) {
		out := e.Process(p)
		require.Len(t, out, 1)
		_, err := codec.DecodeQuote(out[0])
		assert.Error(t, err, "corrupted payload %q decoded", out[0])
	}
}

func TestCorruptDoesNotTouchInput(t *testing.T) {
	e, err := NewEngine(Config{Seed: 9, CorruptRate: 1})
	require.NoError(t, err)
	in := []byte("AAPL,150.0,151.0,100,100,1")
	e.Process(in)
	assert.Equal(t, "AAPL,150.0,151.0,100,100,1", string(in))
}

func TestValidate(t *testing.T) {
	_, err := NewEngine(Config{DropRate: 1.5})
	assert.Error(t, err)
	_, err = NewEngine(Config{CorruptRate: -0.1})
	assert.Error(t, err)
	assert.True(t, Config{ReorderWindow: 2}.Enabled())
}

func TestValidateReportsFirstBadRate(t *testing.T) {
	cfg := Config{DropRate: 2, DuplicateRate: -1, CorruptRate: 3, ReorderWindow: 1}
	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dropRate")
	}

	err := Config{DuplicateRate: -1, CorruptRate: 3, ReorderWindow: 1}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicateRate")
}

func TestSeparatorOffset(t *testing.T) {
	msg := []byte("AAPL,150.0,151.0,100,100,1")
	assert.Equal(t, 4, separatorOffset(msg, 1))
	assert.Equal(t, 10, separatorOffset(msg, 2))
	assert.Equal(t, 24, separatorOffset(msg, 5))
	assert.Equal(t, 0, separatorOffset([]byte(",,"), 1))
	assert.Equal(t, 1, separatorOffset([]byte(",,"), 2))
}
