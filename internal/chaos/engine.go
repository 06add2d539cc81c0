package chaos

import (
	"bytes"
	"math/rand"
	"time"

	"github.com/yanun0323/errors"

	"github.com/blacknand/AlgoPulse/pkg/exception"
	"github.com/blacknand/AlgoPulse/pkg/scanner"
)

const fieldSep = ','

type rateField struct {
	name string
	rate float64
}

// Config controls chaos injection behavior.
type Config struct {
	Seed          int64
	DropRate      float64
	DuplicateRate float64
	CorruptRate   float64
	ReorderWindow int
}

// Enabled reports whether any fault is configured.
func (c Config) Enabled() bool {
	return c.DropRate > 0 || c.DuplicateRate > 0 || c.CorruptRate > 0 || c.ReorderWindow > 1
}

// Engine applies chaos rules to wire payloads. It is not safe for concurrent use.
type Engine struct {
	cfg     Config
	rng     *rand.Rand
	pending [][]byte
}

// NewEngine creates a chaos engine with validation.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.ReorderWindow <= 0 {
		cfg.ReorderWindow = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	for _, f := range []rateField{
		{"dropRate", c.DropRate},
		{"duplicateRate", c.DuplicateRate},
		{"corruptRate", c.CorruptRate},
	} {
		if f.rate < 0 || f.rate > 1 {
			return errors.Wrapf(exception.ErrInvalidArgument, "%s must be between 0 and 1", f.name)
		}
	}
	if c.ReorderWindow <= 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "reorderWindow must be >= 1")
	}
	return nil
}

// Process applies chaos to one payload and returns what should go on the
// wire now. The engine keeps its own copy of payload.
func (e *Engine) Process(payload []byte) [][]byte {
	if e == nil {
		return [][]byte{payload}
	}
	if e.shouldDrop() {
		return nil
	}
	msg := e.applyCorrupt(bytes.Clone(payload))
	if e.cfg.ReorderWindow <= 1 {
		return e.applyDuplicate(msg)
	}
	e.pending = append(e.pending, msg)
	if len(e.pending) < e.cfg.ReorderWindow {
		return nil
	}
	return e.applyDuplicate(e.takeRandom())
}

// Flush returns any buffered payloads after processing completes.
func (e *Engine) Flush() [][]byte {
	if e == nil || len(e.pending) == 0 {
		return nil
	}
	out := make([][]byte, 0, len(e.pending))
	for len(e.pending) > 0 {
		out = append(out, e.applyDuplicate(e.takeRandom())...)
	}
	return out
}

func (e *Engine) takeRandom() []byte {
	idx := e.rng.Intn(len(e.pending))
	msg := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	return msg
}

func (e *Engine) shouldDrop() bool {
	return e.cfg.DropRate > 0 && e.rng.Float64() < e.cfg.DropRate
}

func (e *Engine) applyDuplicate(msg []byte) [][]byte {
	out := [][]byte{msg}
	if e.cfg.DuplicateRate > 0 && e.rng.Float64() < e.cfg.DuplicateRate {
		out = append(out, msg)
	}
	return out
}

// separatorOffset returns the index of the nth separator in msg, counting from 1.
func separatorOffset(msg []byte, nth int) int {
	offset, rest := -1, msg
	for i := 0; i < nth; i++ {
		var field []byte
		field, rest, _ = scanner.NextField(rest, fieldSep)
		offset += len(field) + 1
	}
	return offset
}

// applyCorrupt either cuts the message after a random field or garbles the
// first byte of one field, so the receiver sees a missing or malformed field.
func (e *Engine) applyCorrupt(msg []byte) []byte {
	if e.cfg.CorruptRate <= 0 || e.rng.Float64() >= e.cfg.CorruptRate || len(msg) == 0 {
		return msg
	}
	fields := scanner.CountFields(msg, fieldSep)
	if fields < 2 {
		return msg[:len(msg)/2]
	}
	cut := separatorOffset(msg, 1+e.rng.Intn(fields-1))
	if e.rng.Intn(2) == 0 {
		return msg[:cut]
	}
	if cut+1 < len(msg) {
		msg[cut+1] = '?'
	}
	return msg
}
