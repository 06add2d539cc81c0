package mdg

import (
	"math/rand"
	"strings"
	"time"

	"github.com/yanun0323/errors"

	"github.com/blacknand/AlgoPulse/internal/codec"
	"github.com/blacknand/AlgoPulse/internal/model"
	"github.com/blacknand/AlgoPulse/pkg/exception"
)

const (
	// ModeRandom jitters both sides of the book by up to nine ticks.
	ModeRandom = "random"
	// ModeFixed repeats bid=base, ask=base+1.
	ModeFixed = "fixed"

	DefaultSymbol    = "AAPL"
	DefaultBasePrice = 150.0
	DefaultVolume    = 100
	DefaultTick      = 0.1
)

// Config describes the synthetic feed.
type Config struct {
	Symbols   []string
	Mode      string
	BasePrice float64
	Volume    int64
	Tick      float64
	Seed      int64
}

// Generator creates synthetic quotes, cycling through the configured symbols.
type Generator struct {
	cfg   Config
	rng   *rand.Rand
	index int
}

func NewGenerator(cfg Config) (*Generator, error) {
	symbols := cfg.Symbols[:0:0]
	for _, s := range cfg.Symbols {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		symbols = []string{DefaultSymbol}
	}
	cfg.Symbols = symbols

	switch cfg.Mode {
	case "":
		cfg.Mode = ModeRandom
	case ModeRandom, ModeFixed:
	default:
		return nil, errors.Wrapf(exception.ErrInvalidArgument, "generator mode %q", cfg.Mode)
	}
	if cfg.BasePrice < 0 {
		return nil, errors.Wrapf(exception.ErrInvalidArgument, "base price %v < 0", cfg.BasePrice)
	}
	if cfg.BasePrice == 0 {
		cfg.BasePrice = DefaultBasePrice
	}
	if cfg.Volume <= 0 {
		cfg.Volume = DefaultVolume
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Next creates the next quote in sequence.
func (g *Generator) Next(now time.Time) model.Quote {
	symbol := g.cfg.Symbols[g.index]
	g.index = (g.index + 1) % len(g.cfg.Symbols)

	bid, ask := g.cfg.BasePrice, g.cfg.BasePrice+1
	if g.cfg.Mode == ModeRandom {
		bid = g.cfg.BasePrice + float64(g.rng.Intn(10))*g.cfg.Tick
		ask = g.cfg.BasePrice + 0.5 + float64(g.rng.Intn(10))*g.cfg.Tick
	}
	return model.Quote{
		Symbol:         symbol,
		BidPrice:       RoundToTick(bid, g.cfg.Tick),
		AskPrice:       RoundToTick(ask, g.cfg.Tick),
		BidVolume:      g.cfg.Volume,
		AskVolume:      g.cfg.Volume,
		TimestampMicro: now.UnixMicro(),
	}
}

// NextPayload appends the next quote in wire format to dst.
func (g *Generator) NextPayload(dst []byte, now time.Time) []byte {
	return codec.EncodeQuote(dst, g.Next(now))
}
