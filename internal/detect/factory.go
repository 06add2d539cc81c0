package detect

import (
	"strings"

	"github.com/yanun0323/errors"

	"github.com/blacknand/AlgoPulse/pkg/exception"
)

const (
	ModeSpread    = "spread"
	ModeCrossed   = "crossed"
	ModeRolling   = "rolling"
	ModeComposite = "composite"
)

// Params carries the knobs every detector constructor may need.
type Params struct {
	SpreadThreshold float64
	Window          int
	ZScore          float64
	MinSamples      int
}

// Build returns the detector for mode. An empty mode selects the spread policy.
func Build(mode string, params Params) (Detector, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeSpread:
		return NewSpread(params.SpreadThreshold), nil
	case ModeCrossed:
		return Crossed{}, nil
	case ModeRolling:
		return NewRolling(params.Window, params.ZScore, params.MinSamples), nil
	case ModeComposite:
		return Chain(
			Crossed{},
			NewSpread(params.SpreadThreshold),
			NewRolling(params.Window, params.ZScore, params.MinSamples),
		), nil
	default:
		return nil, errors.Wrapf(exception.ErrUnknownDetector, "mode %q", mode)
	}
}

// KnownMode reports whether Build accepts mode.
func KnownMode(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeSpread, ModeCrossed, ModeRolling, ModeComposite:
		return true
	default:
		return false
	}
}
