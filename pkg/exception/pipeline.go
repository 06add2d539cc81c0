package exception

import "errors"

// Pipeline errors
var (
	ErrStartup         = errors.New("pipeline: startup failed")
	ErrAlreadyStarted  = errors.New("pipeline: already started")
	ErrNilDialer       = errors.New("pipeline: nil dialer")
	ErrNilDetector     = errors.New("pipeline: nil detector")
	ErrUnknownDetector = errors.New("pipeline: unknown detector mode")
)
