package exception

import "errors"

// Queue errors
var (
	ErrQueueClosed = errors.New("queue: closed")
	ErrQueueFull   = errors.New("queue: full")
)
