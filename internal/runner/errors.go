package runner

import "errors"

var (
	// ErrQueueFull indicates the admission queue cannot accept new runs right now.
	ErrQueueFull = errors.New("automation queue is full")
	// ErrQueueClosed indicates the runner has been shut down.
	ErrQueueClosed = errors.New("automation queue is closed")
)
