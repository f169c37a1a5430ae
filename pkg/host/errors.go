package host

import "errors"

var (
	// ErrClosed is returned when the host has been closed or its loop
	// has exited.
	ErrClosed = errors.New("host: closed")

	// ErrQueueFull is returned by Dispatch when the dispatch queue is at
	// capacity.
	ErrQueueFull = errors.New("host: dispatch queue full")

	// ErrRunning is returned by Run when the loop is already running.
	ErrRunning = errors.New("host: already running")

	// ErrNotFound is returned when no mounted instance has the given ID.
	ErrNotFound = errors.New("host: instance not found")

	// ErrUnknownAction is returned by Trigger when the committed output
	// does not expose the requested action.
	ErrUnknownAction = errors.New("host: unknown action")
)
