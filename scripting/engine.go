package scripting

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("scripting: engine closed")
	// ErrNoResult is returned by Evaluate when the expression yields
	// undefined or null.
	ErrNoResult = errors.New("scripting: expression produced no value")
)

// Engine represents an embedded scripting engine (e.g., JavaScript).
// Implementations are not safe for concurrent use; callers serialize access.
type Engine interface {
	// Execute runs setup script text and returns its exported completion value.
	Execute(ctx context.Context, script string) (interface{}, error)

	// Evaluate runs an expression and returns its string result.
	Evaluate(ctx context.Context, expr string) (string, error)

	// RegisterHost exposes host services (console, timers) to scripts.
	RegisterHost(host Host) error

	// Close releases the runtime. Further calls return ErrClosed.
	Close() error
}

// Host receives the side effects scripts are allowed to produce.
type Host interface {
	// Log receives console output. level is one of debug, info, warn, error.
	Log(level, message string)
}

// HostFunc adapts a function to Host.
type HostFunc func(level, message string)

func (f HostFunc) Log(level, message string) { f(level, message) }
