package mathjax

import (
	"errors"
	"fmt"
)

// Sentinel errors for engine operations.
var (
	ErrEngineNotReady = errors.New("mathjax: engine is not loaded or failed to load")
	ErrLoadFailure    = errors.New("mathjax: engine load failed")
	ErrEmptyFormula   = errors.New("mathjax: empty formula")
	ErrTypeset        = errors.New("mathjax: typesetting failed")
	ErrInvalidOption  = errors.New("mathjax: invalid option name")
)

// LoadError reports which startup stage failed. It matches ErrLoadFailure.
type LoadError struct {
	Stage string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("mathjax: load %s: %v", e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoadFailure }

// TypesetError carries the message MathJax embedded in its output.
// It matches ErrTypeset.
type TypesetError struct {
	Message string
}

func (e *TypesetError) Error() string { return e.Message }

func (e *TypesetError) Is(target error) bool { return target == ErrTypeset }
