package svgraster

import (
	"errors"
	"fmt"
)

var (
	ErrRender        = errors.New("svgraster: render failed")
	ErrEmptyDocument = errors.New("svgraster: empty document")
	ErrInvalidSpec   = errors.New("svgraster: invalid raster spec")
	ErrNoSVGRoot     = errors.New("svgraster: no <svg> root element")
	ErrUnknownSize   = errors.New("svgraster: document has no usable width/height")
)

// RenderError wraps a parse or paint failure. It matches ErrRender.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("svgraster: %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRender }
