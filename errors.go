package mathtex

import (
	"github.com/wudi/mathtex/mathjax"
	"github.com/wudi/mathtex/svgraster"
)

// Errors returned by Converter, re-exported so callers need only this
// package for errors.Is and errors.As.
var (
	ErrEngineNotReady = mathjax.ErrEngineNotReady
	ErrLoadFailure    = mathjax.ErrLoadFailure
	ErrEmptyFormula   = mathjax.ErrEmptyFormula
	ErrTypeset        = mathjax.ErrTypeset
	ErrInvalidOption  = mathjax.ErrInvalidOption
	ErrRender         = svgraster.ErrRender
)

type (
	LoadError    = mathjax.LoadError
	TypesetError = mathjax.TypesetError
	RenderError  = svgraster.RenderError
)
